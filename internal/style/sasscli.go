package style

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/conneroisu/iconforge/internal/errors"
)

// DefaultSassBinary is the Dart Sass executable looked up on PATH.
const DefaultSassBinary = "sass"

// SassCLI runs the sass executable once per compilation.
type SassCLI struct {
	Binary string
}

// NewSassCLI returns a SassCLI running binary, or sass when empty.
func NewSassCLI(binary string) *SassCLI {
	if binary == "" {
		binary = DefaultSassBinary
	}

	return &SassCLI{Binary: binary}
}

// Name implements Compiler.
func (s *SassCLI) Name() string {
	return CompilerSass
}

// Compile implements Compiler. The output goes to a scratch folder and is
// read back, so the executable never writes into the dist tree.
func (s *SassCLI) Compile(ctx context.Context, req Request) (*Output, error) {
	tmpDir, err := os.MkdirTemp("", "iconforge-sass")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch folder: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputFile := filepath.Join(tmpDir, "output.css")
	args := []string{"--style=" + string(req.OutputStyle), "--no-error-css"}
	if req.SourceMap {
		args = append(args, "--source-map")
	} else {
		args = append(args, "--no-source-map")
	}
	for _, path := range req.LoadPaths {
		args = append(args, "--load-path="+path)
	}
	args = append(args, req.Entry, outputFile)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.Binary, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if diag := errors.FirstError(errors.ParseSassOutput(stderr.String())); diag != nil {
			return nil, fmt.Errorf("failed to compile SCSS: %w", diag)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("failed to compile SCSS: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("failed to compile SCSS: %w", err)
	}

	css, err := os.ReadFile(outputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read compiled CSS: %w", err)
	}
	out := &Output{CSS: css}
	if req.SourceMap {
		sourceMap, err := os.ReadFile(outputFile + ".map")
		if err != nil {
			return nil, fmt.Errorf("failed to read source map: %w", err)
		}
		out.SourceMap = sourceMap
	}

	return out, nil
}
