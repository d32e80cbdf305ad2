package style

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/bep/godartsass/v2"
)

// Embedded talks to a long-running Dart Sass process over the embedded
// protocol. The process starts on first use and lives until Close.
type Embedded struct {
	Binary string

	mu         sync.Mutex
	transpiler *godartsass.Transpiler
}

// NewEmbedded returns an Embedded compiler starting binary, or sass when
// empty.
func NewEmbedded(binary string) *Embedded {
	if binary == "" {
		binary = DefaultSassBinary
	}

	return &Embedded{Binary: binary}
}

// Name implements Compiler.
func (e *Embedded) Name() string {
	return CompilerEmbedded
}

// Compile implements Compiler.
func (e *Embedded) Compile(ctx context.Context, req Request) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	source, err := os.ReadFile(req.Entry)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", req.Entry, err)
	}
	abs, err := filepath.Abs(req.Entry)
	if err != nil {
		return nil, err
	}

	t, err := e.start()
	if err != nil {
		return nil, err
	}

	style := godartsass.OutputStyleExpanded
	if req.OutputStyle == Compressed {
		style = godartsass.OutputStyleCompressed
	}
	includePaths := append([]string{filepath.Dir(abs)}, req.LoadPaths...)

	result, err := t.Execute(godartsass.Args{
		Source:          string(source),
		URL:             (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(),
		SourceSyntax:    godartsass.SourceSyntaxSCSS,
		OutputStyle:     style,
		IncludePaths:    includePaths,
		EnableSourceMap: req.SourceMap,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compile SCSS: %w", err)
	}

	out := &Output{CSS: []byte(result.CSS)}
	if req.SourceMap {
		out.SourceMap = []byte(result.SourceMap)
	}

	return out, nil
}

// Close stops the Dart Sass process.
func (e *Embedded) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.transpiler == nil {
		return nil
	}
	err := e.transpiler.Close()
	e.transpiler = nil

	return err
}

func (e *Embedded) start() (*godartsass.Transpiler, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.transpiler != nil {
		return e.transpiler, nil
	}
	t, err := godartsass.Start(godartsass.Options{DartSassEmbeddedFilename: e.Binary})
	if err != nil {
		return nil, fmt.Errorf("failed to start embedded sass %q: %w", e.Binary, err)
	}
	e.transpiler = t

	return t, nil
}
