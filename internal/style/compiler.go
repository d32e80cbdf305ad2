// Package style compiles the generated SCSS sources into the expanded and
// minified stylesheets of a build, each with a source map.
package style

import (
	"context"
	"fmt"
	"strings"
)

// OutputStyle is the Sass output style.
type OutputStyle string

const (
	Expanded   OutputStyle = "expanded"
	Compressed OutputStyle = "compressed"
)

// Compiler names accepted by New.
const (
	CompilerSass     = "sass"
	CompilerEmbedded = "embedded"
)

// Request describes one compilation.
type Request struct {
	// Entry is the SCSS entry point; partials resolve relative to it.
	Entry       string
	OutputStyle OutputStyle
	SourceMap   bool
	LoadPaths   []string
}

// Output is the result of one compilation.
type Output struct {
	CSS       []byte
	SourceMap []byte
}

// Compiler turns an SCSS entry point into CSS.
type Compiler interface {
	Compile(ctx context.Context, req Request) (*Output, error)
	Name() string
}

// New returns the compiler registered under name. binary overrides the
// executable each compiler starts.
func New(name, binary string) (Compiler, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", CompilerSass, "cli":
		return NewSassCLI(binary), nil
	case CompilerEmbedded:
		return NewEmbedded(binary), nil
	default:
		return nil, fmt.Errorf("unknown style compiler %q (want %q or %q)", name, CompilerSass, CompilerEmbedded)
	}
}
