package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed all:templates
var embedded embed.FS

// Template names.
const (
	IndexTemplate    = "index.html"
	IndexSVGTemplate = "index-svg.html"
	SCSSTemplate     = "main.scss"
)

// Partials lists the SCSS partials in the order the entry point imports them.
var Partials = []string{"variables", "functions", "path", "core", "icons", "extras", "animated"}

// TemplateSet resolves template text, preferring files of an override folder
// over the built-in copies.
type TemplateSet struct {
	overrideDir string
	builtin     fs.FS
}

// NewTemplateSet returns the built-in templates, overridden per file by
// overrideDir when it is not empty.
func NewTemplateSet(overrideDir string) *TemplateSet {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}

	return &TemplateSet{overrideDir: overrideDir, builtin: sub}
}

// Read returns the text of the named template. Names below the scss folder
// are given relative to the template root, for example "scss/_core.scss".
func (t *TemplateSet) Read(name string) (string, error) {
	if t.overrideDir != "" {
		data, err := os.ReadFile(filepath.Join(t.overrideDir, filepath.FromSlash(name)))
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("reading template override %s: %w", name, err)
		}
	}

	data, err := fs.ReadFile(t.builtin, name)
	if err != nil {
		return "", fmt.Errorf("template %s not found: %w", name, err)
	}

	return string(data), nil
}

// PartialTemplate is the template path of an SCSS partial.
func PartialTemplate(name string) string {
	return "scss/_" + name + ".scss"
}
