// Package layout creates the output folder tree and names every artifact in it.
package layout

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/conneroisu/iconforge/internal/errors"
)

// Layout is the resolved destination tree of a build.
type Layout struct {
	Root  string
	SCSS  string
	CSS   string
	Fonts string
}

// New resolves the layout below root without touching the filesystem.
func New(root string) Layout {
	return Layout{
		Root:  root,
		SCSS:  filepath.Join(root, "scss"),
		CSS:   filepath.Join(root, "css"),
		Fonts: filepath.Join(root, "fonts"),
	}
}

// Ensure creates root and its scss, css and fonts folders when missing.
func Ensure(root string) (Layout, error) {
	l := New(root)
	for _, dir := range []string{l.Root, l.SCSS, l.CSS, l.Fonts} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return l, errors.NewIOError("CREATE_OUTPUT_DIR", fmt.Sprintf("cannot create %q", dir), err)
		}
	}

	return l, nil
}

// IndexFile is the preview page.
func (l Layout) IndexFile() string {
	return filepath.Join(l.Root, "index.html")
}

// FontFile is <fonts>/<fileName>-webfont.<ext>.
func (l Layout) FontFile(fileName, ext string) string {
	return filepath.Join(l.Fonts, fmt.Sprintf("%s-webfont.%s", fileName, ext))
}

// SCSSEntry is the SCSS entry point <scss>/<fileName>.scss.
func (l Layout) SCSSEntry(fileName string) string {
	return filepath.Join(l.SCSS, fileName+".scss")
}

// SCSSPartial is <scss>/_<name>.scss.
func (l Layout) SCSSPartial(name string) string {
	return filepath.Join(l.SCSS, "_"+name+".scss")
}

// CSSFile is <css>/<fileName>.css, or .min.css when minified.
func (l Layout) CSSFile(fileName string, minified bool) string {
	if minified {
		return filepath.Join(l.CSS, fileName+".min.css")
	}

	return filepath.Join(l.CSS, fileName+".css")
}

// MapFile is the source map that belongs next to a CSS file.
func (l Layout) MapFile(fileName string, minified bool) string {
	return l.CSSFile(fileName, minified) + ".map"
}

// WriteFile writes data to path, wrapping failures as build errors.
func WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewIOError("WRITE_OUTPUT", fmt.Sprintf("cannot write %q", path), err)
	}

	return nil
}
