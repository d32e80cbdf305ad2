package renderer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conneroisu/iconforge/internal/errors"
	"github.com/conneroisu/iconforge/internal/registry"
)

// DefaultViewBox is assumed for SVG files without a viewBox attribute.
const DefaultViewBox = "0 0 24 24"

var (
	pathSelector = cascadia.MustCompile("path[d]")
	svgSelector  = cascadia.MustCompile("svg")
)

// IconRecord is one entry of the preview page's icon list.
type IconRecord struct {
	Name       string   `json:"name"`
	Title      string   `json:"title"`
	Hex        string   `json:"hex"`
	Version    string   `json:"version,omitempty"`
	Deprecated bool     `json:"deprecated,omitempty"`
	Aliases    []string `json:"aliases,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Data       string   `json:"data,omitempty"`
	ViewBox    string   `json:"viewBox,omitempty"`
}

// PathData is the drawing data of one SVG file.
type PathData struct {
	// D joins the d attribute of every path element with a single space.
	D       string
	ViewBox string
}

// ExtractPathData reads an SVG document and collects the d attributes of its
// path elements in document order.
func ExtractPathData(r io.Reader) (PathData, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return PathData{}, err
	}

	var parts []string
	for _, node := range pathSelector.MatchAll(doc) {
		if d := strings.TrimSpace(attr(node, "d")); d != "" {
			parts = append(parts, d)
		}
	}
	if len(parts) == 0 {
		return PathData{}, fmt.Errorf("no path element with drawing data")
	}

	data := PathData{D: strings.Join(parts, " "), ViewBox: DefaultViewBox}
	if root := svgSelector.MatchFirst(doc); root != nil {
		if vb := strings.TrimSpace(attr(root, "viewBox")); vb != "" {
			data.ViewBox = vb
		}
	}

	return data, nil
}

// ReadPathData extracts the drawing data of the SVG file at path.
func ReadPathData(path string) (PathData, error) {
	f, err := os.Open(path)
	if err != nil {
		return PathData{}, errors.NewSvgDataError(path, "cannot read SVG file", err)
	}
	defer f.Close()

	data, err := ExtractPathData(f)
	if err != nil {
		return PathData{}, errors.NewSvgDataError(path, "no usable path data", err)
	}

	return data, nil
}

// NewRecords builds the preview records of icons. With svgDir set, each
// record also carries the drawing data of the icon's canonical SVG file.
func NewRecords(icons []registry.IconEntry, svgDir string) ([]IconRecord, error) {
	title := cases.Title(language.English)
	records := make([]IconRecord, 0, len(icons))
	for _, icon := range icons {
		record := IconRecord{
			Name:       icon.Name,
			Title:      title.String(strings.ReplaceAll(icon.Name, "-", " ")),
			Hex:        icon.Codepoint,
			Version:    icon.Version,
			Deprecated: icon.Deprecated,
			Aliases:    icon.Aliases,
			Tags:       icon.Tags,
		}
		if svgDir != "" {
			data, err := ReadPathData(filepath.Join(svgDir, icon.CanonicalFileName()))
			if err != nil {
				return nil, err
			}
			record.Data = data.D
			record.ViewBox = data.ViewBox
		}
		records = append(records, record)
	}

	return records, nil
}

// attr matches keys case-insensitively; the HTML parser folds SVG
// attribute names and only restores the ones it knows.
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}

	return ""
}
