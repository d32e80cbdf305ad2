// Package font converts a folder of u<codepoint>-<name>.svg files into an
// icon font and writes it as TrueType, WOFF, WOFF2, EOT and SVG font.
package font

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/conneroisu/iconforge/internal/errors"
	"github.com/conneroisu/iconforge/internal/logging"
	"github.com/conneroisu/iconforge/internal/registry"
)

// Format is an output font format, named by its file extension.
type Format string

const (
	FormatTTF   Format = "ttf"
	FormatEOT   Format = "eot"
	FormatWOFF  Format = "woff"
	FormatWOFF2 Format = "woff2"
	FormatSVG   Format = "svg"
)

// WebFormats are the formats every build emits.
var WebFormats = []Format{FormatTTF, FormatEOT, FormatWOFF, FormatWOFF2}

// Default em square.
const (
	DefaultEmHeight = 512
	DefaultDescent  = 64
)

// canonicalName matches u<hex>-<name>.svg.
var canonicalName = regexp.MustCompile(`^u([0-9A-Fa-f]+)-(.+)\.svg$`)

// Options describe one font generation.
type Options struct {
	// Glob selects the canonical SVG files, for example svg/u*-*.svg.
	Glob       string
	FontName   string
	FamilyName string
	// Weight is a CSS font-weight: normal, bold or a number.
	Weight   string
	Version  string
	Formats  []Format
	EmHeight int
	Descent  int
	Date     time.Time
}

// Result holds one buffer per requested format.
type Result struct {
	Fonts  map[Format][]byte
	Glyphs []*Glyph
}

// Generator produces font files from SVG icons.
type Generator interface {
	Generate(ctx context.Context, opts Options) (*Result, error)
}

// SFNTGenerator is the built-in Generator.
type SFNTGenerator struct {
	logger logging.Logger
}

// NewGenerator returns the built-in Generator.
func NewGenerator(logger logging.Logger) *SFNTGenerator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &SFNTGenerator{logger: logger.WithComponent("font")}
}

// Generate implements Generator. Any failure is a FontEmitFailure.
func (g *SFNTGenerator) Generate(ctx context.Context, opts Options) (*Result, error) {
	if opts.EmHeight <= 0 {
		opts.EmHeight = DefaultEmHeight
	}
	if opts.Descent < 0 || opts.Descent >= opts.EmHeight {
		return nil, errors.NewFontError(fmt.Sprintf("descent %d must be within the em height %d", opts.Descent, opts.EmHeight), nil)
	}
	if len(opts.Formats) == 0 {
		opts.Formats = WebFormats
	}
	m := Metrics{UnitsPerEm: opts.EmHeight, Descent: opts.Descent}

	glyphs, err := g.loadGlyphs(ctx, opts.Glob, m)
	if err != nil {
		return nil, err
	}

	info := Info{
		FamilyName: opts.FamilyName,
		FontName:   opts.FontName,
		Weight:     ParseWeight(opts.Weight),
		Version:    opts.Version,
		Date:       opts.Date,
	}
	if info.FamilyName == "" {
		info.FamilyName = opts.FontName
	}

	ttf, err := BuildTrueType(glyphs, info, m)
	if err != nil {
		return nil, errors.NewFontError("cannot build TrueType font", err)
	}

	result := &Result{Fonts: make(map[Format][]byte, len(opts.Formats)), Glyphs: glyphs}
	for _, format := range opts.Formats {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewFontError("font generation cancelled", err)
		}
		var data []byte
		switch format {
		case FormatTTF:
			data = ttf.Bytes()
		case FormatWOFF:
			data, err = ttf.WOFF()
		case FormatWOFF2:
			data, err = ttf.WOFF2()
		case FormatEOT:
			data, err = ttf.EOT(info)
		case FormatSVG:
			data = SVGFont(glyphs, info, m)
		default:
			err = fmt.Errorf("unknown format %q", format)
		}
		if err != nil {
			return nil, errors.NewFontError(fmt.Sprintf("cannot write %s font", format), err)
		}
		result.Fonts[format] = data
		g.logger.Debug(ctx, "Encoded font", "format", string(format), "bytes", len(data))
	}

	return result, nil
}

func (g *SFNTGenerator) loadGlyphs(ctx context.Context, glob string, m Metrics) ([]*Glyph, error) {
	paths, err := filepath.Glob(glob)
	if err != nil {
		return nil, errors.NewFontError(fmt.Sprintf("invalid glob %q", glob), err)
	}

	var glyphs []*Glyph
	seen := make(map[rune]string)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewFontError("font generation cancelled", err)
		}

		match := canonicalName.FindStringSubmatch(filepath.Base(path))
		if match == nil {
			g.logger.Debug(ctx, "Skipping file without codepoint prefix", "path", path)
			continue
		}
		cp, err := registry.ParseCodepoint(match[1])
		if err != nil {
			return nil, errors.NewFontError(fmt.Sprintf("invalid codepoint in %q", path), err).WithPath(path)
		}
		if other, dup := seen[cp]; dup {
			return nil, errors.NewFontError(fmt.Sprintf("%q and %q share codepoint %X", other, path, cp), nil).WithPath(path)
		}
		seen[cp] = path

		glyph, err := readGlyph(path, match[2], cp, m)
		if err != nil {
			return nil, errors.NewFontError(fmt.Sprintf("cannot convert %q", path), err).WithPath(path)
		}
		glyphs = append(glyphs, glyph)
	}
	if len(glyphs) == 0 {
		return nil, errors.NewFontError(fmt.Sprintf("no icons match %q", glob), nil)
	}
	sort.Slice(glyphs, func(i, j int) bool { return glyphs[i].Codepoint < glyphs[j].Codepoint })

	return glyphs, nil
}

func readGlyph(path, name string, cp rune, m Metrics) (*Glyph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseGlyph(f, name, cp, m)
}

// ParseWeight maps a CSS font-weight to its numeric class, defaulting to 400.
func ParseWeight(weight string) int {
	switch strings.ToLower(strings.TrimSpace(weight)) {
	case "", "normal", "regular":
		return 400
	case "bold":
		return 700
	}
	n, err := strconv.Atoi(strings.TrimSpace(weight))
	if err != nil || n < 1 || n > 1000 {
		return 400
	}

	return n
}
