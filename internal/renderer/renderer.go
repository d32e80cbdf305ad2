// Package renderer turns the built-in text templates into the preview page
// and the SCSS sources of a build by substituting placeholder tokens and
// expanding the data-driven markers.
package renderer

import (
	"context"
	"fmt"
	"strings"

	"github.com/conneroisu/iconforge/internal/layout"
	"github.com/conneroisu/iconforge/internal/logging"
	"github.com/conneroisu/iconforge/internal/registry"
)

// Mode selects the preview flavour.
type Mode string

const (
	// ModeWebfont previews icons through the generated font and CSS.
	ModeWebfont Mode = "webfont"
	// ModeSVG previews icons from their inline SVG path data.
	ModeSVG Mode = "svg"
)

// ParseMode validates a mode name; the empty string selects ModeWebfont.
func ParseMode(name string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(name))) {
	case "", ModeWebfont:
		return ModeWebfont, nil
	case ModeSVG:
		return ModeSVG, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want %q or %q)", name, ModeWebfont, ModeSVG)
	}
}

// Options configure a Renderer.
type Options struct {
	Mode      Mode
	SVGDir    string
	Templates *TemplateSet
	Logger    logging.Logger
}

// Renderer writes the preview page and SCSS sources of one build.
type Renderer struct {
	registry  *registry.Registry
	out       layout.Layout
	vars      Vars
	mode      Mode
	svgDir    string
	templates *TemplateSet
	logger    logging.Logger
}

// New creates a renderer for reg writing below out.
func New(reg *registry.Registry, out layout.Layout, opts Options) *Renderer {
	if opts.Templates == nil {
		opts.Templates = NewTemplateSet("")
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Mode == "" {
		opts.Mode = ModeWebfont
	}

	return &Renderer{
		registry:  reg,
		out:       out,
		vars:      NewVars(reg.Config()),
		mode:      opts.Mode,
		svgDir:    opts.SVGDir,
		templates: opts.Templates,
		logger:    opts.Logger.WithComponent("renderer"),
	}
}

// Vars returns the template variables of the build.
func (r *Renderer) Vars() Vars {
	return r.vars
}

// RenderIndex renders the preview page listing icons.
func (r *Renderer) RenderIndex(icons []registry.IconEntry) (string, error) {
	name := IndexTemplate
	svgDir := ""
	if r.mode == ModeSVG {
		name = IndexSVGTemplate
		svgDir = r.svgDir
	}

	text, err := r.templates.Read(name)
	if err != nil {
		return "", err
	}

	records, err := NewRecords(icons, svgDir)
	if err != nil {
		return "", err
	}

	text = Render(text, r.vars)
	if text, err = ReplaceIconsList(text, records); err != nil {
		return "", err
	}
	cfg := r.registry.Config()

	return ReplaceDate(text, cfg.BuildDate()), nil
}

// WriteIndex renders the preview page and writes it to <dist>/index.html.
func (r *Renderer) WriteIndex(ctx context.Context, icons []registry.IconEntry) (string, error) {
	text, err := r.RenderIndex(icons)
	if err != nil {
		return "", err
	}

	path := r.out.IndexFile()
	if err := layout.WriteFile(path, []byte(text)); err != nil {
		return "", err
	}
	r.logger.Debug(ctx, "Wrote preview page", "path", path, "mode", string(r.mode), "icons", len(icons))

	return path, nil
}

// RenderSCSSFile renders one SCSS template with the icon map expanded.
func (r *Renderer) RenderSCSSFile(name string) (string, error) {
	text, err := r.templates.Read(name)
	if err != nil {
		return "", err
	}
	text = RenderSCSS(text, r.vars)

	return ReplaceIconsMap(text, r.registry.CodepointMap()), nil
}

// WriteSCSS writes the entry point and every partial, returning the paths
// written with the entry point first.
func (r *Renderer) WriteSCSS(ctx context.Context) ([]string, error) {
	cfg := r.registry.Config()
	targets := []struct{ template, path string }{
		{"scss/" + SCSSTemplate, r.out.SCSSEntry(cfg.FileName)},
	}
	for _, partial := range Partials {
		targets = append(targets, struct{ template, path string }{PartialTemplate(partial), r.out.SCSSPartial(partial)})
	}

	written := make([]string, 0, len(targets))
	for _, target := range targets {
		text, err := r.RenderSCSSFile(target.template)
		if err != nil {
			return written, err
		}
		if err := layout.WriteFile(target.path, []byte(text)); err != nil {
			return written, err
		}
		written = append(written, target.path)
	}
	r.logger.Debug(ctx, "Wrote SCSS sources", "files", len(written))

	return written, nil
}
