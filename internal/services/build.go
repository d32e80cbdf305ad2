package services

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/conneroisu/iconforge/internal/config"
	"github.com/conneroisu/iconforge/internal/errors"
	"github.com/conneroisu/iconforge/internal/font"
	"github.com/conneroisu/iconforge/internal/layout"
	"github.com/conneroisu/iconforge/internal/logging"
	"github.com/conneroisu/iconforge/internal/reconcile"
	"github.com/conneroisu/iconforge/internal/registry"
	"github.com/conneroisu/iconforge/internal/renderer"
	"github.com/conneroisu/iconforge/internal/style"
	"github.com/conneroisu/iconforge/internal/version"
)

// BuildService runs the font build pipeline: load, reconcile, lay out the
// output folder, emit fonts, render the preview page and SCSS sources, then
// compile the stylesheets.
type BuildService struct {
	config      *config.Config
	logger      logging.Logger
	generator   font.Generator
	compiler    style.Compiler
	diagnostics io.Writer

	// mu serialises builds triggered from watch and serve.
	mu sync.Mutex
}

// NewBuildService creates a new build service
func NewBuildService(cfg *config.Config, logger logging.Logger) *BuildService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &BuildService{
		config:      cfg,
		logger:      logger.WithComponent("build"),
		diagnostics: os.Stderr,
	}
}

// WithGenerator replaces the font generator.
func (s *BuildService) WithGenerator(g font.Generator) *BuildService {
	s.generator = g

	return s
}

// WithCompiler replaces the style compiler selected by the configuration.
func (s *BuildService) WithCompiler(c style.Compiler) *BuildService {
	s.compiler = c

	return s
}

// WithDiagnostics sets where batched reconciliation messages are printed.
func (s *BuildService) WithDiagnostics(w io.Writer) *BuildService {
	s.diagnostics = w

	return s
}

// BuildResult contains the result of a build operation
type BuildResult struct {
	Duration  time.Duration
	IconCount int
	Renamed   []registry.IconEntry
	Missing   []registry.IconEntry
	Layout    layout.Layout
	Fonts     []string
	Index     string
	SCSS      []string
	Styles    []string
	// StyleError is set when stylesheet compilation failed without failing the build.
	StyleError error
	Success    bool
}

// Files returns every artifact written by the build.
func (r *BuildResult) Files() []string {
	var files []string
	files = append(files, r.Fonts...)
	if r.Index != "" {
		files = append(files, r.Index)
	}
	files = append(files, r.SCSS...)

	return append(files, r.Styles...)
}

// Build performs the complete build process. Fatal failures are returned as
// *errors.BuildError; a failed style compilation is only returned when
// build.fail_on_style_error is set.
func (s *BuildService) Build(ctx context.Context) (*BuildResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	startTime := time.Now()
	result := &BuildResult{}
	err := s.build(ctx, result)
	result.Duration = time.Since(startTime)
	result.Success = err == nil

	if err != nil {
		s.logger.Error(ctx, err, "Build failed", "duration_ms", result.Duration.Milliseconds())
		return result, err
	}
	s.logger.Info(ctx, "Build complete",
		"generator", version.Generator(),
		"icons", result.IconCount,
		"files", len(result.Files()),
		"duration_ms", result.Duration.Milliseconds())

	return result, nil
}

func (s *BuildService) build(ctx context.Context, result *BuildResult) error {
	paths := s.config.Paths

	mode, err := renderer.ParseMode(s.config.Build.Mode)
	if err != nil {
		return errors.NewValidationError("INVALID_MODE", err.Error())
	}

	reg, err := s.loadRegistry(ctx)
	if err != nil {
		return err
	}
	result.IconCount = reg.Len()

	report, err := s.reconcile(ctx, reg)
	if err != nil {
		return err
	}
	result.Renamed = report.Renamed()
	result.Missing = report.Missing()

	out, err := layout.Ensure(paths.Dist)
	if err != nil {
		return err
	}
	result.Layout = out

	cfg := reg.Config()
	if result.Fonts, err = s.emitFonts(ctx, cfg, out); err != nil {
		return err
	}

	r := renderer.New(reg, out, renderer.Options{
		Mode:      mode,
		SVGDir:    paths.SVG,
		Templates: renderer.NewTemplateSet(paths.Templates),
		Logger:    s.logger,
	})
	if result.Index, err = r.WriteIndex(ctx, resolvedIcons(reg, report)); err != nil {
		return err
	}
	if result.SCSS, err = r.WriteSCSS(ctx); err != nil {
		return err
	}

	styles, err := s.compileStyles(ctx, out, cfg.FileName)
	if styles != nil {
		result.Styles = styles.Files()
	}
	if err != nil {
		if !s.config.Build.FailOnStyleError && errors.IsStyleError(err) {
			s.logger.Warn(ctx, err, "Stylesheet compilation failed, continuing")
			result.StyleError = err
			return nil
		}
		return err
	}

	return nil
}

func (s *BuildService) loadRegistry(ctx context.Context) (*registry.Registry, error) {
	perf := logging.StartOperation(s.logger, "load")
	reg, err := registry.Load(s.config.Paths.Meta, s.config.Paths.Font)
	if err != nil {
		perf.EndWithError(ctx, err)
		return nil, err
	}
	perf.End(ctx)
	s.logger.Debug(ctx, "Loaded icon registry",
		"icons", reg.Len(),
		"meta", reg.MetaPath(),
		"config", reg.ConfigPath())

	return reg, nil
}

func (s *BuildService) reconcile(ctx context.Context, reg *registry.Registry) (*reconcile.Report, error) {
	perf := logging.StartOperation(s.logger, "reconcile")
	log := errors.NewErrorLog(errors.DefaultDisplayLimit)

	report, err := reconcile.Reconcile(s.config.Paths.SVG, reg.Icons(), log)
	if err != nil {
		perf.EndWithError(ctx, err)
		return nil, err
	}
	for _, icon := range report.Renamed() {
		s.logger.Debug(ctx, "Renamed legacy SVG", "icon", icon.Name, "file", icon.CanonicalFileName())
	}

	if err := log.Finish(s.diagnostics, !s.config.Build.Lenient); err != nil {
		perf.EndWithError(ctx, err)
		return nil, err
	}
	if log.HasErrors() {
		s.logger.Warn(ctx, nil, "Continuing with unresolved icons", "missing", log.Total())
	}
	perf.End(ctx)

	return report, nil
}

func (s *BuildService) emitFonts(ctx context.Context, cfg registry.BuildConfig, out layout.Layout) ([]string, error) {
	perf := logging.StartOperation(s.logger, "font")

	formats := append([]font.Format{}, font.WebFormats...)
	if s.config.Build.FontSVG {
		formats = append(formats, font.FormatSVG)
	}

	generator := s.generator
	if generator == nil {
		generator = font.NewGenerator(s.logger)
	}

	fonts, err := generator.Generate(ctx, font.Options{
		Glob:       filepath.Join(s.config.Paths.SVG, "u*-*.svg"),
		FontName:   cfg.FontName,
		FamilyName: cfg.FontFamily,
		Weight:     cfg.FontWeight.String(),
		Version:    cfg.Version.String(),
		Formats:    formats,
		EmHeight:   s.config.Font.EmHeight,
		Descent:    s.config.Font.Descent,
		Date:       cfg.BuildDate(),
	})
	if err != nil {
		perf.EndWithError(ctx, err)
		return nil, err
	}

	written := make([]string, 0, len(formats))
	for _, format := range formats {
		data, ok := fonts.Fonts[format]
		if !ok {
			err := errors.NewFontError("generator returned no "+string(format)+" font", nil)
			perf.EndWithError(ctx, err)
			return written, err
		}
		path := out.FontFile(cfg.FileName, string(format))
		if err := layout.WriteFile(path, data); err != nil {
			perf.EndWithError(ctx, err)
			return written, err
		}
		written = append(written, path)
	}
	perf.End(ctx)

	return written, nil
}

func (s *BuildService) compileStyles(ctx context.Context, out layout.Layout, fileName string) (*style.Result, error) {
	perf := logging.StartOperation(s.logger, "style")

	compiler := s.compiler
	if compiler == nil {
		c, err := style.New(s.config.Style.Compiler, s.config.Style.SassBinary)
		if err != nil {
			return nil, errors.NewValidationError("INVALID_COMPILER", err.Error())
		}
		if closer, ok := c.(io.Closer); ok {
			defer closer.Close()
		}
		compiler = c
	}

	styles, err := style.Build(ctx, compiler, out, fileName, s.logger)
	if err != nil {
		perf.EndWithError(ctx, err)
		return styles, err
	}
	perf.End(ctx)

	return styles, nil
}

// resolvedIcons drops icons left without an SVG file so that a lenient build
// still renders a preview page.
func resolvedIcons(reg *registry.Registry, report *reconcile.Report) []registry.IconEntry {
	missing := make(map[string]struct{})
	for _, icon := range report.Missing() {
		missing[icon.Name] = struct{}{}
	}

	icons := make([]registry.IconEntry, 0, reg.Len())
	for _, icon := range reg.Icons() {
		if _, skip := missing[icon.Name]; !skip {
			icons = append(icons, icon)
		}
	}

	return icons
}
