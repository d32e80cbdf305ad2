package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/conneroisu/iconforge/internal/build"
	"github.com/conneroisu/iconforge/internal/config"
	"github.com/conneroisu/iconforge/internal/logging"
	"github.com/conneroisu/iconforge/internal/server"
	"github.com/conneroisu/iconforge/internal/watcher"
)

// ServeService rebuilds on input changes and, for serve, hosts the output
// folder with live reload.
type ServeService struct {
	config  *config.Config
	builder *BuildService
	logger  logging.Logger

	hashes *build.HashProvider
	// mu guards built and keeps the check-then-build step of a rebuild whole.
	mu sync.Mutex
	// built is the input fingerprint after the last successful build.
	built string
}

// NewServeService creates a new serve service
func NewServeService(cfg *config.Config, builder *BuildService, logger logging.Logger) *ServeService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &ServeService{
		config:  cfg,
		builder: builder,
		logger:  logger.WithComponent("serve"),
		hashes:  build.NewHashProvider(),
	}
}

// ServeOptions contains options for watch and serve
type ServeOptions struct {
	// ConfigFile is the tool configuration in use, watched when set.
	ConfigFile string
	// OnBuild is called after every build, including the initial one.
	OnBuild func(*BuildResult, error)
}

// WatchInputs returns the folders and files whose changes trigger a rebuild.
func (s *ServeService) WatchInputs(opts ServeOptions) (dirs []string, files []string) {
	paths := s.config.Paths
	dirs = []string{paths.SVG}
	files = []string{paths.Meta, paths.Font}
	if opts.ConfigFile != "" {
		files = append(files, opts.ConfigFile)
	}
	if paths.Templates != "" {
		dirs = append(dirs, paths.Templates, filepath.Join(paths.Templates, "scss"))
	}

	return dirs, files
}

// Watch builds once, then rebuilds after every debounced batch of input
// changes until ctx is cancelled. Build failures are reported through
// opts.OnBuild and do not stop watching.
func (s *ServeService) Watch(ctx context.Context, opts ServeOptions) error {
	fw, err := watcher.NewFileWatcher(s.config.Serve.Debounce, s.logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Stop()

	dirs, files := s.WatchInputs(opts)
	fw.AddFilter(watcher.NoSwapFilter)
	fw.AddFilter(watcher.NoDistFilter(s.config.Paths.Dist))
	fw.AddFilter(s.inputFilter(dirs, files))

	for _, path := range append(append([]string{}, dirs...), files...) {
		if err := fw.AddPath(path); err != nil {
			s.logger.Warn(ctx, err, "Cannot watch input", "path", path)
		}
	}
	if len(fw.WatchList()) == 0 {
		return fmt.Errorf("none of the inputs can be watched")
	}

	s.mu.Lock()
	s.rebuild(ctx, opts, "initial build", dirs, files)
	s.mu.Unlock()

	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		for _, event := range events {
			s.logger.Debug(ctx, "Input changed", "path", event.Path, "type", event.Type.String())
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.unchanged(ctx, dirs, files) {
			s.logger.Debug(ctx, "Inputs unchanged, skipping rebuild", "events", len(events))
			return nil
		}
		s.rebuild(ctx, opts, fmt.Sprintf("%d change(s)", len(events)), dirs, files)
		return nil
	})
	if err := fw.Start(ctx); err != nil {
		return err
	}
	s.logger.Info(ctx, "Watching for changes", "dirs", fw.WatchList())

	<-ctx.Done()

	return nil
}

// Serve runs Watch and the preview server together and publishes every
// build to the connected browsers.
func (s *ServeService) Serve(ctx context.Context, opts ServeOptions) error {
	srv := server.New(s.config, s.logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	onBuild := opts.OnBuild
	opts.OnBuild = func(result *BuildResult, err error) {
		srv.PublishBuild(buildStatus(result, err))
		if onBuild != nil {
			onBuild(result, err)
		}
	}

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- s.Watch(ctx, opts)
	}()

	serveErr := srv.Start(ctx)
	cancel()
	if err := <-watchErr; err != nil && serveErr == nil {
		return err
	}

	return serveErr
}

// rebuild runs a build and, when it succeeds, records the inputs as they
// are afterwards, including the renames the build itself made. The caller
// holds s.mu.
func (s *ServeService) rebuild(ctx context.Context, opts ServeOptions, reason string, dirs, files []string) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Info(ctx, "Rebuilding", "reason", reason)
	result, err := s.builder.Build(ctx)

	s.built = ""
	if err == nil {
		fingerprint, fpErr := s.hashes.Fingerprint(dirs, files)
		if fpErr != nil {
			s.logger.Warn(ctx, fpErr, "Cannot fingerprint inputs")
		}
		s.built = fingerprint
	}
	if opts.OnBuild != nil {
		opts.OnBuild(result, err)
	}
}

func (s *ServeService) unchanged(ctx context.Context, dirs, files []string) bool {
	if s.built == "" {
		return false
	}
	fingerprint, err := s.hashes.Fingerprint(dirs, files)
	if err != nil {
		s.logger.Warn(ctx, err, "Cannot fingerprint inputs")
		return false
	}

	return fingerprint == s.built
}

// inputFilter accepts SVG files in the watched folders, templates in the
// override folder and the exact metadata files.
func (s *ServeService) inputFilter(dirs, files []string) watcher.FileFilter {
	svgs := watcher.InputFilter(dirs[:1], files)
	templates := ""
	if s.config.Paths.Templates != "" {
		templates, _ = filepath.Abs(s.config.Paths.Templates)
	}

	return func(path string) bool {
		if svgs(path) {
			return true
		}
		if templates == "" {
			return false
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return false
		}
		rel, err := filepath.Rel(templates, abs)

		return err == nil && !strings.HasPrefix(rel, ".")
	}
}

func buildStatus(result *BuildResult, err error) server.BuildStatus {
	status := server.BuildStatus{Success: err == nil}
	if result != nil {
		status.Files = len(result.Files())
		status.Duration = result.Duration
	}
	if err != nil {
		status.Error = err.Error()
	}

	return status
}
