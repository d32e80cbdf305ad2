package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/iconforge/internal/errors"
)

func TestServeService_WatchInputs(t *testing.T) {
	cfg := setupProject(t)
	service := NewServeService(cfg, nil, nil)

	dirs, files := service.WatchInputs(ServeOptions{})
	assert.Equal(t, []string{cfg.Paths.SVG}, dirs)
	assert.Equal(t, []string{cfg.Paths.Meta, cfg.Paths.Font}, files)

	cfg.Paths.Templates = filepath.Join(cfg.Paths.Dir, "templates")
	dirs, files = service.WatchInputs(ServeOptions{ConfigFile: ".iconforge.yml"})
	assert.Equal(t, []string{cfg.Paths.SVG, cfg.Paths.Templates, filepath.Join(cfg.Paths.Templates, "scss")}, dirs)
	assert.Contains(t, files, ".iconforge.yml")
}

func TestServeService_InputFilter(t *testing.T) {
	cfg := setupProject(t)
	cfg.Paths.Templates = filepath.Join(cfg.Paths.Dir, "templates")
	service := NewServeService(cfg, nil, nil)
	dirs, files := service.WatchInputs(ServeOptions{})
	filter := service.inputFilter(dirs, files)

	assert.True(t, filter(filepath.Join(cfg.Paths.SVG, "uF103-star.svg")))
	assert.True(t, filter(cfg.Paths.Meta))
	assert.True(t, filter(filepath.Join(cfg.Paths.Templates, "scss", "_core.scss")))
	assert.False(t, filter(filepath.Join(cfg.Paths.Dir, "README.md")))
	assert.False(t, filter(filepath.Join(cfg.Paths.Dist, "index.html")))
}

func TestBuildStatus(t *testing.T) {
	status := buildStatus(&BuildResult{Fonts: []string{"a.ttf", "a.woff"}, Duration: time.Second}, nil)
	assert.True(t, status.Success)
	assert.Equal(t, 2, status.Files)
	assert.Equal(t, time.Second, status.Duration)

	status = buildStatus(nil, errors.NewFontError("no icons", nil))
	assert.False(t, status.Success)
	assert.Contains(t, status.Error, "FONT_EMIT_FAILURE")
}

func TestServeService_WatchRebuildsOnChange(t *testing.T) {
	cfg := setupProject(t)
	cfg.Serve.Debounce = 50 * time.Millisecond
	build, _ := newTestBuild(cfg, &stubCompiler{})
	service := NewServeService(cfg, build, nil)

	var mu sync.Mutex
	var builds []error
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- service.Watch(ctx, ServeOptions{OnBuild: func(_ *BuildResult, err error) {
			mu.Lock()
			builds = append(builds, err)
			mu.Unlock()
		}})
	}()

	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(builds)
	}
	require.Eventually(t, func() bool { return count() >= 1 }, 5*time.Second, 20*time.Millisecond)

	// Let the events caused by the initial rename settle.
	time.Sleep(300 * time.Millisecond)
	before := count()

	star := `[
  {"name": "home", "codepoint": "F101"},
  {"name": "close", "codepoint": "F102"},
  {"name": "star", "codepoint": "F103"}
]`
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Paths.SVG, "star.svg"), []byte(squareSVG), 0o644))
	require.NoError(t, os.WriteFile(cfg.Paths.Meta, []byte(star), 0o644))

	require.Eventually(t, func() bool { return count() > before }, 5*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(cfg.Paths.SVG, "uF103-star.svg"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.NoError(t, builds[0])
}

func TestServeService_SkipsUnchangedInputs(t *testing.T) {
	cfg := setupProject(t)
	build, _ := newTestBuild(cfg, &stubCompiler{})
	service := NewServeService(cfg, build, nil)
	dirs, files := service.WatchInputs(ServeOptions{})
	ctx := context.Background()

	assert.False(t, service.unchanged(ctx, dirs, files), "nothing built yet")

	var results []error
	opts := ServeOptions{OnBuild: func(_ *BuildResult, err error) { results = append(results, err) }}
	service.rebuild(ctx, opts, "test", dirs, files)
	require.Len(t, results, 1)
	require.NoError(t, results[0])

	// The rename done by the build is already part of the recorded inputs.
	assert.True(t, service.unchanged(ctx, dirs, files))

	require.NoError(t, os.WriteFile(filepath.Join(cfg.Paths.SVG, "uF101-home.svg"), []byte(squareSVG+"\n"), 0o644))
	assert.False(t, service.unchanged(ctx, dirs, files))

	require.NoError(t, os.Remove(filepath.Join(cfg.Paths.SVG, "uF102-close.svg")))
	service.rebuild(ctx, opts, "test", dirs, files)
	require.Len(t, results, 2)
	require.Error(t, results[1])
	assert.False(t, service.unchanged(ctx, dirs, files), "failed builds are never skipped")
}
