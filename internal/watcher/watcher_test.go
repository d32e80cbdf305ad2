package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestNewFileWatcher(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NotNil(t, watcher.watcher)
	assert.NotNil(t, watcher.debouncer)
	assert.Empty(t, watcher.filters)
	assert.Empty(t, watcher.handlers)
}

func TestFileWatcherAddPath(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	dir := t.TempDir()
	svgDir := filepath.Join(dir, "svg")
	require.NoError(t, os.MkdirAll(svgDir, 0o755))
	meta := filepath.Join(dir, "meta.json")
	require.NoError(t, os.WriteFile(meta, []byte("[]"), 0o644))

	assert.NoError(t, watcher.AddPath(svgDir))
	assert.NoError(t, watcher.AddPath(meta))
	assert.ElementsMatch(t, []string{dir, svgDir}, watcher.WatchList())

	assert.Error(t, watcher.AddPath(filepath.Join(dir, "missing")))
	assert.Error(t, watcher.AddPath(""))
}

func TestFileWatcherDebouncesBatch(t *testing.T) {
	watcher, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	dir := t.TempDir()
	require.NoError(t, watcher.AddPath(dir))
	watcher.AddFilter(SVGFilter)

	var mu sync.Mutex
	var batches [][]ChangeEvent
	watcher.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		batches = append(batches, events)
		mu.Unlock()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	for _, name := range []string{"uF101-home.svg", "uF102-close.svg", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("<svg/>"), 0o644))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) > 0
	}, 2*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	var paths []string
	for _, batch := range batches {
		for _, event := range batch {
			paths = append(paths, filepath.Base(event.Path))
		}
	}
	assert.Contains(t, paths, "uF101-home.svg")
	assert.Contains(t, paths, "uF102-close.svg")
	assert.NotContains(t, paths, "notes.txt")
}

func TestDebouncerFlushDeduplicates(t *testing.T) {
	d := &Debouncer{
		delay:  time.Hour,
		output: make(chan []ChangeEvent, 1),
	}
	d.pending = []ChangeEvent{
		{Type: EventTypeCreated, Path: "b.svg"},
		{Type: EventTypeModified, Path: "a.svg"},
		{Type: EventTypeModified, Path: "b.svg"},
	}

	d.flush()

	events := <-d.output
	require.Len(t, events, 2)
	assert.Equal(t, "a.svg", events[0].Path)
	assert.Equal(t, "b.svg", events[1].Path)
	assert.Equal(t, EventTypeModified, events[1].Type)
	assert.Empty(t, d.pending)
}

func TestSVGFilter(t *testing.T) {
	testCases := []struct {
		path     string
		expected bool
	}{
		{"svg/uF101-home.svg", true},
		{"svg/HOME.SVG", true},
		{"meta.json", false},
		{"svg/home.svg.bak", false},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.expected, SVGFilter(tc.path))
		})
	}
}

func TestInputFilter(t *testing.T) {
	dir := t.TempDir()
	svgDir := filepath.Join(dir, "svg")
	meta := filepath.Join(dir, "meta.json")
	filter := InputFilter([]string{svgDir}, []string{meta, filepath.Join(dir, ".iconforge.yml")})

	testCases := []struct {
		name     string
		path     string
		expected bool
	}{
		{"svg in folder", filepath.Join(svgDir, "uF101-home.svg"), true},
		{"non svg in folder", filepath.Join(svgDir, "README.md"), false},
		{"svg in subfolder", filepath.Join(svgDir, "old", "home.svg"), false},
		{"icon list", meta, true},
		{"tool config", filepath.Join(dir, ".iconforge.yml"), true},
		{"unrelated json", filepath.Join(dir, "package.json"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, filter(tc.path))
		})
	}
}

func TestNoDistFilter(t *testing.T) {
	filter := NoDistFilter("dist")

	assert.False(t, filter("dist"))
	assert.False(t, filter(filepath.Join("dist", "css", "icons.css")))
	assert.True(t, filter(filepath.Join("distribution", "icons.svg")))
	assert.True(t, filter(filepath.Join("svg", "uF101-home.svg")))
}

func TestNoSwapFilter(t *testing.T) {
	testCases := []struct {
		path     string
		expected bool
	}{
		{"meta.json", true},
		{".iconforge.yml", true},
		{"meta.json~", false},
		{".#meta.json", false},
		{".meta.json.swp", false},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.expected, NoSwapFilter(tc.path))
		})
	}
}
