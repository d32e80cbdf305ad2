package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/iconforge/internal/config"
	"github.com/conneroisu/iconforge/internal/registry"
)

func TestInitService_InitProject(t *testing.T) {
	tests := []struct {
		name      string
		opts      InitOptions
		wantIcons int
		wantFile  string
	}{
		{"default", InitOptions{}, 2, "icons"},
		{"minimal", InitOptions{Minimal: true}, 0, "icons"},
		{"named", InitOptions{Name: "Acme Icons", Prefix: "acme"}, 2, "acme-icons"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.ProjectDir = filepath.Join(t.TempDir(), "project")
			require.NoError(t, NewInitService().InitProject(tt.opts))

			reg, err := registry.Load(
				filepath.Join(tt.opts.ProjectDir, "meta.json"),
				filepath.Join(tt.opts.ProjectDir, "font-build.json"))
			require.NoError(t, err)
			assert.Equal(t, tt.wantIcons, reg.Len())
			assert.Equal(t, tt.wantFile, reg.Config().FileName)
			assert.Equal(t, "0.1.0", reg.Config().Version.String())
			assert.DirExists(t, filepath.Join(tt.opts.ProjectDir, "svg"))
			assert.FileExists(t, filepath.Join(tt.opts.ProjectDir, ConfigFileName))
		})
	}
}

func TestInitService_RefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	service := NewInitService()
	require.NoError(t, service.InitProject(InitOptions{ProjectDir: dir}))

	err := service.InitProject(InitOptions{ProjectDir: dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	assert.NoError(t, service.InitProject(InitOptions{ProjectDir: dir, Force: true, Minimal: true}))

	assert.Error(t, service.InitProject(InitOptions{}))
}

func TestInitService_ConfigFileLoads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewInitService().InitProject(InitOptions{ProjectDir: dir}))

	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, ConfigFileName))
	require.NoError(t, v.ReadInConfig())

	cfg, err := config.LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPort, cfg.Serve.Port)
	assert.Equal(t, config.DefaultDebounce, cfg.Serve.Debounce)
	assert.Equal(t, config.DefaultDist, cfg.Paths.Dist)
}

func TestInitService_ScaffoldBuilds(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewInitService().InitProject(InitOptions{ProjectDir: dir, Prefix: "acme"}))

	cfg := &config.Config{
		Paths: config.PathsConfig{
			Dir:  dir,
			Meta: filepath.Join(dir, "meta.json"),
			Font: filepath.Join(dir, "font-build.json"),
			SVG:  filepath.Join(dir, "svg"),
			Dist: filepath.Join(dir, "dist"),
		},
		Build: config.BuildConfig{Mode: "webfont"},
		Font:  config.FontConfig{EmHeight: 512, Descent: 64},
	}
	service, _ := newTestBuild(cfg, &stubCompiler{})

	result, err := service.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Renamed, 1)
	assert.Equal(t, "arrow-up", result.Renamed[0].Name)

	_, err = os.Stat(filepath.Join(dir, "dist", "fonts", "acme-icons-webfont.woff2"))
	assert.NoError(t, err)
}
