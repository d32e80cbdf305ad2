package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultDir, cfg.Paths.Dir)
	assert.Equal(t, filepath.Join(DefaultDir, "meta.json"), cfg.Paths.Meta)
	assert.Equal(t, filepath.Join(DefaultDir, "font-build.json"), cfg.Paths.Font)
	assert.Equal(t, filepath.Join(DefaultDir, "svg"), cfg.Paths.SVG)
	assert.Equal(t, DefaultDist, cfg.Paths.Dist)
	assert.Equal(t, "webfont", cfg.Build.Mode)
	assert.False(t, cfg.Build.FontSVG)
	assert.False(t, cfg.Build.Lenient)
	assert.Equal(t, 512, cfg.Font.EmHeight)
	assert.Equal(t, 64, cfg.Font.Descent)
	assert.Equal(t, "sass", cfg.Style.Compiler)
	assert.Equal(t, "localhost", cfg.Serve.Host)
	assert.Equal(t, 8080, cfg.Serve.Port)
	assert.Equal(t, 300*time.Millisecond, cfg.Serve.Debounce)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadDerivesPathsFromDir(t *testing.T) {
	viper.Reset()
	viper.Set("paths.dir", "icons")
	viper.Set("paths.svg", "art/svg")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("icons", "meta.json"), cfg.Paths.Meta)
	assert.Equal(t, filepath.Join("icons", "font-build.json"), cfg.Paths.Font)
	assert.Equal(t, "art/svg", cfg.Paths.SVG)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".iconforge.yml")
	content := `paths:
  dist: out
build:
  mode: SVG
  font_svg: true
  lenient: true
font:
  em_height: 1024
  descent: 128
style:
  compiler: embedded
serve:
  port: 9000
  debounce: 1s
log:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.Paths.Dist)
	assert.Equal(t, "svg", cfg.Build.Mode)
	assert.True(t, cfg.Build.FontSVG)
	assert.True(t, cfg.Build.Lenient)
	assert.Equal(t, 1024, cfg.Font.EmHeight)
	assert.Equal(t, 128, cfg.Font.Descent)
	assert.Equal(t, "embedded", cfg.Style.Compiler)
	assert.Equal(t, 9000, cfg.Serve.Port)
	assert.Equal(t, time.Second, cfg.Serve.Debounce)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadZeroDescentIsKept(t *testing.T) {
	v := viper.New()
	v.Set("font.descent", 0)

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Font.Descent)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"unknown mode", "build.mode", "png"},
		{"unknown compiler", "style.compiler", "libsass"},
		{"negative port", "serve.port", -1},
		{"port too large", "serve.port", 70000},
		{"descent above em", "font.descent", 600},
		{"negative em height", "font.em_height", -5},
		{"dangerous host", "serve.host", "localhost;rm"},
		{"shell in sass binary", "style.sass_binary", "sass;rm -rf /"},
		{"unknown log format", "log.format", "xml"},
		{"non numeric port", "serve.port", "http"},
		{"output into the svg folder", "paths.dist", "./svg"},
		{"output into the root", "paths.dist", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)

			_, err := LoadFrom(v)
			assert.Error(t, err)
		})
	}
}
