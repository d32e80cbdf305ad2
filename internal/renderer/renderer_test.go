package renderer

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/iconforge/internal/errors"
	"github.com/conneroisu/iconforge/internal/layout"
	"github.com/conneroisu/iconforge/internal/registry"
)

func testConfig() registry.BuildConfig {
	cfg := registry.DefaultBuildConfig()
	cfg.Name = "X Icons"
	cfg.Prefix = "xi"
	cfg.FileName = "xicons"
	cfg.FontName = "xicons"
	cfg.FontFamily = "X Icons"
	cfg.FontWeight = "400"
	cfg.Version = registry.Version{Major: 1, Minor: 2, Patch: 3}
	cfg.Website = "icons.example.org"
	cfg.NpmFont = "@x/font"
	cfg.NpmJS = "@x/js"
	cfg.NpmSVG = "@x/svg"
	date := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg.Date = &date

	return cfg
}

func testRegistry(t *testing.T, icons ...registry.IconEntry) *registry.Registry {
	t.Helper()
	if icons == nil {
		icons = []registry.IconEntry{
			{Name: "home", Codepoint: "f001", Version: "1.0.0", Tags: []string{"house"}},
			{Name: "star-outline", Codepoint: "f002", Aliases: []string{"favorite"}},
		}
	}
	reg, err := registry.New(icons, testConfig(), "meta.json", "font-build.json")
	require.NoError(t, err)

	return reg
}

func TestRenderSubstitutesTokens(t *testing.T) {
	vars := NewVars(testConfig())

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{"prefix", ".prefix-home", ".xi-home"},
		{"package name", "<h1>packageName</h1>", "<h1>X Icons</h1>"},
		{"file name", "css/fileName.min.css", "css/xicons.min.css"},
		{"font tokens", "fontName|fontFamily|fontWeight", "xicons|X Icons|400"},
		{"npm tokens", "npmFont npmJS npmSVG", "@x/font @x/js @x/svg"},
		{"website", "https://domain.com/", "https://icons.example.org/"},
		{"version", "v-.-.-", "v1.2.3"},
		{"version wildcard", "a-x-y-b", "a1.2.3b"},
		{"no tokens", "plain text", "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Render(tt.template, vars))
		})
	}
}

func TestRenderDoesNotRescanReplacements(t *testing.T) {
	cfg := testConfig()
	cfg.Name = "fontName prefix"
	vars := NewVars(cfg)

	assert.Equal(t, "fontName prefix/xi", Render("packageName/prefix", vars))
}

func TestRenderSCSSPrefixCollision(t *testing.T) {
	cfg := testConfig()
	cfg.Prefix = "x"
	vars := NewVars(cfg)

	out := RenderSCSS("$prefix-css-prefix: prefix !default;\n.x-css-x {}", vars)

	assert.Contains(t, out, "$x-css-prefix: x !default;")
	assert.Contains(t, out, ".x-css-prefix {}")
	assert.NotContains(t, out, "x-css-x")
}

func TestReplaceIconsMap(t *testing.T) {
	table := []registry.NameCodepoint{{Name: "home", Codepoint: "f001"}, {Name: "star", Codepoint: "1e00"}}

	out := ReplaceIconsMap("$xi-icons: () !default;", table)

	assert.Equal(t, "$xi-icons: (\n  \"home\": \"F001\",\n  \"star\": \"1E00\"\n) !default;", out)
	assert.Equal(t, "$xi-icons: () !default;", ReplaceIconsMap("$xi-icons: () !default;", nil))
}

func TestReplaceDate(t *testing.T) {
	date := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	out := ReplaceDate("var date = null;\nvar other = null;", date)

	assert.Equal(t, "var date = new Date(\"2024-03-01T12:00:00Z\");\nvar other = null;", out)
}

func TestReplaceIconsList(t *testing.T) {
	out, err := ReplaceIconsList("var icons = [];", []IconRecord{{Name: "home", Title: "Home", Hex: "f001"}})
	require.NoError(t, err)
	assert.Equal(t, `var icons = [{"name":"home","title":"Home","hex":"f001"}];`, out)

	out, err = ReplaceIconsList("var icons = [];", nil)
	require.NoError(t, err)
	assert.Equal(t, "var icons = [];", out)
}

func TestExtractPathData(t *testing.T) {
	tests := []struct {
		name    string
		svg     string
		d       string
		viewBox string
		wantErr bool
	}{
		{
			name:    "single path",
			svg:     `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16"><path d="M0 0H16V16Z"/></svg>`,
			d:       "M0 0H16V16Z",
			viewBox: "0 0 16 16",
		},
		{
			name:    "multiple paths joined",
			svg:     `<?xml version="1.0"?><svg><g><path d="M1 1Z"/></g><path d="M2 2Z"/></svg>`,
			d:       "M1 1Z M2 2Z",
			viewBox: DefaultViewBox,
		},
		{
			name:    "empty d ignored",
			svg:     `<svg><path d=""/><path d="M3 3Z"/></svg>`,
			d:       "M3 3Z",
			viewBox: DefaultViewBox,
		},
		{
			name:    "no path",
			svg:     `<svg><rect width="10" height="10"/></svg>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := ExtractPathData(strings.NewReader(tt.svg))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.d, data.D)
			assert.Equal(t, tt.viewBox, data.ViewBox)
		})
	}
}

func TestNewRecordsTitles(t *testing.T) {
	records, err := NewRecords([]registry.IconEntry{{Name: "star-outline", Codepoint: "f002", Deprecated: true}}, "")
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "Star Outline", records[0].Title)
	assert.True(t, records[0].Deprecated)
	assert.Empty(t, records[0].Data)
}

func TestWriteIndexWebfont(t *testing.T) {
	out, err := layout.Ensure(filepath.Join(t.TempDir(), "dist"))
	require.NoError(t, err)
	reg := testRegistry(t)

	r := New(reg, out, Options{})
	path, err := r.WriteIndex(context.Background(), reg.Icons())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "<title>X Icons 1.2.3</title>")
	assert.Contains(t, html, `href="css/xicons.min.css"`)
	assert.Contains(t, html, `"name":"home"`)
	assert.Contains(t, html, `"name":"star-outline"`)
	assert.Contains(t, html, "var classBase = 'xi';")
	assert.NotContains(t, html, "icons = []")
	assert.NotContains(t, html, "packageName")
}

func TestWriteIndexSVGMode(t *testing.T) {
	svgDir := t.TempDir()
	reg := testRegistry(t)
	for _, icon := range reg.Icons() {
		svg := `<svg viewBox="0 0 24 24"><path d="M` + icon.Codepoint + `Z"/></svg>`
		require.NoError(t, os.WriteFile(filepath.Join(svgDir, icon.CanonicalFileName()), []byte(svg), 0o644))
	}
	out, err := layout.Ensure(filepath.Join(t.TempDir(), "dist"))
	require.NoError(t, err)

	r := New(reg, out, Options{Mode: ModeSVG, SVGDir: svgDir})
	text, err := r.RenderIndex(reg.Icons())
	require.NoError(t, err)

	assert.Contains(t, text, `"data":"Mf001Z"`)
	assert.Contains(t, text, `var date = new Date("2024-03-01T12:00:00Z");`)
	assert.Contains(t, text, "npm install @x/svg")
}

func TestWriteIndexSVGModeMissingPathData(t *testing.T) {
	svgDir := t.TempDir()
	reg := testRegistry(t, registry.IconEntry{Name: "broken", Codepoint: "f010"})
	require.NoError(t, os.WriteFile(filepath.Join(svgDir, "uf010-broken.svg"), []byte(`<svg><circle r="4"/></svg>`), 0o644))
	out, err := layout.Ensure(filepath.Join(t.TempDir(), "dist"))
	require.NoError(t, err)

	r := New(reg, out, Options{Mode: ModeSVG, SVGDir: svgDir})
	_, err = r.WriteIndex(context.Background(), reg.Icons())

	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrSvgDataMalformed))
	assert.True(t, errors.IsFatal(err))
	_, statErr := os.Stat(out.IndexFile())
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteSCSS(t *testing.T) {
	out, err := layout.Ensure(filepath.Join(t.TempDir(), "dist"))
	require.NoError(t, err)
	reg := testRegistry(t)

	r := New(reg, out, Options{})
	written, err := r.WriteSCSS(context.Background())
	require.NoError(t, err)
	require.Len(t, written, len(Partials)+1)
	assert.Equal(t, out.SCSSEntry("xicons"), written[0])

	variables, err := os.ReadFile(out.SCSSPartial("variables"))
	require.NoError(t, err)
	text := string(variables)
	assert.Contains(t, text, `$xi-filename: "xicons" !default;`)
	assert.Contains(t, text, `$xi-css-prefix: xi !default;`)
	assert.Contains(t, text, `$xi-version: "1.2.3" !default;`)
	assert.Contains(t, text, "$xi-icons: (\n  \"home\": \"F001\",\n  \"star-outline\": \"F002\"\n) !default;")

	core, err := os.ReadFile(out.SCSSPartial("core"))
	require.NoError(t, err)
	assert.Contains(t, string(core), ".#{$xi-css-prefix}:before")

	entry, err := os.ReadFile(out.SCSSEntry("xicons"))
	require.NoError(t, err)
	assert.Contains(t, string(entry), `@import "variables";`)
	assert.Contains(t, string(entry), "https://icons.example.org")
}

func TestTemplateOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scss"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scss", "_core.scss"), []byte("/* custom prefix */"), 0o644))

	set := NewTemplateSet(dir)

	text, err := set.Read(PartialTemplate("core"))
	require.NoError(t, err)
	assert.Equal(t, "/* custom prefix */", text)

	text, err = set.Read(PartialTemplate("icons"))
	require.NoError(t, err)
	assert.Contains(t, text, "@each $key, $value in $prefix-icons")

	_, err = set.Read("missing.html")
	assert.Error(t, err)
}

func TestEmbeddedTemplates(t *testing.T) {
	scss, err := fs.Glob(embedded, "templates/scss/*.scss")
	require.NoError(t, err)
	assert.Len(t, scss, len(Partials)+1)

	set := NewTemplateSet("")
	for _, name := range append([]string{IndexTemplate, IndexSVGTemplate, "scss/" + SCSSTemplate}, partialTemplates()...) {
		text, err := set.Read(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, text, name)
	}
}

func partialTemplates() []string {
	names := make([]string, 0, len(Partials))
	for _, p := range Partials {
		names = append(names, PartialTemplate(p))
	}

	return names
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input    string
		expected Mode
		wantErr  bool
	}{
		{"", ModeWebfont, false},
		{"webfont", ModeWebfont, false},
		{"SVG", ModeSVG, false},
		{"png", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ParseMode(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, mode)
		})
	}
}
