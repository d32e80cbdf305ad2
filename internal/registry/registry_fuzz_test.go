package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// FuzzLoadIcons feeds arbitrary icon lists through the loader. Every list the
// registry accepts must yield unique names, unique code points and canonical file
// names that stay inside the SVG folder.
func FuzzLoadIcons(f *testing.F) {
	f.Add(`[{"name":"home","codepoint":"F101"}]`)
	f.Add(`[{"name":"home","codepoint":"F101"},{"name":"home","codepoint":"F102"}]`)
	f.Add(`[{"name":"a","codepoint":"f101"},{"name":"b","codepoint":"F101"}]`)
	f.Add(`[{"name":"../../etc/passwd","codepoint":"F101"}]`)
	f.Add(`[{"name":"x","codepoint":"110000"}]`)
	f.Add(`[{"name":"x","codepoint":"zz"}]`)
	f.Add(`[{"name":"unicode🎯","codepoint":"1F3AF","aliases":["target"]}]`)
	f.Add(`[]`)
	f.Add(`{`)

	f.Fuzz(func(t *testing.T, data string) {
		if len(data) > 50000 {
			t.Skip("icon list too large")
		}

		path := filepath.Join(t.TempDir(), "meta.json")
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}

		icons, err := LoadIcons(path)
		if err != nil {
			return
		}
		reg, err := New(icons, DefaultBuildConfig(), path, "")
		if err != nil {
			return
		}

		names := make(map[string]bool)
		codepoints := make(map[rune]bool)
		for _, icon := range reg.Icons() {
			if names[icon.Name] {
				t.Errorf("duplicate name %q accepted", icon.Name)
			}
			names[icon.Name] = true

			cp, err := icon.Rune()
			if err != nil {
				t.Errorf("accepted icon %q has invalid code point: %v", icon.Name, err)
				continue
			}
			if codepoints[cp] {
				t.Errorf("duplicate code point %U accepted", cp)
			}
			codepoints[cp] = true

			if strings.ContainsAny(icon.CanonicalFileName(), `/\`) {
				t.Errorf("canonical file name %q escapes the SVG folder", icon.CanonicalFileName())
			}
		}
	})
}
