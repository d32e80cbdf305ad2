package renderer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/conneroisu/iconforge/internal/registry"
)

// Render substitutes every placeholder of vars in text. The version pattern
// is applied first; the literal tokens are then replaced in a single pass, so
// replacement text is never scanned for further tokens.
func Render(text string, vars Vars) string {
	if version, ok := vars[VersionToken]; ok {
		text = versionPattern.ReplaceAllLiteralString(text, version)
	}

	return vars.replacer().Replace(text)
}

// RenderSCSS is Render followed by the SCSS post-processing rules.
func RenderSCSS(text string, vars Vars) string {
	return FixPrefixCollision(Render(text, vars), vars.Prefix())
}

// FixPrefixCollision rewrites <prefix>-css-<prefix> back to <prefix>-css-prefix.
// Templates name the class-prefix variable $prefix-css-prefix; substituting
// the prefix token turns both halves into the prefix value.
func FixPrefixCollision(text, prefix string) string {
	if prefix == "" {
		return text
	}

	return strings.ReplaceAll(text, prefix+"-css-"+prefix, prefix+"-css-"+TokenPrefix)
}

// ReplaceIconsList replaces the icons = [] marker with a JSON list literal.
func ReplaceIconsList(text string, records []IconRecord) (string, error) {
	if records == nil {
		records = []IconRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encoding icon list: %w", err)
	}

	return strings.ReplaceAll(text, IconsListMarker, "icons = "+string(data)), nil
}

// ReplaceDate replaces the var date = null; sentinel with a Date literal.
func ReplaceDate(text string, date time.Time) string {
	literal := fmt.Sprintf("var date = new Date(%q);", date.UTC().Format(time.RFC3339))

	return strings.ReplaceAll(text, DateMarker, literal)
}

// ReplaceIconsMap replaces the icons: () marker with a Sass map from icon
// name to codepoint, one entry per line in registry order.
func ReplaceIconsMap(text string, table []registry.NameCodepoint) string {
	return strings.ReplaceAll(text, IconsMapMarker, "icons: "+SassMap(table))
}

// SassMap formats table as a Sass map literal. Codepoints are quoted so that
// values such as 1E00 are not read as numbers.
func SassMap(table []registry.NameCodepoint) string {
	if len(table) == 0 {
		return "()"
	}

	entries := make([]string, 0, len(table))
	for _, entry := range table {
		entries = append(entries, fmt.Sprintf("  %q: %q", entry.Name, strings.ToUpper(entry.Codepoint)))
	}

	return "(\n" + strings.Join(entries, ",\n") + "\n)"
}
