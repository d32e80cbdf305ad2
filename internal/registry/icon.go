// Package registry loads the two metadata inputs of a font build: the icon
// list (meta.json) and the build parameters (font-build.json).
package registry

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// IconEntry is one icon of the icon list.
type IconEntry struct {
	ID         string   `json:"id,omitempty" yaml:"id,omitempty"`
	Name       string   `json:"name" yaml:"name"`
	Codepoint  string   `json:"codepoint" yaml:"codepoint"`
	Version    string   `json:"version,omitempty" yaml:"version,omitempty"`
	Deprecated bool     `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	Aliases    []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Tags       []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Author     string   `json:"author,omitempty" yaml:"author,omitempty"`
}

// CanonicalFileName returns the font-generation file name u<codepoint>-<name>.svg.
func (e IconEntry) CanonicalFileName() string {
	return fmt.Sprintf("u%s-%s.svg", e.Codepoint, e.Name)
}

// LegacyFileName returns the pre-reconciliation file name <name>.svg.
func (e IconEntry) LegacyFileName() string {
	return e.Name + ".svg"
}

// Rune returns the code point as a rune.
func (e IconEntry) Rune() (rune, error) {
	return ParseCodepoint(e.Codepoint)
}

// ParseCodepoint parses a hexadecimal code point such as "F001" or "f0a3e".
func ParseCodepoint(hex string) (rune, error) {
	hex = strings.TrimPrefix(strings.TrimPrefix(hex, "U+"), "u")
	if hex == "" {
		return 0, fmt.Errorf("empty codepoint")
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid codepoint %q: %w", hex, err)
	}
	if v > 0x10FFFF {
		return 0, fmt.Errorf("codepoint %q is outside the Unicode range", hex)
	}

	return rune(v), nil
}

// Version is a semantic version triple.
type Version struct {
	Major int `json:"major" yaml:"major"`
	Minor int `json:"minor" yaml:"minor"`
	Patch int `json:"patch" yaml:"patch"`
}

// String returns major.minor.patch.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// BuildConfig holds the naming and versioning parameters of a font build.
type BuildConfig struct {
	Name       string     `json:"name" yaml:"name"`
	Prefix     string     `json:"prefix" yaml:"prefix"`
	FileName   string     `json:"fileName" yaml:"fileName"`
	FontName   string     `json:"fontName" yaml:"fontName"`
	FontFamily string     `json:"fontFamily" yaml:"fontFamily"`
	FontWeight FlexString `json:"fontWeight" yaml:"fontWeight"`
	Version    Version    `json:"version" yaml:"version"`
	Website    string     `json:"website" yaml:"website"`
	NpmFont    string     `json:"npmFont" yaml:"npmFont"`
	NpmJS      string     `json:"npmJS" yaml:"npmJS"`
	NpmSVG     string     `json:"npmSVG" yaml:"npmSVG"`
	Icon       string     `json:"icon" yaml:"icon"`
	Date       *time.Time `json:"date,omitempty" yaml:"date,omitempty"`
}

// BuildDate returns the configured date, or now when none was given.
func (c *BuildConfig) BuildDate() time.Time {
	if c.Date != nil && !c.Date.IsZero() {
		return *c.Date
	}

	return time.Now().UTC()
}

// FlexString is a string that also accepts a JSON or YAML number, so that
// "fontWeight": 400 and "fontWeight": "normal" both decode.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return fmt.Errorf("expected string or number, got %s", raw)
	}
	*f = FlexString(raw)

	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler for scalar values.
func (f *FlexString) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", value.Line)
	}
	*f = FlexString(value.Value)

	return nil
}

// String returns the raw value.
func (f FlexString) String() string {
	return string(f)
}
