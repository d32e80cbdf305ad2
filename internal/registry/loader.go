package registry

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/iconforge/internal/errors"
)

// DefaultIconPath is the glyph shown for the package itself when the build
// config does not name one: a filled square in a 24x24 box.
const DefaultIconPath = "M3,3H21V21H3V3Z"

// DefaultBuildConfig returns the values applied before a build config file is merged.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		Name:       "Icons",
		Prefix:     "icon",
		FileName:   "icons",
		FontName:   "icons",
		FontFamily: "Icons",
		FontWeight: "normal",
		Website:    "example.com",
		Icon:       DefaultIconPath,
	}
}

// Registry is the loaded, validated pair of icon list and build config.
// It is read-only after Load.
type Registry struct {
	icons      []IconEntry
	config     BuildConfig
	metaPath   string
	configPath string
}

// NameCodepoint is one entry of the ordered name to codepoint table.
type NameCodepoint struct {
	Name      string
	Codepoint string
}

// Load reads and validates the icon list and the build config.
func Load(metaPath, configPath string) (*Registry, error) {
	cfg, err := LoadBuildConfig(configPath)
	if err != nil {
		return nil, err
	}

	icons, err := LoadIcons(metaPath)
	if err != nil {
		return nil, err
	}

	return New(icons, *cfg, metaPath, configPath)
}

// New builds a Registry from already decoded values and validates it.
func New(icons []IconEntry, cfg BuildConfig, metaPath, configPath string) (*Registry, error) {
	r := &Registry{
		icons:      make([]IconEntry, len(icons)),
		config:     cfg,
		metaPath:   metaPath,
		configPath: configPath,
	}
	copy(r.icons, icons)

	if err := validateIcons(r.icons); err != nil {
		return nil, errors.NewConfigParseError(metaPath, "invalid icon list", err)
	}
	if err := validateBuildConfig(&r.config); err != nil {
		return nil, errors.NewConfigParseError(configPath, "invalid build config", err)
	}

	return r, nil
}

// LoadIcons parses an icon list file.
func LoadIcons(path string) ([]IconEntry, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}

	var icons []IconEntry
	if err := decode(path, data, &icons); err != nil {
		return nil, errors.NewConfigParseError(path, "icon list is not valid structured data", err)
	}

	return icons, nil
}

// LoadBuildConfig parses a build config file on top of DefaultBuildConfig.
// Values present in the file win; absent fields keep their defaults.
func LoadBuildConfig(path string) (*BuildConfig, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultBuildConfig()
	if err := decode(path, data, &cfg); err != nil {
		return nil, errors.NewConfigParseError(path, "build config is not valid structured data", err)
	}
	applyDerivedDefaults(&cfg)

	return &cfg, nil
}

// applyDerivedDefaults fills the fields whose defaults depend on other fields.
func applyDerivedDefaults(cfg *BuildConfig) {
	if cfg.NpmFont == "" {
		cfg.NpmFont = cfg.FileName + "-font"
	}
	if cfg.NpmJS == "" {
		cfg.NpmJS = cfg.FileName + "-js"
	}
	if cfg.NpmSVG == "" {
		cfg.NpmSVG = cfg.FileName + "-svg"
	}
	if cfg.Icon == "" {
		cfg.Icon = DefaultIconPath
	}
	if cfg.FontWeight == "" {
		cfg.FontWeight = "normal"
	}
}

func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewMissingInputError(path, err)
		}
		return nil, errors.NewIOError("READ_INPUT", fmt.Sprintf("cannot read %q", path), err)
	}

	return data, nil
}

func decode(path string, data []byte, v interface{}) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("file is empty")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, v)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(v); err != nil {
			return err
		}
		if dec.More() {
			return fmt.Errorf("unexpected data after the top-level value")
		}
		return nil
	}
}

func validateIcons(icons []IconEntry) error {
	names := make(map[string]struct{}, len(icons))
	codepoints := make(map[rune]string, len(icons))

	for i, icon := range icons {
		if icon.Name == "" {
			return fmt.Errorf("entry %d has no name", i)
		}
		if strings.ContainsAny(icon.Name, `/\`) {
			return fmt.Errorf("icon %q: name must not contain path separators", icon.Name)
		}
		if _, dup := names[icon.Name]; dup {
			return fmt.Errorf("duplicate icon name %q", icon.Name)
		}
		names[icon.Name] = struct{}{}

		cp, err := icon.Rune()
		if err != nil {
			return fmt.Errorf("icon %q: %w", icon.Name, err)
		}
		if other, dup := codepoints[cp]; dup {
			return fmt.Errorf("icons %q and %q share codepoint %s", other, icon.Name, icon.Codepoint)
		}
		codepoints[cp] = icon.Name
	}

	return nil
}

func validateBuildConfig(cfg *BuildConfig) error {
	required := map[string]string{
		"prefix":   cfg.Prefix,
		"fileName": cfg.FileName,
		"fontName": cfg.FontName,
	}
	for _, key := range []string{"prefix", "fileName", "fontName"} {
		if strings.TrimSpace(required[key]) == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
	}
	if strings.ContainsAny(cfg.FileName, `/\`) {
		return fmt.Errorf("fileName %q must not contain path separators", cfg.FileName)
	}
	if cfg.Version.Major < 0 || cfg.Version.Minor < 0 || cfg.Version.Patch < 0 {
		return fmt.Errorf("version %s must not contain negative numbers", cfg.Version)
	}

	return nil
}

// Icons returns a copy of the icon list in file order.
func (r *Registry) Icons() []IconEntry {
	result := make([]IconEntry, len(r.icons))
	copy(result, r.icons)

	return result
}

// Len returns the number of icons.
func (r *Registry) Len() int {
	return len(r.icons)
}

// Config returns the merged build config.
func (r *Registry) Config() BuildConfig {
	return r.config
}

// MetaPath returns the path the icon list was read from.
func (r *Registry) MetaPath() string {
	return r.metaPath
}

// ConfigPath returns the path the build config was read from.
func (r *Registry) ConfigPath() string {
	return r.configPath
}

// CodepointMap returns the name to codepoint table in registry order.
func (r *Registry) CodepointMap() []NameCodepoint {
	table := make([]NameCodepoint, 0, len(r.icons))
	for _, icon := range r.icons {
		table = append(table, NameCodepoint{Name: icon.Name, Codepoint: icon.Codepoint})
	}

	return table
}
