package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/iconforge/internal/config"
	"github.com/conneroisu/iconforge/internal/errors"
	"github.com/conneroisu/iconforge/internal/registry"
)

// ConfigFileName is the tool configuration written by InitProject.
const ConfigFileName = ".iconforge.yml"

// InitService scaffolds a new icon project.
type InitService struct{}

// NewInitService creates a new initialization service
func NewInitService() *InitService {
	return &InitService{}
}

// InitOptions contains options for project initialization
type InitOptions struct {
	ProjectDir string
	// Name is the display name of the icon package; the prefix and file
	// names are derived from it when empty.
	Name   string
	Prefix string
	// Minimal skips the example icons.
	Minimal bool
	// Force overwrites existing metadata files.
	Force bool
}

// exampleIcons are written unless Minimal is set. The second one uses the
// legacy file name so the first build shows the rename.
var exampleIcons = []struct {
	entry    registry.IconEntry
	fileName string
	path     string
}{
	{
		entry:    registry.IconEntry{Name: "square", Codepoint: "F101", Version: "0.1.0", Tags: []string{"shape"}},
		fileName: "uF101-square.svg",
		path:     "M3,3H21V21H3V3Z",
	},
	{
		entry:    registry.IconEntry{Name: "arrow-up", Codepoint: "F102", Version: "0.1.0", Aliases: []string{"up"}},
		fileName: "arrow-up.svg",
		path:     "M13,20H11V8L5.5,13.5L4.08,12.08L12,4.16L19.92,12.08L18.5,13.5L13,8V20Z",
	},
}

// InitProject writes meta.json, font-build.json, the svg folder and a
// .iconforge.yml into opts.ProjectDir.
func (s *InitService) InitProject(opts InitOptions) error {
	if err := s.validateProjectDirectory(opts); err != nil {
		return err
	}

	svgDir := filepath.Join(opts.ProjectDir, config.DefaultSVGDir)
	if err := os.MkdirAll(svgDir, 0o755); err != nil {
		return errors.NewIOError("CREATE_DIR", fmt.Sprintf("cannot create %q", svgDir), err)
	}

	if err := s.createBuildConfig(opts); err != nil {
		return err
	}

	icons := []registry.IconEntry{}
	if !opts.Minimal {
		for _, icon := range exampleIcons {
			path := filepath.Join(svgDir, icon.fileName)
			if err := os.WriteFile(path, []byte(exampleSVG(icon.path)), 0o644); err != nil {
				return errors.NewIOError("CREATE_ICON", fmt.Sprintf("cannot write %q", path), err)
			}
			icons = append(icons, icon.entry)
		}
	}
	if err := writeJSON(filepath.Join(opts.ProjectDir, config.DefaultMetaFile), icons); err != nil {
		return err
	}

	return s.createConfigFile(opts.ProjectDir)
}

// validateProjectDirectory creates the project directory and refuses to
// overwrite an existing project unless forced.
func (s *InitService) validateProjectDirectory(opts InitOptions) error {
	if opts.ProjectDir == "" {
		return errors.NewValidationError("INVALID_DIR", "project directory must not be empty")
	}
	if err := os.MkdirAll(opts.ProjectDir, 0o755); err != nil {
		return errors.NewIOError("CREATE_DIR", fmt.Sprintf("cannot create %q", opts.ProjectDir), err)
	}
	if opts.Force {
		return nil
	}

	for _, name := range []string{config.DefaultMetaFile, config.DefaultFontFile} {
		path := filepath.Join(opts.ProjectDir, name)
		if _, err := os.Stat(path); err == nil {
			return errors.NewValidationError("PROJECT_EXISTS",
				fmt.Sprintf("%q already exists, use --force to overwrite", path))
		}
	}

	return nil
}

func (s *InitService) createBuildConfig(opts InitOptions) error {
	cfg := registry.DefaultBuildConfig()
	if opts.Name != "" {
		cfg.Name = opts.Name
		cfg.FontFamily = opts.Name
	}
	if opts.Prefix != "" {
		cfg.Prefix = opts.Prefix
		cfg.FileName = opts.Prefix + "-icons"
		cfg.FontName = opts.Prefix + "-icons"
	}
	cfg.Version = registry.Version{Major: 0, Minor: 1, Patch: 0}

	return writeJSON(filepath.Join(opts.ProjectDir, config.DefaultFontFile), cfg)
}

// createConfigFile writes the tool defaults so they can be edited in place.
func (s *InitService) createConfigFile(projectDir string) error {
	path := filepath.Join(projectDir, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	cfg := config.Config{
		Paths: config.PathsConfig{Dist: config.DefaultDist},
		Build: config.BuildConfig{Mode: config.DefaultMode},
		Font:  config.FontConfig{EmHeight: config.DefaultEmHeight, Descent: config.DefaultDescent},
		Style: config.StyleConfig{Compiler: config.DefaultCompiler},
		Serve: config.ServeConfig{Host: config.DefaultHost, Port: config.DefaultPort, Debounce: config.DefaultDebounce},
		Log:   config.LogConfig{Level: config.DefaultLogLevel, Format: config.DefaultLogFormat},
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.NewIOError("ENCODE_CONFIG", "cannot encode configuration", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewIOError("WRITE_CONFIG", fmt.Sprintf("cannot write %q", path), err)
	}

	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.NewIOError("ENCODE_JSON", fmt.Sprintf("cannot encode %q", path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.NewIOError("WRITE_JSON", fmt.Sprintf("cannot write %q", path), err)
	}

	return nil
}

func exampleSVG(d string) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24"><path d="%s"/></svg>`+"\n", d)
}
