// Package config provides configuration management for iconforge using Viper
// for flexible loading from files, environment variables, and command-line
// flags.
//
// Precedence is flags, then ICONFORGE_ environment variables, then the
// .iconforge.yml file, then the defaults applied by Load. The configuration
// covers the input and output paths of a build, the preview mode, the font
// em square, the style compiler and the preview server.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/iconforge/internal/validation"
)

// Defaults applied by Load for unset values.
const (
	DefaultDir        = "./"
	DefaultDist       = "./dist"
	DefaultMetaFile   = "meta.json"
	DefaultFontFile   = "font-build.json"
	DefaultSVGDir     = "svg"
	DefaultMode       = "webfont"
	DefaultCompiler   = "sass"
	DefaultEmHeight   = 512
	DefaultDescent    = 64
	DefaultHost       = "localhost"
	DefaultPort       = 8080
	DefaultDebounce   = 300 * time.Millisecond
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultSassBinary = "sass"
)

type Config struct {
	Paths PathsConfig `mapstructure:"paths" yaml:"paths"`
	Build BuildConfig `mapstructure:"build" yaml:"build"`
	Font  FontConfig  `mapstructure:"font" yaml:"font"`
	Style StyleConfig `mapstructure:"style" yaml:"style"`
	Serve ServeConfig `mapstructure:"serve" yaml:"serve"`
	Log   LogConfig   `mapstructure:"log" yaml:"log"`
}

// PathsConfig locates the inputs and the output tree. Meta, Font and SVG
// default to files below Dir.
type PathsConfig struct {
	Dir       string `mapstructure:"dir" yaml:"dir"`
	Meta      string `mapstructure:"meta" yaml:"meta"`
	Font      string `mapstructure:"font" yaml:"font"`
	SVG       string `mapstructure:"svg" yaml:"svg"`
	Dist      string `mapstructure:"dist" yaml:"dist"`
	Templates string `mapstructure:"templates" yaml:"templates"`
}

type BuildConfig struct {
	Mode             string `mapstructure:"mode" yaml:"mode"`
	FontSVG          bool   `mapstructure:"font_svg" yaml:"font_svg"`
	Lenient          bool   `mapstructure:"lenient" yaml:"lenient"`
	FailOnStyleError bool   `mapstructure:"fail_on_style_error" yaml:"fail_on_style_error"`
}

type FontConfig struct {
	EmHeight int `mapstructure:"em_height" yaml:"em_height"`
	Descent  int `mapstructure:"descent" yaml:"descent"`
}

type StyleConfig struct {
	Compiler   string `mapstructure:"compiler" yaml:"compiler"`
	SassBinary string `mapstructure:"sass_binary" yaml:"sass_binary"`
}

type ServeConfig struct {
	Host     string        `mapstructure:"host" yaml:"host"`
	Port     int           `mapstructure:"port" yaml:"port"`
	Open     bool          `mapstructure:"open" yaml:"open"`
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, applies defaults and validates it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	applyDefaults(&config, v)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyDefaults(config *Config, v *viper.Viper) {
	if config.Paths.Dir == "" {
		config.Paths.Dir = DefaultDir
	}
	if config.Paths.Meta == "" {
		config.Paths.Meta = filepath.Join(config.Paths.Dir, DefaultMetaFile)
	}
	if config.Paths.Font == "" {
		config.Paths.Font = filepath.Join(config.Paths.Dir, DefaultFontFile)
	}
	if config.Paths.SVG == "" {
		config.Paths.SVG = filepath.Join(config.Paths.Dir, DefaultSVGDir)
	}
	if config.Paths.Dist == "" {
		config.Paths.Dist = DefaultDist
	}

	if config.Build.Mode == "" {
		config.Build.Mode = DefaultMode
	}
	config.Build.Mode = strings.ToLower(config.Build.Mode)

	if !v.IsSet("font.em_height") || config.Font.EmHeight == 0 {
		config.Font.EmHeight = DefaultEmHeight
	}
	if !v.IsSet("font.descent") {
		config.Font.Descent = DefaultDescent
	}

	if config.Style.Compiler == "" {
		config.Style.Compiler = DefaultCompiler
	}
	config.Style.Compiler = strings.ToLower(config.Style.Compiler)
	if config.Style.SassBinary == "" {
		config.Style.SassBinary = DefaultSassBinary
	}

	if config.Serve.Host == "" {
		config.Serve.Host = DefaultHost
	}
	if !v.IsSet("serve.port") {
		config.Serve.Port = DefaultPort
	}
	if config.Serve.Debounce <= 0 {
		config.Serve.Debounce = DefaultDebounce
	}

	if config.Log.Level == "" {
		config.Log.Level = DefaultLogLevel
	}
	if config.Log.Format == "" {
		config.Log.Format = DefaultLogFormat
	}
}

// validateConfig validates configuration values for correctness
func validateConfig(config *Config) error {
	if err := validation.ValidateOutputDir(config.Paths.Dist, config.Paths.SVG); err != nil {
		return fmt.Errorf("paths config: %w", err)
	}

	if err := validateBuildConfig(&config.Build); err != nil {
		return fmt.Errorf("build config: %w", err)
	}

	if err := validateFontConfig(&config.Font); err != nil {
		return fmt.Errorf("font config: %w", err)
	}

	if err := validateStyleConfig(&config.Style); err != nil {
		return fmt.Errorf("style config: %w", err)
	}

	if err := validateServeConfig(&config.Serve); err != nil {
		return fmt.Errorf("serve config: %w", err)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("log config: format %q must be text or json", config.Log.Format)
	}

	return nil
}

func validateBuildConfig(config *BuildConfig) error {
	switch config.Mode {
	case "webfont", "svg":
		return nil
	default:
		return fmt.Errorf("mode %q must be webfont or svg", config.Mode)
	}
}

func validateFontConfig(config *FontConfig) error {
	if config.EmHeight <= 0 || config.EmHeight > 16384 {
		return fmt.Errorf("em_height %d is not in valid range 1-16384", config.EmHeight)
	}
	if config.Descent < 0 || config.Descent >= config.EmHeight {
		return fmt.Errorf("descent %d must be between 0 and em_height", config.Descent)
	}

	return nil
}

func validateStyleConfig(config *StyleConfig) error {
	switch config.Compiler {
	case "sass", "embedded":
	default:
		return fmt.Errorf("compiler %q must be sass or embedded", config.Compiler)
	}

	if err := validation.ValidateExecutable(config.SassBinary); err != nil {
		return fmt.Errorf("sass_binary: %w", err)
	}

	return nil
}

// validateServeConfig validates preview server configuration values
func validateServeConfig(config *ServeConfig) error {
	// Allow 0 for system-assigned ports in testing
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		if err := validation.ValidateHost(config.Host); err != nil {
			return err
		}
	}

	return nil
}
