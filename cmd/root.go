// Package cmd provides the command-line interface for iconforge with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	Settings are resolved with the following precedence:
//	1. Command-line flags (--dist, --mode, etc.) - highest priority
//	2. Individual environment variables (ICONFORGE_PATHS_DIST, etc.)
//	3. Configuration file (.iconforge.yml, --config or ICONFORGE_CONFIG_FILE)
//	4. Built-in defaults - lowest priority
//
// Environment Variables:
//
//	ICONFORGE_CONFIG_FILE: Path to a custom configuration file
//	ICONFORGE_BUILD_MODE: Override the preview mode
//	ICONFORGE_SERVE_PORT: Override the preview server port
//	And the rest following the ICONFORGE_<SECTION>_<OPTION> pattern
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/iconforge/internal/config"
	"github.com/conneroisu/iconforge/internal/logging"
)

var cfgFile string

// rootCmd runs a build when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "iconforge",
	Short: "Build an icon font package from a folder of SVG icons",
	Long: `iconforge turns a folder of SVG icons and two metadata files into a
publishable icon font package: web fonts, SCSS sources, compiled CSS with
source maps and a preview page.

Inputs:
  meta.json         Ordered list of icons with their code points
  font-build.json   Package settings (prefix, file and font names, version)
  svg/              One SVG per icon, named u<CODEPOINT>-<name>.svg

Quick Start:
  iconforge init                  Scaffold a new icon project
  iconforge                       Build into ./dist
  iconforge watch                 Rebuild when inputs change
  iconforge serve                 Preview with live reload

Command Aliases:
  build (b), watch (w), serve (s), init (i)`,
	SilenceUsage: true,
	RunE:         runBuild,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .iconforge.yml, can also use ICONFORGE_CONFIG_FILE env var)")

	flags.String("dir", config.DefaultDir, "Project folder holding the metadata files")
	flags.String("meta", "", "Icon list (default <dir>/meta.json)")
	flags.String("font", "", "Build configuration (default <dir>/font-build.json)")
	flags.String("svg", "", "SVG folder (default <dir>/svg)")
	flags.String("dist", config.DefaultDist, "Output folder")
	flags.String("templates", "", "Folder with template overrides")

	flags.String("mode", config.DefaultMode, "Preview mode (webfont, svg)")
	flags.Bool("fontSvg", false, "Also emit the legacy SVG font")
	flags.Bool("lenient", false, "Print reconciliation errors but keep building")
	flags.Bool("fail-on-style-error", false, "Fail the build when stylesheet compilation fails")

	flags.String("log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	flags.String("log-format", config.DefaultLogFormat, "Log format (text, json)")

	bindFlags(flags.Lookup, map[string]string{
		"paths.dir":                 "dir",
		"paths.meta":                "meta",
		"paths.font":                "font",
		"paths.svg":                 "svg",
		"paths.dist":                "dist",
		"paths.templates":           "templates",
		"build.mode":                "mode",
		"build.font_svg":            "fontSvg",
		"build.lenient":             "lenient",
		"build.fail_on_style_error": "fail-on-style-error",
		"log.level":                 "log-level",
		"log.format":                "log-format",
	})
}

// initConfig initializes the configuration system.
//
// Configuration file lookup (highest to lowest):
//  1. --config flag
//  2. ICONFORGE_CONFIG_FILE environment variable
//  3. .iconforge.yml in the current directory
//
// A missing default file is not an error; an explicitly named file that
// cannot be read is reported by loadConfig.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("ICONFORGE_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".iconforge")
	}

	viper.SetEnvPrefix("ICONFORGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Keys without a flag are only known to viper through the config file,
	// so their variables are bound explicitly.
	for _, key := range envOnlyKeys {
		_ = viper.BindEnv(key)
	}
}

// loadConfig reads the configuration file, if any, and resolves the
// effective configuration.
func loadConfig() (*config.Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" || os.Getenv("ICONFORGE_CONFIG_FILE") != "" {
			return nil, fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// newLogger builds the process logger from the log section.
func newLogger(cfg *config.Config) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Log.Format,
		Output:    os.Stderr,
		Component: "iconforge",
	}), nil
}
