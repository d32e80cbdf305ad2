package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/iconforge/internal/config"
	"github.com/conneroisu/iconforge/internal/logging"
	"github.com/conneroisu/iconforge/internal/services"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Build the icon font package",
	Long: `Build the icon font package into the output folder. This is what running
iconforge without a sub-command does.

The build renames SVG files still using their legacy name, stops when an
icon has no SVG file (unless --lenient is set), then writes the fonts, the
preview page, the SCSS sources and the compiled stylesheets.

Examples:
  iconforge build                      # Build ./meta.json into ./dist
  iconforge build --dir icons --dist out
  iconforge build --mode svg --fontSvg # Inline SVG preview, legacy SVG font`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	service := services.NewBuildService(cfg, logger).WithDiagnostics(cmd.ErrOrStderr())
	result, err := service.Build(cmd.Context())
	if err != nil {
		return err
	}

	printBuildSummary(cmd.OutOrStdout(), cfg, result)

	return nil
}

// setup loads the configuration and the logger every command shares.
func setup() (*config.Config, logging.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	return cfg, logger, nil
}

func printBuildSummary(w io.Writer, cfg *config.Config, result *services.BuildResult) {
	for _, icon := range result.Renamed {
		fmt.Fprintf(w, "Renamed %s to %s\n", icon.Name, icon.CanonicalFileName())
	}
	dist, err := filepath.Abs(cfg.Paths.Dist)
	if err != nil {
		dist = cfg.Paths.Dist
	}
	fmt.Fprintf(w, "Built %d icons into %s (%d files) in %v\n",
		result.IconCount, dist, len(result.Files()), result.Duration.Round(time.Millisecond))
	if result.StyleError != nil {
		fmt.Fprintf(w, "Stylesheets were not compiled: %v\n", result.StyleError)
	}
}
