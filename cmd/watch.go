package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/iconforge/internal/config"
	"github.com/conneroisu/iconforge/internal/services"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Rebuild whenever an input changes",
	Long: `Build once, then watch the SVG folder, the metadata files, the template
overrides and the configuration file, rebuilding after each burst of changes.
A failed build is reported and watching continues.

Examples:
  iconforge watch
  iconforge watch --lenient --log-level debug`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Duration("debounce", config.DefaultDebounce, "Quiet period before rebuilding")
}

func runWatch(cmd *cobra.Command, args []string) error {
	// watch and serve share the key, so it is bound to the running command's flag.
	bindFlags(cmd.Flags().Lookup, map[string]string{"serve.debounce": "debounce"})
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	build := services.NewBuildService(cfg, logger).WithDiagnostics(cmd.ErrOrStderr())
	service := services.NewServeService(cfg, build, logger)

	fmt.Fprintln(cmd.OutOrStdout(), "Watching for changes, press Ctrl+C to stop")

	return service.Watch(cmd.Context(), services.ServeOptions{
		ConfigFile: viper.ConfigFileUsed(),
		OnBuild:    reportBuild(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg),
	})
}

// reportBuild prints the outcome of each rebuild without stopping the loop.
func reportBuild(out, errOut io.Writer, cfg *config.Config) func(*services.BuildResult, error) {
	return func(result *services.BuildResult, err error) {
		if err != nil {
			fmt.Fprintf(errOut, "Build failed: %v\n", err)
			return
		}
		printBuildSummary(out, cfg, result)
	}
}
