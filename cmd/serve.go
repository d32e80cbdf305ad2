package cmd

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/iconforge/internal/config"
	"github.com/conneroisu/iconforge/internal/services"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Serve the output folder with live reload",
	Long: `Build, serve the output folder over HTTP and rebuild on every input
change. Pages are reloaded in the browser after each successful build; a
failed build is reported in the browser console.

Examples:
  iconforge serve                  # http://localhost:8080
  iconforge serve --port 3000 --open`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", config.DefaultPort, "Port to serve on")
	serveCmd.Flags().String("host", config.DefaultHost, "Host to bind to")
	serveCmd.Flags().Bool("open", false, "Open the preview page in a browser")
	serveCmd.Flags().Duration("debounce", config.DefaultDebounce, "Quiet period before rebuilding")

	bindFlags(serveCmd.Flags().Lookup, map[string]string{
		"serve.port": "port",
		"serve.host": "host",
		"serve.open": "open",
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	bindFlags(cmd.Flags().Lookup, map[string]string{"serve.debounce": "debounce"})
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	build := services.NewBuildService(cfg, logger).WithDiagnostics(cmd.ErrOrStderr())
	service := services.NewServeService(cfg, build, logger)

	addr := net.JoinHostPort(cfg.Serve.Host, strconv.Itoa(cfg.Serve.Port))
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s at http://%s\n", cfg.Paths.Dist, addr)

	return service.Serve(cmd.Context(), services.ServeOptions{
		ConfigFile: viper.ConfigFileUsed(),
		OnBuild:    reportBuild(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg),
	})
}
