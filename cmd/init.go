package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conneroisu/iconforge/internal/services"
)

var initCmd = &cobra.Command{
	Use:     "init [directory]",
	Aliases: []string{"i"},
	Short:   "Scaffold a new icon project",
	Long: `Create meta.json, font-build.json, an svg folder and .iconforge.yml in the
given directory (the current one by default). Two example icons are added
unless --minimal is set; one of them uses a legacy file name so the first
build shows the rename.

Examples:
  iconforge init
  iconforge init my-icons --name "My Icons" --prefix mi
  iconforge init --minimal --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var (
	initName    string
	initPrefix  string
	initMinimal bool
	initForce   bool
)

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initName, "name", "", "Display name of the icon package")
	initCmd.Flags().StringVar(&initPrefix, "prefix", "", "CSS class prefix, also used for the file names")
	initCmd.Flags().BoolVar(&initMinimal, "minimal", false, "Skip the example icons")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing metadata files")
}

func runInit(cmd *cobra.Command, args []string) error {
	projectDir := "."
	if len(args) > 0 {
		projectDir = args[0]
	}

	err := services.NewInitService().InitProject(services.InitOptions{
		ProjectDir: projectDir,
		Name:       initName,
		Prefix:     initPrefix,
		Minimal:    initMinimal,
		Force:      initForce,
	})
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(projectDir)
	if err != nil {
		abs = projectDir
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized icon project in %s\n", abs)
	fmt.Fprintln(cmd.OutOrStdout(), "Add SVG files to the svg folder, list them in meta.json and run iconforge.")

	return nil
}
