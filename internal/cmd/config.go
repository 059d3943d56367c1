package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/meridian-hooks/meridian/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the project configuration",
	Long: `Meridian reads .meridian/config.yaml under the project root. Every key can
be overridden with a MERIDIAN_ environment variable, e.g.
MERIDIAN_PLAN_REVIEW_ENABLED=false.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration the hooks will use, after defaults, the config file
and environment overrides are applied. Fields that could not be read are
reported on stderr and shown with their defaults.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	dir, err := resolveProject()
	if err != nil {
		return err
	}

	cfg, loadErr := config.Load(afero.NewOsFs(), dir)
	if loadErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", loadErr)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	dir, err := resolveProject()
	if err != nil {
		return err
	}
	path := config.Path(dir)
	if config.Exists(afero.NewOsFs(), dir) {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (not present, using defaults)\n", path)
	}
	return nil
}
