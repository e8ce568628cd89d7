package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ducktape/internal/config"
	"ducktape/internal/ui"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the config file",
	}
	cmd.AddCommand(newConfigShowCommand(a), newConfigInitCommand(a))
	return cmd
}

func newConfigShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective config, environment overrides included",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			shown := *a.cfg
			if shown.BasicAuth != nil {
				auth := *shown.BasicAuth
				auth.Password = "********"
				shown.BasicAuth = &auth
			}
			data, err := yaml.Marshal(&shown)
			if err != nil {
				return err
			}
			ui.NewPrinter(cmd.ErrOrStderr()).Secondary("# %s", a.configPath)
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigInitCommand(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(a.configPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", a.configPath)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if err := config.Save(a.configPath, config.DefaultConfig()); err != nil {
				return err
			}
			ui.NewPrinter(cmd.OutOrStdout()).Line("wrote %s", a.configPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
