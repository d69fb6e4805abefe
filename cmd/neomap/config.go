package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/saulfrancisco-ruizacevedo/go-neomap/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with the password masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := *state.cfg
		if cfg.Graph.Password != "" {
			cfg.Graph.Password = "********"
		}
		return cfg.WriteYAML(cmd.OutOrStdout())
	},
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file holding the defaults",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultFileName
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return WrapError(ExitConfigError, fmt.Sprintf("%s already exists (use --force to overwrite)", path), nil)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := config.DefaultConfig().WriteYAML(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		cmd.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
