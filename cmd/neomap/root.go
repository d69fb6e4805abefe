package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/saulfrancisco-ruizacevedo/go-neomap/internal/config"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/internal/logging"
)

// app holds what PersistentPreRunE prepared for the running command.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

var state = &app{cfg: config.DefaultConfig(), logger: logging.Discard()}

var rootCmd = &cobra.Command{
	Use:   "neomap",
	Short: "neomap - map tables onto a Neo4j property graph",
	Long: `neomap turns tabular data (CSV, JSON, Excel sheets and disk-usage
scans) into Neo4j nodes and relationships with idempotent MERGE semantics.

It pushes entity tables, indexes folder hierarchies, builds and materializes
taxonomies as path_id chains, samples the graph schema, and exports or
restores whole graphs.`,
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

// loadConfig merges file, environment and flags into state before any command runs.
func loadConfig(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}

	cfg, err := config.Load(globalFlags.ConfigFile)
	if err != nil {
		return WrapError(ExitConfigError, "failed to load configuration", err)
	}
	if globalFlags.DBConfig != "" {
		if err := config.ApplyLegacyDBConfig(cfg, globalFlags.DBConfig); err != nil {
			return WrapError(ExitConfigError, "failed to load connection file", err)
		}
	}
	globalFlags.apply(cmd, cfg)
	if err := config.NewValidator().Validate(cfg); err != nil {
		return WrapError(ExitConfigError, "invalid configuration", err)
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return WrapError(ExitConfigError, "invalid logging configuration", err)
	}

	state.cfg = cfg
	state.logger = logger
	slog.SetDefault(logger)
	return nil
}

func init() {
	RegisterGlobalFlags(rootCmd)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(labelsCmd)
	rootCmd.AddCommand(databasesCmd)
	rootCmd.AddCommand(nodesCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(taxonomyCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(graphCmd)
}
