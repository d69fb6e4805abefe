package main

import (
	"github.com/spf13/cobra"

	"github.com/saulfrancisco-ruizacevedo/go-neomap/internal/config"
)

// GlobalFlags holds the persistent flags shared by every command.
type GlobalFlags struct {
	Verbose    bool
	ConfigFile string
	DBConfig   string
	URI        string
	Username   string
	Password   string
	Database   string
	LogLevel   string
	LogFormat  string
	OnError    string
	Trace      bool
}

var globalFlags = &GlobalFlags{}

// RegisterGlobalFlags registers persistent flags on the root command.
func RegisterGlobalFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "Enable debug logging and error causes")
	f.StringVar(&globalFlags.ConfigFile, "config", "", "Path to config file (default: ./neomap.yaml or ~/.neomap/neomap.yaml)")
	f.StringVar(&globalFlags.DBConfig, "db-config", "", "Flat connection file with uri, user, password and database keys")
	f.StringVar(&globalFlags.URI, "uri", "", "Database URI")
	f.StringVarP(&globalFlags.Username, "user", "u", "", "Database user")
	f.StringVarP(&globalFlags.Password, "password", "p", "", "Database password")
	f.StringVarP(&globalFlags.Database, "database", "d", "", "Database name (default: server default)")
	f.StringVar(&globalFlags.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	f.StringVar(&globalFlags.LogFormat, "log-format", "", "Log format (text|json)")
	f.StringVar(&globalFlags.OnError, "on-error", "", "Row error policy (continue|abort)")
	f.BoolVar(&globalFlags.Trace, "trace", false, "Trace every query and log the spans")
}

// apply overrides cfg with every flag the user set.
func (f *GlobalFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := func(name string) bool {
		fl := cmd.Flag(name)
		return fl != nil && fl.Changed
	}
	if changed("uri") {
		cfg.Graph.URI = f.URI
	}
	if changed("user") {
		cfg.Graph.Username = f.Username
	}
	if changed("password") {
		cfg.Graph.Password = f.Password
	}
	if changed("database") {
		cfg.Graph.Database = f.Database
	}
	if changed("log-level") {
		cfg.Logging.Level = f.LogLevel
	}
	if changed("log-format") {
		cfg.Logging.Format = f.LogFormat
	}
	if changed("on-error") {
		cfg.Push.OnError = f.OnError
	}
	if f.Trace {
		cfg.Tracing.Enabled = true
	}
	if f.Verbose {
		cfg.Logging.Level = "debug"
	}
}
