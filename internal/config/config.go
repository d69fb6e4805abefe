// Package config loads the neomap configuration from a YAML file, NEOMAP_*
// environment variables and defaults.
package config

import (
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete neomap configuration.
type Config struct {
	Graph    GraphConfig    `mapstructure:"graph" yaml:"graph"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Push     PushConfig     `mapstructure:"push" yaml:"push"`
	Taxonomy TaxonomyConfig `mapstructure:"taxonomy" yaml:"taxonomy"`
	Schema   SchemaConfig   `mapstructure:"schema" yaml:"schema"`
	Tracing  TracingConfig  `mapstructure:"tracing" yaml:"tracing"`
}

// GraphConfig holds the database connection.
type GraphConfig struct {
	URI                     string        `mapstructure:"uri" yaml:"uri" validate:"required"`
	Username                string        `mapstructure:"username" yaml:"username" validate:"required"`
	Password                string        `mapstructure:"password" yaml:"password"`
	Database                string        `mapstructure:"database" yaml:"database"`
	MaxConnectionPoolSize   int           `mapstructure:"max_connection_pool_size" yaml:"max_connection_pool_size" validate:"min=0"`
	ConnectionTimeout       time.Duration `mapstructure:"connection_timeout" yaml:"connection_timeout" validate:"min=0"`
	MaxTransactionRetryTime time.Duration `mapstructure:"max_transaction_retry_time" yaml:"max_transaction_retry_time" validate:"min=0"`
}

// LoggingConfig holds the log output settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json text"`
}

// PushConfig controls row-by-row pushes.
type PushConfig struct {
	OnError       string  `mapstructure:"on_error" yaml:"on_error" validate:"oneof=continue abort"`
	RateLimit     float64 `mapstructure:"rate_limit" yaml:"rate_limit" validate:"min=0"`
	Burst         int     `mapstructure:"burst" yaml:"burst" validate:"min=1"`
	IdentityCache bool    `mapstructure:"identity_cache" yaml:"identity_cache"`
}

// TaxonomyConfig controls taxonomy materialization.
type TaxonomyConfig struct {
	ChainRelationship string `mapstructure:"chain_relationship" yaml:"chain_relationship" validate:"required"`
}

// SchemaConfig controls schema sampling.
type SchemaConfig struct {
	SampleSize int    `mapstructure:"sample_size" yaml:"sample_size" validate:"min=1"`
	Prefix     string `mapstructure:"prefix" yaml:"prefix"`
	Layout     string `mapstructure:"layout" yaml:"layout" validate:"oneof=hierarchical force-directed"`
	Physics    bool   `mapstructure:"physics" yaml:"physics"`
}

// TracingConfig toggles query tracing.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
}

// WriteYAML writes c as a YAML document.
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}
