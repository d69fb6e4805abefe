package config

import "time"

// Default values.
const (
	DefaultURI               = "neo4j://localhost:7687"
	DefaultUsername          = "neo4j"
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
	DefaultOnError           = "continue"
	DefaultBurst             = 1
	DefaultChainRelationship = "OF"
	DefaultSampleSize        = 100
	DefaultLayout            = "hierarchical"
	DefaultServiceName       = "neomap"
	DefaultConnectionTimeout = 30 * time.Second
)

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	return &Config{
		Graph: GraphConfig{
			URI:               DefaultURI,
			Username:          DefaultUsername,
			ConnectionTimeout: DefaultConnectionTimeout,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Push: PushConfig{
			OnError: DefaultOnError,
			Burst:   DefaultBurst,
		},
		Taxonomy: TaxonomyConfig{
			ChainRelationship: DefaultChainRelationship,
		},
		Schema: SchemaConfig{
			SampleSize: DefaultSampleSize,
			Layout:     DefaultLayout,
		},
		Tracing: TracingConfig{
			ServiceName: DefaultServiceName,
		},
	}
}

// setDefaults mirrors DefaultConfig into viper key space.
func setDefaults(v viperSetter) {
	d := DefaultConfig()
	v.SetDefault("graph.uri", d.Graph.URI)
	v.SetDefault("graph.username", d.Graph.Username)
	v.SetDefault("graph.password", "")
	v.SetDefault("graph.database", "")
	v.SetDefault("graph.max_connection_pool_size", 0)
	v.SetDefault("graph.connection_timeout", d.Graph.ConnectionTimeout)
	v.SetDefault("graph.max_transaction_retry_time", time.Duration(0))
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("push.on_error", d.Push.OnError)
	v.SetDefault("push.rate_limit", 0.0)
	v.SetDefault("push.burst", d.Push.Burst)
	v.SetDefault("push.identity_cache", false)
	v.SetDefault("taxonomy.chain_relationship", d.Taxonomy.ChainRelationship)
	v.SetDefault("schema.sample_size", d.Schema.SampleSize)
	v.SetDefault("schema.prefix", "")
	v.SetDefault("schema.layout", d.Schema.Layout)
	v.SetDefault("schema.physics", false)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
}

type viperSetter interface {
	SetDefault(key string, value any)
}
