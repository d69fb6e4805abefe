package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. NEOMAP_GRAPH_PASSWORD.
const EnvPrefix = "NEOMAP"

// DefaultFileName is searched for in the working directory and ~/.neomap.
const DefaultFileName = "neomap.yaml"

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads configuration from path (or the default search locations when
// path is empty), applies NEOMAP_* environment overrides and ${VAR}
// interpolation, and validates the result. A missing default file is not an
// error; a missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultFileName, filepath.Ext(DefaultFileName)))
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".neomap"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		interpolateHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := NewValidator().Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// interpolateHook replaces ${VAR} references in string values with the
// environment variable's value; unset variables are left as written.
func interpolateHook() mapstructure.DecodeHookFuncKind {
	return func(from, _ reflect.Kind, data any) (any, error) {
		s, ok := data.(string)
		if !ok || from != reflect.String {
			return data, nil
		}
		return interpolateString(s), nil
	}
}

func interpolateString(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

// LegacyDBConfig is the flat connection file of the form
//
//	uri: neo4j://localhost:7687
//	user: neo4j
//	password: secret
//	database: neo4j
type LegacyDBConfig struct {
	URI      string `yaml:"uri"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// ApplyLegacyDBConfig reads a flat connection file and overrides the graph
// section of cfg with its non-empty fields.
func ApplyLegacyDBConfig(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	var legacy LegacyDBConfig
	if err := yaml.Unmarshal(b, &legacy); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if legacy.URI != "" {
		cfg.Graph.URI = interpolateString(legacy.URI)
	}
	if legacy.User != "" {
		cfg.Graph.Username = interpolateString(legacy.User)
	}
	if legacy.Password != "" {
		cfg.Graph.Password = interpolateString(legacy.Password)
	}
	if legacy.Database != "" {
		cfg.Graph.Database = interpolateString(legacy.Database)
	}
	return NewValidator().Validate(cfg)
}
