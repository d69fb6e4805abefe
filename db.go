// Package neomap maps tabular records onto a Neo4j property graph with
// idempotent MERGE semantics: node upserts keyed by match properties,
// typed relationship links, a label schema registry and catalog reads.
package neomap

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// DBRunner defines the interface for a generic query executor.
// Every graph-touching component in this module talks to the database through it,
// which keeps the driver swappable for a tracing decorator or an in-memory fake.
type DBRunner interface {
	// Run executes a given Cypher query with parameters and returns a fully-buffered result.
	Run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error)
}

// ExecutorConfig holds the connection settings of a Neo4jExecutor.
type ExecutorConfig struct {
	URI      string
	Username string
	Password string
	Database string

	// Zero values keep the driver defaults.
	MaxConnectionPoolSize   int
	ConnectionTimeout       time.Duration
	MaxTransactionRetryTime time.Duration
}

// Neo4jExecutor is the DBRunner backed by the official Neo4j Go driver.
// It manages the driver instance and the target database name.
type Neo4jExecutor struct {
	Driver neo4j.DriverWithContext
	DBName string
}

// NewNeo4jExecutor creates and initializes a new Neo4jExecutor.
//
// Parameters:
//   - uri: The connection URI for the Neo4j instance (e.g., "neo4j://localhost:7687").
//   - username: The username for authentication.
//   - password: The password for authentication.
//   - dbName: The name of the database to use; empty selects the server default.
//
// Returns:
//
//	A pointer to the newly created Neo4jExecutor or an error if the driver creation fails.
func NewNeo4jExecutor(uri, username, password, dbName string) (*Neo4jExecutor, error) {
	return NewNeo4jExecutorWithConfig(ExecutorConfig{
		URI:      uri,
		Username: username,
		Password: password,
		Database: dbName,
	})
}

// NewNeo4jExecutorWithConfig creates a Neo4jExecutor with pool and retry settings.
func NewNeo4jExecutorWithConfig(cfg ExecutorConfig) (*Neo4jExecutor, error) {
	if cfg.URI == "" {
		return nil, NewError(ErrCodeConfiguration, "database URI is required")
	}
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *neo4j.Config) {
			if cfg.MaxConnectionPoolSize > 0 {
				c.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
			}
			if cfg.ConnectionTimeout > 0 {
				c.SocketConnectTimeout = cfg.ConnectionTimeout
				c.ConnectionAcquisitionTimeout = cfg.ConnectionTimeout
			}
			if cfg.MaxTransactionRetryTime > 0 {
				c.MaxTransactionRetryTime = cfg.MaxTransactionRetryTime
			}
		},
	)
	if err != nil {
		return nil, WrapError(ErrCodeConnection, "could not create Neo4j driver", err)
	}
	return &Neo4jExecutor{Driver: driver, DBName: cfg.Database}, nil
}

// Verify checks the connectivity to the Neo4j database.
func (e *Neo4jExecutor) Verify(ctx context.Context) error {
	if err := e.Driver.VerifyConnectivity(ctx); err != nil {
		return WrapError(ErrCodeConnection, "could not reach database", err)
	}
	return nil
}

// Close releases the driver and its pooled connections.
func (e *Neo4jExecutor) Close(ctx context.Context) error {
	return e.Driver.Close(ctx)
}

// Run executes a Cypher query through neo4j.ExecuteQuery, which handles session
// and transaction management. Failures are classified as connection or query errors.
//
// Parameters:
//   - ctx: The context for the query execution.
//   - query: The Cypher query string to execute.
//   - params: A map of parameters to be used in the query.
//
// Returns:
//
//	An EagerResult containing all buffered records from the query, or an *Error.
func (e *Neo4jExecutor) Run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	opts := []neo4j.ExecuteQueryConfigurationOption{}
	if e.DBName != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(e.DBName))
	}
	result, err := neo4j.ExecuteQuery(ctx, e.Driver, query, params, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return nil, classifyDriverError(err)
	}
	return result, nil
}

func classifyDriverError(err error) error {
	if neo4j.IsConnectivityError(err) {
		return WrapError(ErrCodeConnection, "database connection failed", err)
	}
	return WrapError(ErrCodeQuery, "error executing neo4j query", err)
}
