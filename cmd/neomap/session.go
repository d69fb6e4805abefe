package main

import (
	"context"
	"log/slog"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/time/rate"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/internal/config"
)

// session is an open database connection plus its teardown.
type session struct {
	runner neomap.DBRunner
	close  func(context.Context) error
}

// openSession connects to the configured database. Tests replace it with a
// function returning an in-memory graph.
var openSession = func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*session, error) {
	exec, err := neomap.NewNeo4jExecutorWithConfig(neomap.ExecutorConfig{
		URI:                     cfg.Graph.URI,
		Username:                cfg.Graph.Username,
		Password:                cfg.Graph.Password,
		Database:                cfg.Graph.Database,
		MaxConnectionPoolSize:   cfg.Graph.MaxConnectionPoolSize,
		ConnectionTimeout:       cfg.Graph.ConnectionTimeout,
		MaxTransactionRetryTime: cfg.Graph.MaxTransactionRetryTime,
	})
	if err != nil {
		return nil, err
	}
	if err := exec.Verify(ctx); err != nil {
		_ = exec.Close(ctx)
		return nil, err
	}
	logger.Debug("connected", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
	return &session{runner: exec, close: exec.Close}, nil
}

// connect opens a session and, when tracing is on, decorates its runner
// with a TracedRunner whose spans are written to the log.
func connect(ctx context.Context) (*session, error) {
	s, err := openSession(ctx, state.cfg, state.logger)
	if err != nil {
		return nil, err
	}
	if !state.cfg.Tracing.Enabled {
		return s, nil
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(&logSpanProcessor{logger: state.logger}))
	s.runner = neomap.NewTracedRunner(s.runner, tp.Tracer(state.cfg.Tracing.ServiceName), state.cfg.Graph.Database)
	closeDB := s.close
	s.close = func(ctx context.Context) error {
		_ = tp.Shutdown(ctx)
		return closeDB(ctx)
	}
	return s, nil
}

// withSession runs fn against a fresh connection and closes it afterwards.
func withSession(ctx context.Context, fn func(*session) error) error {
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.close(context.WithoutCancel(ctx)) }()
	return fn(s)
}

// managerOptions returns the Manager options implied by the configuration.
func managerOptions() []neomap.UpserterOption {
	opts := []neomap.UpserterOption{neomap.WithLogger(state.logger)}
	if state.cfg.Push.IdentityCache {
		opts = append(opts, neomap.WithIdentityCache())
	}
	return opts
}

// pushLimiter returns the configured row limiter, or nil when unthrottled.
func pushLimiter() *rate.Limiter {
	if state.cfg.Push.RateLimit <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(state.cfg.Push.RateLimit), state.cfg.Push.Burst)
}

// logSpanProcessor writes every finished span as a debug log record.
type logSpanProcessor struct {
	logger *slog.Logger
}

func (p *logSpanProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *logSpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	args := []any{
		"span", s.Name(),
		"trace_id", s.SpanContext().TraceID().String(),
		"duration", s.EndTime().Sub(s.StartTime()).Round(time.Microsecond),
		"status", s.Status().Code.String(),
	}
	for _, kv := range s.Attributes() {
		args = append(args, string(kv.Key), kv.Value.Emit())
	}
	p.logger.Debug("query span", args...)
}

func (p *logSpanProcessor) Shutdown(context.Context) error { return nil }

func (p *logSpanProcessor) ForceFlush(context.Context) error { return nil }
