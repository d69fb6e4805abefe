package neomap

import (
	"context"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span and attribute names.
const (
	SpanRun = "neomap.db.run"

	AttrDBSystem    = "db.system"
	AttrDBStatement = "db.statement"
	AttrDBName      = "db.name"
	AttrDBOperation = "db.operation"
	AttrRowCount    = "neomap.rows"
	AttrErrorCode   = "error.code"
)

const maxStatementAttr = 1024

// TracedRunner wraps a DBRunner and records one span per query.
type TracedRunner struct {
	next     DBRunner
	tracer   trace.Tracer
	database string
}

// NewTracedRunner decorates next with tracing. database is recorded as db.name when set.
func NewTracedRunner(next DBRunner, tracer trace.Tracer, database string) *TracedRunner {
	return &TracedRunner{next: next, tracer: tracer, database: database}
}

// Run implements DBRunner.
func (t *TracedRunner) Run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	ctx, span := t.tracer.Start(ctx, SpanRun, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	stmt := query
	if len(stmt) > maxStatementAttr {
		stmt = stmt[:maxStatementAttr]
	}
	span.SetAttributes(
		attribute.String(AttrDBSystem, "neo4j"),
		attribute.String(AttrDBStatement, stmt),
		attribute.String(AttrDBOperation, operationOf(query)),
	)
	if t.database != "" {
		span.SetAttributes(attribute.String(AttrDBName, t.database))
	}

	result, err := t.next.Run(ctx, query, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if code := CodeOf(err); code != "" {
			span.SetAttributes(attribute.String(AttrErrorCode, string(code)))
		}
		return nil, err
	}

	rows := 0
	if result != nil {
		rows = len(result.Records)
	}
	span.SetAttributes(attribute.Int(AttrRowCount, rows))
	span.SetStatus(codes.Ok, "")
	return result, nil
}

// operationOf returns the first clause keyword of query.
func operationOf(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}
