// Package ingest materializes entity tables and filesystem scans as nodes,
// one row at a time, and links them to existing graph nodes.
package ingest

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
)

// Options control a row-by-row push.
type Options struct {
	// Policy decides whether a failing row stops the push.
	Policy neomap.ErrorPolicy
	// Limiter throttles rows; nil means unthrottled.
	Limiter *rate.Limiter
	Logger  *slog.Logger
}

func (o Options) logger(component string) *slog.Logger {
	l := o.Logger
	if l == nil {
		l = slog.Default()
	}
	return l.With("component", component)
}

// wait blocks until the limiter admits one more row.
func (o Options) wait(ctx context.Context) error {
	if o.Limiter == nil {
		return ctx.Err()
	}
	return o.Limiter.Wait(ctx)
}

func newReport() *neomap.PushReport {
	return &neomap.PushReport{RunID: uuid.NewString()}
}
