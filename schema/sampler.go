// Package schema samples (subject label, relationship type, object label)
// triples from a live graph and turns them into a renderable schema view.
package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
)

const (
	// DefaultPrefix deduplicates relationships before sampling.
	DefaultPrefix = "MATCH (n)-[r]->(m)\nWITH DISTINCT n, r, m"
	// DefaultLimit bounds the sampled rows.
	DefaultLimit = 100
	// Unlabeled stands in for a node without labels.
	Unlabeled = "(unlabeled)"

	sampleReturn = "MATCH (n)-[r]->(m)\nRETURN labels(n)[0] AS subjectLabel, type(r) AS predicateType, labels(m)[0] AS objectLabel"
)

// Triple is one observed schema edge.
type Triple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

func (t Triple) String() string {
	return fmt.Sprintf("(%s)-[:%s]->(%s)", t.Subject, t.Predicate, t.Object)
}

// Sample is the deduplicated result of a sampling query.
type Sample struct {
	Triples []Triple `json:"triples"`
	Labels  []string `json:"labels"`
	// Rows is the number of rows the query returned before deduplication.
	Rows int `json:"rows"`
}

// SampleOptions bound a sampling query.
type SampleOptions struct {
	// Prefix is a read-only recall clause placed before the sampling pattern.
	// Empty uses DefaultPrefix; "-" disables it.
	Prefix string
	// Limit caps the rows read; zero uses DefaultLimit.
	Limit int
	// NoLimit removes the cap.
	NoLimit bool
}

// BuildQuery returns the sampling query for opts.
func BuildQuery(opts SampleOptions) (string, error) {
	prefix := opts.Prefix
	switch strings.TrimSpace(prefix) {
	case "":
		prefix = DefaultPrefix
	case "-":
		prefix = ""
	}
	if err := neomap.CheckReadOnly(prefix); err != nil {
		return "", err
	}
	if opts.Limit < 0 {
		return "", neomap.Errorf(neomap.ErrCodeConfiguration, "sample limit %d must be positive", opts.Limit)
	}

	var b strings.Builder
	if p := strings.TrimSpace(prefix); p != "" {
		b.WriteString(p)
		b.WriteString("\n")
	}
	b.WriteString(sampleReturn)
	if !opts.NoLimit {
		limit := opts.Limit
		if limit == 0 {
			limit = DefaultLimit
		}
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}
	return b.String(), nil
}

// Sampler reads schema samples through a DBRunner.
type Sampler struct {
	runner neomap.DBRunner
}

// NewSampler creates a Sampler.
func NewSampler(runner neomap.DBRunner) *Sampler {
	return &Sampler{runner: runner}
}

// Sample runs the sampling query. The result is a sample: labels or
// relationship types beyond the limit may be missing.
func (s *Sampler) Sample(ctx context.Context, opts SampleOptions) (*Sample, error) {
	query, err := BuildQuery(opts)
	if err != nil {
		return nil, err
	}
	result, err := s.runner.Run(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("sample schema: %w", err)
	}

	rows := make([][3]any, len(result.Records))
	for i, record := range result.Records {
		for j, key := range []string{"subjectLabel", "predicateType", "objectLabel"} {
			v, ok := record.Get(key)
			if !ok {
				return nil, neomap.Errorf(neomap.ErrCodeResultParsing, "result has no %q column", key)
			}
			rows[i][j] = v
		}
	}
	return Extract(rows), nil
}

// Extract deduplicates raw (subject, predicate, object) rows. Triples are
// sorted; labels are the sorted union of subjects and objects.
func Extract(rows [][3]any) *Sample {
	seen := make(map[Triple]bool)
	labelSet := make(map[string]bool)
	out := &Sample{Rows: len(rows), Triples: []Triple{}, Labels: []string{}}
	for _, r := range rows {
		t := Triple{Subject: labelOf(r[0]), Predicate: fmt.Sprint(r[1]), Object: labelOf(r[2])}
		if seen[t] {
			continue
		}
		seen[t] = true
		out.Triples = append(out.Triples, t)
		labelSet[t.Subject] = true
		labelSet[t.Object] = true
	}
	sort.Slice(out.Triples, func(i, j int) bool {
		a, b := out.Triples[i], out.Triples[j]
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.Predicate != b.Predicate {
			return a.Predicate < b.Predicate
		}
		return a.Object < b.Object
	})
	for l := range labelSet {
		out.Labels = append(out.Labels, l)
	}
	sort.Strings(out.Labels)
	return out
}

func labelOf(v any) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return Unlabeled
}
