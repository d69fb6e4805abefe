package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/internal/config"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/internal/graphtest"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func useFakeGraph(t *testing.T) *graphtest.FakeGraph {
	t.Helper()
	g := graphtest.New()
	prev := openSession
	openSession = func(context.Context, *config.Config, *slog.Logger) (*session, error) {
		return &session{runner: g, close: func(context.Context) error { return nil }}, nil
	}
	t.Cleanup(func() { openSession = prev })
	return g
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func emptyConfig(t *testing.T) string {
	return writeTemp(t, "neomap.yaml", "logging:\n  level: error\n")
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "neomap dev")
}

func TestTaxonomyBuildCommand(t *testing.T) {
	src := writeTemp(t, "samples.csv", "id,dept,team\n1,Bio,Seq\n2,Bio,Seq\n3,Bio,Img\n")

	out, err := executeCommand(t, "--config", emptyConfig(t), "taxonomy", "build", src, "--level", "dept,team")
	require.NoError(t, err)
	assert.Contains(t, out, "dept,team,Count\n")
	assert.Contains(t, out, "Bio,Seq,2\n")
	assert.Contains(t, out, "Bio,Img,1\n")
}

func TestPushCommandUpsertsRows(t *testing.T) {
	g := useFakeGraph(t)
	src := writeTemp(t, "samples.csv", "kind,id,name\nSample,s1,Alpha\nSample,s2,Beta\nSample,s1,Gamma\n")

	out, err := executeCommand(t, "--config", emptyConfig(t), "push", src,
		"--label-col", "kind", "--match", "id", "--prop", "name")
	require.NoError(t, err)
	assert.Contains(t, out, "3 succeeded, 0 failed")

	nodes := g.Nodes("Sample")
	require.Len(t, nodes, 2)
	s1 := g.FindNodes("Sample", map[string]any{"id": "s1"})
	require.Len(t, s1, 1)
	assert.Equal(t, "Gamma", s1[0].Props["name"])
}

func TestGraphImportRequiresConfirmation(t *testing.T) {
	useFakeGraph(t)
	_, err := executeCommand(t, "--config", emptyConfig(t), "graph", "import", "snapshot.pb")
	require.Error(t, err)

	var cliErr *CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, ExitConfigError, cliErr.Code)
}

func TestHandleErrorExitCodes(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	cmd.SetErr(&bytes.Buffer{})

	assert.Equal(t, ExitSuccess, HandleError(cmd, nil))
	assert.Equal(t, ExitCancelled, HandleError(cmd, context.Canceled))
	assert.Equal(t, ExitTimeout, HandleError(cmd, context.DeadlineExceeded))
	assert.Equal(t, ExitPartialPush, HandleError(cmd, &CLIError{Code: ExitPartialPush, Message: "2 rows failed"}))
	assert.Equal(t, ExitConfigError, HandleError(cmd, neomap.NewError(neomap.ErrCodeConfiguration, "bad")))
	assert.Equal(t, ExitConfigError, HandleError(cmd, neomap.ErrAmbiguousIdentity))
	assert.Equal(t, ExitNotFound, HandleError(cmd, neomap.ErrNotFound))
	assert.Equal(t, ExitDatabaseError, HandleError(cmd, neomap.NewError(neomap.ErrCodeConnection, "down")))
	assert.Equal(t, ExitError, HandleError(cmd, os.ErrPermission))
}

func TestPrintReportPartialFailure(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	r := &neomap.PushReport{RunID: "run-1"}
	r.Record(0, nil, neomap.ContinueOnError)
	r.Record(1, neomap.ErrNotFound, neomap.ContinueOnError)

	err := printReport(cmd, r)
	var cliErr *CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, ExitPartialPush, cliErr.Code)
	assert.Contains(t, out.String(), "run run-1: 2 rows, 1 succeeded, 1 failed")
}
