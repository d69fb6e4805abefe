//go:build integration

package neomap_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/graphio"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/ingest"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/mapping"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/schema"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/table"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/taxonomy"
)

// startNeo4j runs a disposable Neo4j server and returns an executor bound to it.
func startNeo4j(t *testing.T, ctx context.Context) *neomap.Neo4jExecutor {
	t.Helper()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		t.Skip("Docker not available, skipping integration test")
	}
	if err := provider.Health(ctx); err != nil {
		t.Skip("Docker not running, skipping integration test")
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "neo4j:5",
			ExposedPorts: []string{"7687/tcp"},
			Env:          map[string]string{"NEO4J_AUTH": "none"},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("7687/tcp"),
				wait.ForLog("Started."),
			).WithDeadline(120 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "start neo4j container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "7687")
	require.NoError(t, err)

	exec, err := neomap.NewNeo4jExecutorWithConfig(neomap.ExecutorConfig{
		URI:               fmt.Sprintf("bolt://%s:%s", host, port.Port()),
		Username:          "neo4j",
		Password:          "ignored",
		ConnectionTimeout: 30 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = exec.Close(context.Background()) })
	require.NoError(t, exec.Verify(ctx))
	return exec
}

func count(t *testing.T, ctx context.Context, runner neomap.DBRunner, query string) int64 {
	t.Helper()
	res, err := runner.Run(ctx, query, nil)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	v, _ := res.Records[0].Get("c")
	return v.(int64)
}

func TestIntegrationMaterialization(t *testing.T) {
	ctx := context.Background()
	db := startNeo4j(t, ctx)
	m := neomap.NewManager(db, neomap.WithIdentityCache())

	staff := table.MustNew([]string{"kind", "name", "dept", "team"}, []table.Row{
		{"kind": "Person", "name": "ada", "dept": "Bio", "team": "Seq"},
		{"kind": "Person", "name": "bob", "dept": "Bio", "team": "Img"},
		{"kind": "Person", "name": "cy", "dept": "Bio", "team": "Seq"},
	})

	t.Run("entities", func(t *testing.T) {
		a, err := mapping.Classify(staff.Columns(), mapping.Selection{
			Label:      "kind",
			Properties: []string{"name", "team"},
			MatchKeys:  []string{"name"},
			Context:    []string{"dept"},
		})
		require.NoError(t, err)

		p := ingest.NewEntityPusher(m, ingest.Options{})
		for range 2 {
			report, err := p.Push(ctx, staff, a, nil)
			require.NoError(t, err)
			require.NoError(t, report.Err())
		}
		assert.Equal(t, int64(3), count(t, ctx, db, "MATCH (n:Person) RETURN count(n) AS c"))
	})

	t.Run("taxonomy", func(t *testing.T) {
		tax, err := taxonomy.Build(staff, []string{"dept", "team"})
		require.NoError(t, err)

		spec := taxonomy.PushSpec{
			EntityLabel:      "Person",
			MatchColumns:     []string{"team"},
			RelationshipType: "CLASSIFIES",
		}
		p := taxonomy.NewPusher(m)
		for range 2 {
			report, err := p.Push(ctx, tax, spec)
			require.NoError(t, err)
			require.NoError(t, report.Err())
		}
		assert.Equal(t, int64(2), count(t, ctx, db, "MATCH (n:team) RETURN count(n) AS c"))
		assert.Equal(t, int64(2), count(t, ctx, db, "MATCH (:team)-[r:OF]->(:dept {path_id: 'Bio'}) RETURN count(r) AS c"))
		assert.Equal(t, int64(3), count(t, ctx, db, "MATCH (:team)-[r:CLASSIFIES]->(:Person) RETURN count(r) AS c"))
	})

	t.Run("schema", func(t *testing.T) {
		sample, err := schema.NewSampler(db).Sample(ctx, schema.SampleOptions{})
		require.NoError(t, err)
		assert.Contains(t, sample.Triples, schema.Triple{Subject: "team", Predicate: "OF", Object: "dept"})
		assert.Contains(t, sample.Labels, "Person")
	})

	t.Run("export and import", func(t *testing.T) {
		exported, err := graphio.Export(ctx, db)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, graphio.Encode(&buf, exported))
		decoded, err := graphio.Decode(&buf)
		require.NoError(t, err)

		report, err := graphio.Import(ctx, db, decoded, nil)
		require.NoError(t, err)
		assert.Equal(t, len(exported.Nodes), report.Nodes)
		assert.Equal(t, len(exported.Edges), report.Edges)
		assert.Equal(t, int64(len(exported.Nodes)), count(t, ctx, db, "MATCH (n) RETURN count(n) AS c"))
	})
}

func TestIntegrationRepository(t *testing.T) {
	ctx := context.Background()
	db := startNeo4j(t, ctx)
	m := neomap.NewManager(db)

	people, err := neomap.RepositoryFor[Researcher](m)
	require.NoError(t, err)
	projects, err := neomap.RepositoryFor[Project](m)
	require.NoError(t, err)

	r := &Researcher{Email: "ada@example.org", Name: "Ada", Age: 36}
	p := &Project{Code: "P1", Title: "Sequencing"}
	_, err = people.Save(ctx, r)
	require.NoError(t, err)
	_, err = projects.Save(ctx, p)
	require.NoError(t, err)
	require.NoError(t, m.CreateRelation(ctx, r, p, "WORKS_ON"))

	found, err := people.FindByID(ctx, "ada@example.org")
	require.NoError(t, err)
	assert.Equal(t, "Ada", found.Name)

	g, err := m.FindGraphQuery(ctx, "MATCH (a:Person)-[r:WORKS_ON]->(b:Project) RETURN a, r, b", nil)
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Edges, 1)

	require.NoError(t, projects.Delete(ctx, "P1"))
	_, err = projects.FindByID(ctx, "P1")
	assert.ErrorIs(t, err, neomap.ErrNotFound)
}
