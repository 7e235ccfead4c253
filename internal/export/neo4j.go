package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jExporter writes call trees into Neo4j using batched UNWIND queries.
type Neo4jExporter struct {
	driver   neo4j.DriverWithContext
	database string
	log      *slog.Logger
}

// NewNeo4jExporter connects to uri and verifies the connection.
func NewNeo4jExporter(ctx context.Context, uri, user, password, database string, log *slog.Logger) (*Neo4jExporter, error) {
	if log == nil {
		log = slog.Default()
	}
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connect to %s: %w", uri, err)
	}
	return &Neo4jExporter{driver: driver, database: database, log: log}, nil
}

// Close releases the driver.
func (e *Neo4jExporter) Close(ctx context.Context) error {
	return e.driver.Close(ctx)
}

var indexQueries = []string{
	"CREATE INDEX callchain_type IF NOT EXISTS FOR (n:CallchainType) ON (n.qualified)",
	"CREATE INDEX callchain_method IF NOT EXISTS FOR (n:CallchainMethod) ON (n.id)",
	"CREATE INDEX callchain_run IF NOT EXISTS FOR (n:CallchainRun) ON (n.id)",
}

const (
	typesQuery = `UNWIND $batch AS row
		MERGE (t:CallchainType {qualified: row.qualified})
		SET t.name = row.name`

	methodsQuery = `UNWIND $batch AS row
		MERGE (m:CallchainMethod {id: row.id})
		SET m.name = row.name, m.owner = row.owner, m.params = row.params,
		    m.return_type = row.return_type, m.file = row.file, m.line = row.line,
		    m.doc = row.doc, m.external = row.external
		WITH m, row
		MATCH (t:CallchainType {qualified: row.owner})
		MERGE (t)-[:HAS_METHOD]->(m)`

	callsQuery = `UNWIND $batch AS row
		MATCH (a:CallchainMethod {id: row.caller}), (b:CallchainMethod {id: row.callee})
		MERGE (a)-[r:CALLS {run: $run, depth: row.depth, order: row.order}]->(b)
		SET r.recursive = row.recursive, r.implements = row.implements, r.statement = row.statement`

	runQuery = `MERGE (r:CallchainRun {id: $run.id})
		SET r.language = $run.language, r.root = $run.root, r.entry = $run.entry,
		    r.max_depth = $run.max_depth, r.created = $run.created
		WITH r
		MATCH (m:CallchainMethod {id: $run.entry_id})
		MERGE (r)-[:ENTRY]->(m)`
)

// Export creates the indexes and upserts types, methods, calls and the run node.
func (e *Neo4jExporter) Export(ctx context.Context, b Batches) error {
	for _, q := range indexQueries {
		if err := e.run(ctx, q, nil); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	runID, _ := b.Run["id"].(string)
	steps := []struct {
		name   string
		query  string
		params map[string]any
		rows   int
	}{
		{"types", typesQuery, map[string]any{"batch": b.Types}, len(b.Types)},
		{"methods", methodsQuery, map[string]any{"batch": b.Methods}, len(b.Methods)},
		{"calls", callsQuery, map[string]any{"batch": b.Calls, "run": runID}, len(b.Calls)},
	}
	for _, s := range steps {
		e.log.Debug("loading batch", slog.String("kind", s.name), slog.Int("rows", s.rows))
		if err := e.run(ctx, s.query, s.params); err != nil {
			return fmt.Errorf("load %s: %w", s.name, err)
		}
	}
	if _, ok := b.Run["entry_id"]; ok {
		if err := e.run(ctx, runQuery, map[string]any{"run": b.Run}); err != nil {
			return fmt.Errorf("load run: %w", err)
		}
	}
	e.log.Info("call tree exported",
		slog.String("run", runID),
		slog.Int("methods", len(b.Methods)),
		slog.Int("calls", len(b.Calls)))
	return nil
}

func (e *Neo4jExporter) run(ctx context.Context, cypher string, params map[string]any) error {
	_, err := neo4j.ExecuteQuery(ctx, e.driver, cypher, params, neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(e.database))
	return err
}
