package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a UNION ALL query across projects, project_nodes, and
// glossary_entries using plainto_tsquery and ts_rank, with ts_headline for
// snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text}
	argN := 2

	var subQueries []string

	if q.FilterType == "" || q.FilterType == ResultProject {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'project'::text AS type, p.id::text, p.name AS title,
				ts_headline('english', coalesce(p.description, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				p.id::text AS project_id,
				''::text AS node_type, ''::text AS path,
				ts_rank(p.fts, %s) AS rank
			FROM projects p
			WHERE p.fts @@ %s`, tsQuery, tsQuery, tsQuery))
	}

	if q.FilterType == "" || q.FilterType == ResultNode {
		nodeWhere := "n.fts @@ " + tsQuery
		if q.FilterProjectID != "" {
			nodeWhere += fmt.Sprintf(" AND n.project_id::text = $%d", argN)
			args = append(args, q.FilterProjectID)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'node'::text AS type, n.id::text, n.name AS title,
				ts_headline('english', coalesce(n.description, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				n.project_id::text,
				n.node_type, n.path,
				ts_rank(n.fts, %s) AS rank
			FROM project_nodes n
			WHERE %s`, tsQuery, tsQuery, nodeWhere))
	}

	if q.FilterType == "" || q.FilterType == ResultGlossary {
		glossaryWhere := "g.fts @@ " + tsQuery
		if q.FilterProjectID != "" {
			glossaryWhere += fmt.Sprintf(" AND g.project_id::text = $%d", argN)
			args = append(args, q.FilterProjectID)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'glossary'::text AS type, g.id::text, g.term AS title,
				ts_headline('english', g.definition, %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				g.project_id::text,
				''::text AS node_type, ''::text AS path,
				ts_rank(g.fts, %s) AS rank
			FROM glossary_entries g
			WHERE %s`, tsQuery, tsQuery, glossaryWhere))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, project_id, node_type, path
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.ProjectID, &r.NodeType, &r.Path); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]ProjectRecord, []NodeRecord, []GlossaryRecord, error) {
	projectRows, err := p.db.QueryContext(ctx, `
		SELECT id::text, name, COALESCE(description, '')
		FROM projects
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load projects: %w", err)
	}
	defer projectRows.Close()

	projects := make([]ProjectRecord, 0)
	for projectRows.Next() {
		var r ProjectRecord
		if err := projectRows.Scan(&r.ID, &r.Name, &r.Description); err != nil {
			return nil, nil, nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, r)
	}
	if err := projectRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate projects: %w", err)
	}

	nodeRows, err := p.db.QueryContext(ctx, `
		SELECT id::text, name, COALESCE(description, ''), project_id::text, node_type, path
		FROM project_nodes
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load nodes: %w", err)
	}
	defer nodeRows.Close()

	nodes := make([]NodeRecord, 0)
	for nodeRows.Next() {
		var r NodeRecord
		if err := nodeRows.Scan(&r.ID, &r.Name, &r.Description, &r.ProjectID, &r.NodeType, &r.Path); err != nil {
			return nil, nil, nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, r)
	}
	if err := nodeRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate nodes: %w", err)
	}

	glossaryRows, err := p.db.QueryContext(ctx, `
		SELECT id::text, term, definition, project_id::text
		FROM glossary_entries
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load glossary: %w", err)
	}
	defer glossaryRows.Close()

	entries := make([]GlossaryRecord, 0)
	for glossaryRows.Next() {
		var r GlossaryRecord
		if err := glossaryRows.Scan(&r.ID, &r.Term, &r.Definition, &r.ProjectID); err != nil {
			return nil, nil, nil, fmt.Errorf("scan glossary entry: %w", err)
		}
		entries = append(entries, r)
	}
	if err := glossaryRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate glossary: %w", err)
	}

	return projects, nodes, entries, nil
}
