package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateTerm is returned when a glossary term already exists within a
// project.
var ErrDuplicateTerm = errors.New("glossary term already exists")

// ErrDuplicateName is returned when a project name is already taken.
var ErrDuplicateName = errors.New("project name already exists")

const pgUniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (s *PostgresStore) InsertProject(ctx context.Context, item Project) (Project, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO projects (name, description, creator_id, creator_name, editor_id, editor_name)
		VALUES ($1, $2, $3, $4, $3, $4)
		RETURNING id, created_at, edited_at
	`, item.Name, item.Description, item.CreatorID, item.CreatorName).Scan(&item.ID, &item.CreatedAt, &item.EditedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Project{}, ErrDuplicateName
		}
		return Project{}, fmt.Errorf("insert project: %w", err)
	}
	item.EditorID = item.CreatorID
	item.EditorName = item.CreatorName
	return item, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(description, ''), creator_id, creator_name, created_at, editor_id, editor_name, edited_at
		FROM projects
		ORDER BY edited_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	items := make([]Project, 0)
	for rows.Next() {
		var item Project
		if err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Description,
			&item.CreatorID,
			&item.CreatorName,
			&item.CreatedAt,
			&item.EditorID,
			&item.EditorName,
			&item.EditedAt,
		); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, projectID int64) (Project, error) {
	var item Project
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(description, ''), creator_id, creator_name, created_at, editor_id, editor_name, edited_at
		FROM projects
		WHERE id=$1
	`, projectID).Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.CreatorID,
		&item.CreatorName,
		&item.CreatedAt,
		&item.EditorID,
		&item.EditorName,
		&item.EditedAt,
	)
	if err != nil {
		return Project{}, err
	}
	return item, nil
}

func (s *PostgresStore) UpdateProject(ctx context.Context, projectID int64, name, description, editorID, editorName string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET name=$2, description=$3, editor_id=$4, editor_name=$5, edited_at=NOW()
		WHERE id=$1
	`, projectID, name, description, editorID, editorName)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("update project: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) DeleteProject(ctx context.Context, projectID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id=$1`, projectID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

const nodeColumns = `id, project_id, parent_id, node_type, name, COALESCE(description, ''), path, sort, status, document_id, COALESCE(creator_id, ''), COALESCE(creator_name, ''), created_at, COALESCE(editor_id, ''), COALESCE(editor_name, ''), edited_at`

func scanNode(scan func(...any) error) (ProjectNode, error) {
	var item ProjectNode
	err := scan(
		&item.ID,
		&item.ProjectID,
		&item.ParentID,
		&item.NodeType,
		&item.Name,
		&item.Description,
		&item.Path,
		&item.Sort,
		&item.Status,
		&item.DocumentID,
		&item.CreatorID,
		&item.CreatorName,
		&item.CreatedAt,
		&item.EditorID,
		&item.EditorName,
		&item.EditedAt,
	)
	return item, err
}

func (s *PostgresStore) InsertNode(ctx context.Context, item ProjectNode) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO project_nodes (id, project_id, parent_id, node_type, name, description, path, sort, status, document_id, creator_id, creator_name, editor_id, editor_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $11, $12)
	`, item.ID, item.ProjectID, item.ParentID, item.NodeType, item.Name, item.Description, item.Path, item.Sort, item.Status, item.DocumentID, item.CreatorID, item.CreatorName)
	if err != nil {
		return fmt.Errorf("insert node: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListProjectNodes(ctx context.Context, projectID int64) ([]ProjectNode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+nodeColumns+`
		FROM project_nodes
		WHERE project_id=$1
		ORDER BY sort ASC, created_at ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	items := make([]ProjectNode, 0)
	for rows.Next() {
		item, err := scanNode(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetNode(ctx context.Context, nodeID string) (ProjectNode, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+nodeColumns+`
		FROM project_nodes
		WHERE id=$1
	`, nodeID)
	item, err := scanNode(row.Scan)
	if err != nil {
		return ProjectNode{}, err
	}
	return item, nil
}

func (s *PostgresStore) UpdateNode(ctx context.Context, nodeID, name, description string, sort int, editorID, editorName string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE project_nodes
		SET name=$2, description=$3, sort=$4, editor_id=$5, editor_name=$6, edited_at=NOW()
		WHERE id=$1
	`, nodeID, name, description, sort, editorID, editorName)
	if err != nil {
		return fmt.Errorf("update node: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update node rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteNodeSubtree removes a node and every descendant, along with their
// function documents. It returns the document ids that were attached so the
// caller can drop their content.
func (s *PostgresStore) DeleteNodeSubtree(ctx context.Context, projectID int64, path string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id
		FROM project_nodes
		WHERE project_id=$1 AND (path=$2 OR path LIKE $2 || '/%') AND document_id IS NOT NULL
	`, projectID, path)
	if err != nil {
		return nil, fmt.Errorf("collect subtree documents: %w", err)
	}
	defer rows.Close()

	documentIDs := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan subtree document id: %w", err)
		}
		documentIDs = append(documentIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subtree documents: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin subtree delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM function_documents
		WHERE function_node_id IN (
			SELECT id FROM project_nodes
			WHERE project_id=$1 AND (path=$2 OR path LIKE $2 || '/%')
		)
	`, projectID, path); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("delete subtree function documents: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM project_nodes
		WHERE project_id=$1 AND (path=$2 OR path LIKE $2 || '/%')
	`, projectID, path); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("delete subtree nodes: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit subtree delete: %w", err)
	}
	return documentIDs, nil
}

func (s *PostgresStore) GetNodeType(ctx context.Context, code string) (NodeType, error) {
	var item NodeType
	err := s.db.QueryRowContext(ctx, `
		SELECT code, COALESCE(name, ''), COALESCE(parent_allow, '')
		FROM node_types
		WHERE code=$1
	`, code).Scan(&item.Code, &item.Name, &item.ParentAllow)
	if err != nil {
		return NodeType{}, err
	}
	return item, nil
}

// AllowsParent reports whether a node of this type may sit under a node of
// parentType. Empty parentType means the root of the tree.
func (t NodeType) AllowsParent(parentType string) bool {
	if strings.TrimSpace(t.ParentAllow) == "" {
		return parentType == ""
	}
	for _, allowed := range strings.Split(t.ParentAllow, ",") {
		if strings.TrimSpace(allowed) == parentType {
			return true
		}
	}
	return false
}

func (s *PostgresStore) InsertFunctionDocument(ctx context.Context, functionNodeID, creatorID, creatorName string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO function_documents (function_node_id, creator_id, creator_name, editor_id, editor_name)
		VALUES ($1, $2, $3, $2, $3)
		RETURNING id
	`, functionNodeID, creatorID, creatorName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert function document: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetFunctionDocument(ctx context.Context, documentID int64) (FunctionDocument, error) {
	var item FunctionDocument
	err := s.db.QueryRowContext(ctx, `
		SELECT id, function_node_id, COALESCE(creator_id, ''), COALESCE(creator_name, ''), created_at, COALESCE(editor_id, ''), COALESCE(editor_name, ''), edited_at
		FROM function_documents
		WHERE id=$1
	`, documentID).Scan(
		&item.ID,
		&item.FunctionNodeID,
		&item.CreatorID,
		&item.CreatorName,
		&item.CreatedAt,
		&item.EditorID,
		&item.EditorName,
		&item.EditedAt,
	)
	if err != nil {
		return FunctionDocument{}, err
	}
	return item, nil
}

func (s *PostgresStore) TouchFunctionDocument(ctx context.Context, documentID int64, editorID, editorName string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE function_documents
		SET editor_id=$2, editor_name=$3, edited_at=NOW()
		WHERE id=$1
	`, documentID, editorID, editorName)
	if err != nil {
		return fmt.Errorf("touch function document: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertGlossaryEntry(ctx context.Context, item GlossaryEntry) (GlossaryEntry, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO glossary_entries (project_id, term, definition, creator_id, creator_name, editor_id, editor_name)
		VALUES ($1, $2, $3, $4, $5, $4, $5)
		RETURNING id, created_at, edited_at
	`, item.ProjectID, item.Term, item.Definition, item.CreatorID, item.CreatorName).Scan(&item.ID, &item.CreatedAt, &item.EditedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return GlossaryEntry{}, ErrDuplicateTerm
		}
		return GlossaryEntry{}, fmt.Errorf("insert glossary entry: %w", err)
	}
	item.EditorID = item.CreatorID
	item.EditorName = item.CreatorName
	return item, nil
}

func (s *PostgresStore) ListGlossary(ctx context.Context, projectID int64) ([]GlossaryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, term, definition, COALESCE(creator_id, ''), COALESCE(creator_name, ''), created_at, COALESCE(editor_id, ''), COALESCE(editor_name, ''), edited_at
		FROM glossary_entries
		WHERE project_id=$1
		ORDER BY term ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list glossary: %w", err)
	}
	defer rows.Close()

	items := make([]GlossaryEntry, 0)
	for rows.Next() {
		var item GlossaryEntry
		if err := rows.Scan(
			&item.ID,
			&item.ProjectID,
			&item.Term,
			&item.Definition,
			&item.CreatorID,
			&item.CreatorName,
			&item.CreatedAt,
			&item.EditorID,
			&item.EditorName,
			&item.EditedAt,
		); err != nil {
			return nil, fmt.Errorf("scan glossary entry: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate glossary: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetGlossaryEntry(ctx context.Context, entryID int64) (GlossaryEntry, error) {
	var item GlossaryEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, term, definition, COALESCE(creator_id, ''), COALESCE(creator_name, ''), created_at, COALESCE(editor_id, ''), COALESCE(editor_name, ''), edited_at
		FROM glossary_entries
		WHERE id=$1
	`, entryID).Scan(
		&item.ID,
		&item.ProjectID,
		&item.Term,
		&item.Definition,
		&item.CreatorID,
		&item.CreatorName,
		&item.CreatedAt,
		&item.EditorID,
		&item.EditorName,
		&item.EditedAt,
	)
	if err != nil {
		return GlossaryEntry{}, err
	}
	return item, nil
}

func (s *PostgresStore) UpdateGlossaryEntry(ctx context.Context, entryID int64, term, definition, editorID, editorName string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE glossary_entries
		SET term=$2, definition=$3, editor_id=$4, editor_name=$5, edited_at=NOW()
		WHERE id=$1
	`, entryID, term, definition, editorID, editorName)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTerm
		}
		return fmt.Errorf("update glossary entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update glossary entry rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) DeleteGlossaryEntry(ctx context.Context, entryID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM glossary_entries WHERE id=$1`, entryID)
	if err != nil {
		return fmt.Errorf("delete glossary entry: %w", err)
	}
	return nil
}
