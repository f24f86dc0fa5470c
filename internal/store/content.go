package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// GetContent loads the stored body of a document. A document that has never
// been written reads back as an empty object rather than an error.
func (s *PostgresStore) GetContent(ctx context.Context, documentID int64) (any, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT content FROM document_content WHERE document_id=$1
	`, documentID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	var content any
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, fmt.Errorf("decode content %d: %w", documentID, err)
	}
	return content, nil
}

func (s *PostgresStore) SetContent(ctx context.Context, documentID int64, content any) error {
	encoded, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO document_content (document_id, content)
		VALUES ($1, $2)
		ON CONFLICT (document_id) DO UPDATE SET content=EXCLUDED.content, updated_at=NOW()
	`, documentID, encoded)
	if err != nil {
		return fmt.Errorf("write content: %w", err)
	}
	return nil
}

// DeleteContent removes a stored body. Deleting a document that was never
// written succeeds without effect.
func (s *PostgresStore) DeleteContent(ctx context.Context, documentID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM document_content WHERE document_id=$1`, documentID)
	if err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	return nil
}
