package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *PostgresStore {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("STUDIO_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("STUDIO_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.ExecContext(ctx, `DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;`); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	if err := ApplyMigrations(ctx, db, filepath.Join("..", "..", "db", "migrations")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	return NewPostgresStore(db)
}

func TestContentRoundTripPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	s := openTestStore(t)
	ctx := context.Background()

	got, err := s.GetContent(ctx, 42)
	if err != nil {
		t.Fatalf("read absent content: %v", err)
	}
	if !reflect.DeepEqual(got, map[string]any{}) {
		t.Fatalf("absent content should read as empty object, got %#v", got)
	}

	doc := map[string]any{
		"type": "doc",
		"content": []any{
			map[string]any{"type": "paragraph", "content": []any{
				map[string]any{"type": "text", "text": "hello"},
			}},
		},
	}
	if err := s.SetContent(ctx, 42, doc); err != nil {
		t.Fatalf("write content: %v", err)
	}

	got, err = s.GetContent(ctx, 42)
	if err != nil {
		t.Fatalf("read content: %v", err)
	}
	if !reflect.DeepEqual(got, any(doc)) {
		t.Fatalf("content round trip mismatch: %#v", got)
	}

	// Second write must replace, not duplicate.
	if err := s.SetContent(ctx, 42, map[string]any{"type": "doc", "content": []any{}}); err != nil {
		t.Fatalf("rewrite content: %v", err)
	}
	got, err = s.GetContent(ctx, 42)
	if err != nil {
		t.Fatalf("reread content: %v", err)
	}
	m, ok := got.(map[string]any)
	if !ok || len(m["content"].([]any)) != 0 {
		t.Fatalf("expected rewritten content, got %#v", got)
	}

	if err := s.DeleteContent(ctx, 42); err != nil {
		t.Fatalf("delete content: %v", err)
	}
	if err := s.DeleteContent(ctx, 42); err != nil {
		t.Fatalf("delete of absent content should be a no-op: %v", err)
	}
}

func TestGlossaryDuplicateTermPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	s := openTestStore(t)
	ctx := context.Background()

	project, err := s.InsertProject(ctx, Project{Name: "glossary-test", CreatorID: "u1", CreatorName: "Tester"})
	if err != nil {
		t.Fatalf("insert project: %v", err)
	}

	entry := GlossaryEntry{ProjectID: project.ID, Term: "SLA", Definition: "service level agreement", CreatorID: "u1", CreatorName: "Tester"}
	if _, err := s.InsertGlossaryEntry(ctx, entry); err != nil {
		t.Fatalf("insert glossary entry: %v", err)
	}
	if _, err := s.InsertGlossaryEntry(ctx, entry); !errors.Is(err, ErrDuplicateTerm) {
		t.Fatalf("expected ErrDuplicateTerm, got %v", err)
	}
}
