package store

import (
	"context"
	"errors"
	"testing"
)

func TestPostgresStoreNilSafety(t *testing.T) {
	var ps *PostgresStore
	if err := ps.Close(); err != nil {
		t.Fatalf("Close on nil store returned %v", err)
	}
	if err := ps.CreateSchema(context.Background()); err != nil {
		t.Fatalf("CreateSchema on nil store returned %v", err)
	}
	_, err := ps.Save(context.Background(), "u", receipt("2025-01-01", 1))
	if !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("expected operation error, got %v", err)
	}
	recs, err := ps.List(context.Background(), Query{UserID: "u"})
	if recs != nil || !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("List on nil store = %v, %v", recs, err)
	}
}

func TestNewPostgresStoreRequiresDSN(t *testing.T) {
	if _, err := NewPostgresStore(context.Background(), ""); !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("expected operation error for empty dsn, got %v", err)
	}
}
