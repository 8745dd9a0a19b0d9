package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMongoDocumentToRecordReturnsPlainJSON(t *testing.T) {
	raw, err := bson.Marshal(receipt("2025-04-01", 19.99))
	if err != nil {
		t.Fatalf("bson.Marshal returned error: %v", err)
	}
	ts := time.Now().UTC().Truncate(time.Millisecond)
	oid := primitive.NewObjectID()

	rec, err := mongoDocument{ID: oid, UserID: "alice", Data: raw, CreatedAt: ts}.toRecord()
	if err != nil {
		t.Fatalf("toRecord returned error: %v", err)
	}
	if rec.ID != oid.Hex() || rec.UserID != "alice" || !rec.CreatedAt.Equal(ts) {
		t.Fatalf("unexpected record header: %+v", rec)
	}
	if DocumentType(rec.Data) != TypeReceipt {
		t.Fatalf("expected receipt document, got %v", rec.Data["documentType"])
	}
	total, ok := TotalAmount(rec.Data)
	if !ok || total != 19.99 {
		t.Fatalf("expected total 19.99, got %v (%v)", total, ok)
	}
	if _, ok := rec.Data["extractedData"].(map[string]any); !ok {
		t.Fatalf("expected nested documents as map[string]any, got %T", rec.Data["extractedData"])
	}
}

func TestPlainDocumentEmpty(t *testing.T) {
	out, err := plainDocument(nil)
	if err != nil || len(out) != 0 {
		t.Fatalf("unexpected result: %v %v", out, err)
	}
}

func TestMongoStoreNilSafety(t *testing.T) {
	var ms *MongoStore
	if err := ms.Close(); err != nil {
		t.Fatalf("Close on nil store returned %v", err)
	}
	if recs, err := ms.List(context.Background(), Query{UserID: "u"}); !errors.Is(err, ErrOperationFailed) || recs != nil {
		t.Fatalf("List on nil store = %v, %v", recs, err)
	}
	_, err := ms.Save(context.Background(), "u", receipt("2025-01-01", 1))
	if !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("expected operation error, got %v", err)
	}
}

func TestNewMongoStoreValidatesArguments(t *testing.T) {
	ctx := context.Background()
	if _, err := NewMongoStore(ctx, "", "db", "c"); !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("expected uri error")
	}
	if _, err := NewMongoStore(ctx, "mongodb://localhost", "", "c"); !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("expected database error")
	}
	if _, err := NewMongoStore(ctx, "mongodb://localhost", "db", ""); !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("expected collection error")
	}
}

func TestMongoFilterLeavesDocumentTypeToMatch(t *testing.T) {
	q := Query{UserID: "alice", DocumentType: "Receipt"}
	if got := mongoFilter(q); len(got) != 1 || got["user_id"] != "alice" {
		t.Fatalf("unexpected filter: %v", got)
	}

	raw, err := bson.Marshal(map[string]any{"documentType": "receipt", "extractedData": map[string]any{}})
	if err != nil {
		t.Fatalf("bson.Marshal returned error: %v", err)
	}
	rec, err := mongoDocument{ID: primitive.NewObjectID(), UserID: "alice", Data: raw}.toRecord()
	if err != nil {
		t.Fatalf("toRecord returned error: %v", err)
	}
	if got := filterRecords([]Record{rec}, q); len(got) != 1 {
		t.Fatalf("expected lowercase documentType to match Receipt, got %d records", len(got))
	}
}
