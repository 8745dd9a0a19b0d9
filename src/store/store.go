// Package store persists extracted documents per user.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrOperationFailed wraps every failure reported by a Store.
	ErrOperationFailed = errors.New("store: operation failed")
	// ErrInvalidDocument marks documents rejected before they reach a backend.
	ErrInvalidDocument = errors.New("invalid document")
)

// Document types accepted in the documentType field.
const (
	TypeReceipt  = "Receipt"
	TypeProduct  = "Product"
	TypeWarranty = "Warranty"
	TypeOther    = "Other"
)

// Record is one stored document. Data is kept exactly as the model produced it.
type Record struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
}

// Query selects a user's records. Zero values disable a filter. Date and
// amount bounds are inclusive and apply to receipt details only. Limit keeps
// the most recently saved matches.
type Query struct {
	UserID       string
	DocumentType string
	Start        time.Time
	End          time.Time
	MinTotal     *float64
	MaxTotal     *float64
	Limit        int
}

// Store defines the contract for document backends.
type Store interface {
	Save(ctx context.Context, userID string, data map[string]any) (Record, error)
	List(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// SchemaInitializer allows stores to expose optional schema/bootstrap routines.
type SchemaInitializer interface {
	CreateSchema(ctx context.Context) error
}

func opError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrOperationFailed, op, err)
}

func invalid(format string, args ...any) error {
	return opError("save", fmt.Errorf("%w: "+format, append([]any{ErrInvalidDocument}, args...)...))
}

// ValidateDocument checks the fields every stored document must carry.
func ValidateDocument(userID string, data map[string]any) error {
	if strings.TrimSpace(userID) == "" {
		return invalid("user id is required")
	}
	if data == nil {
		return invalid("json_data must be an object")
	}
	raw, ok := data["documentType"]
	if !ok {
		return invalid("documentType is required in json_data")
	}
	docType, _ := raw.(string)
	if canonicalType(docType) == "" {
		return invalid("unsupported documentType %v", raw)
	}
	extracted, ok := data["extractedData"]
	if !ok {
		return invalid("extractedData is required in json_data")
	}
	if _, ok := extracted.(map[string]any); !ok {
		return invalid("extractedData must be an object")
	}
	return nil
}

func canonicalType(s string) string {
	for _, t := range []string{TypeReceipt, TypeProduct, TypeWarranty, TypeOther} {
		if strings.EqualFold(strings.TrimSpace(s), t) {
			return t
		}
	}
	return ""
}

// DocumentType returns the canonical document type of data, or "".
func DocumentType(data map[string]any) string {
	s, _ := data["documentType"].(string)
	return canonicalType(s)
}

// ReceiptDetails returns extractedData.receiptDetails, or nil.
func ReceiptDetails(data map[string]any) map[string]any {
	extracted, _ := data["extractedData"].(map[string]any)
	details, _ := extracted["receiptDetails"].(map[string]any)
	return details
}

// PurchaseDate parses receiptDetails.purchaseDate (YYYY-MM-DD).
func PurchaseDate(data map[string]any) (time.Time, bool) {
	s, _ := ReceiptDetails(data)["purchaseDate"].(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if len(s) > len(time.DateOnly) {
		s = s[:len(time.DateOnly)]
	}
	ts, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// TotalAmount returns receiptDetails.totalAmount as a float.
func TotalAmount(data map[string]any) (float64, bool) {
	return number(ReceiptDetails(data)["totalAmount"])
}

// Match reports whether rec satisfies every filter in q.
func Match(rec Record, q Query) bool {
	if q.UserID != "" && rec.UserID != q.UserID {
		return false
	}
	if q.DocumentType != "" && DocumentType(rec.Data) != canonicalType(q.DocumentType) {
		return false
	}
	if !q.Start.IsZero() || !q.End.IsZero() {
		day, ok := PurchaseDate(rec.Data)
		if !ok {
			return false
		}
		if !q.Start.IsZero() && day.Before(truncateDay(q.Start)) {
			return false
		}
		if !q.End.IsZero() && day.After(truncateDay(q.End)) {
			return false
		}
	}
	if q.MinTotal != nil || q.MaxTotal != nil {
		total, ok := TotalAmount(rec.Data)
		if !ok {
			return false
		}
		if q.MinTotal != nil && total < *q.MinTotal {
			return false
		}
		if q.MaxTotal != nil && total > *q.MaxTotal {
			return false
		}
	}
	return true
}

// filterRecords applies the in-process filters to records sorted oldest
// first. A positive limit keeps the newest matches.
func filterRecords(recs []Record, q Query) []Record {
	out := recs[:0]
	for _, rec := range recs {
		if Match(rec, q) {
			out = append(out, rec)
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
