package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	agent "github.com/Protocol-Lattice/expense-agent"
	"github.com/Protocol-Lattice/expense-agent/src/store"
)

const defaultReceiptLimit = 50

// GetReceiptsTool lists the current user's stored documents. When more than
// Limit match, the newest Limit are described and the reply says how many
// were left out.
type GetReceiptsTool struct {
	Store store.Store
	Limit int
}

func NewGetReceiptsTool(s store.Store) *GetReceiptsTool {
	return &GetReceiptsTool{Store: s, Limit: defaultReceiptLimit}
}

func (t *GetReceiptsTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "get_receipts",
		Description: "Lists the user's stored documents, optionally filtered by purchase date range, total amount and document type.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"start_date": map[string]any{
					"type":        "string",
					"description": "Earliest purchase date, inclusive (YYYY-MM-DD).",
				},
				"end_date": map[string]any{
					"type":        "string",
					"description": "Latest purchase date, inclusive (YYYY-MM-DD).",
				},
				"min_total_amount": map[string]any{
					"type":        "number",
					"description": "Minimum total amount, inclusive. Omit or use -1 for no bound.",
				},
				"max_total_amount": map[string]any{
					"type":        "number",
					"description": "Maximum total amount, inclusive. Omit or use -1 for no bound.",
				},
				"document_type": map[string]any{
					"type": "string",
					"enum": []any{store.TypeReceipt, store.TypeProduct, store.TypeWarranty, store.TypeOther},
				},
			},
		},
	}
}

func (t *GetReceiptsTool) Invoke(ctx context.Context, req agent.ToolRequest) (agent.ToolResponse, error) {
	q := store.Query{UserID: req.UserID, DocumentType: stringArg(req.Arguments, "document_type")}
	var err error
	if q.Start, err = dateArg(req.Arguments, "start_date"); err != nil {
		return agent.ToolResponse{}, err
	}
	if q.End, err = dateArg(req.Arguments, "end_date"); err != nil {
		return agent.ToolResponse{}, err
	}
	if !q.Start.IsZero() && !q.End.IsZero() && q.End.Before(q.Start) {
		return agent.ToolResponse{}, fmt.Errorf("end_date is before start_date")
	}
	if q.MinTotal, err = amountArg(req.Arguments, "min_total_amount"); err != nil {
		return agent.ToolResponse{}, err
	}
	if q.MaxTotal, err = amountArg(req.Arguments, "max_total_amount"); err != nil {
		return agent.ToolResponse{}, err
	}

	records, err := t.Store.List(ctx, q)
	if err != nil {
		return agent.ToolResponse{}, fmt.Errorf("error filtering receipts: %w", err)
	}
	shown := records
	if t.Limit > 0 && len(shown) > t.Limit {
		shown = shown[len(shown)-t.Limit:]
	}
	return agent.ToolResponse{
		Content: describeRecords(shown, len(records)),
		Metadata: map[string]string{
			"count": fmt.Sprint(len(records)),
			"shown": fmt.Sprint(len(shown)),
		},
	}, nil
}

func describeRecords(records []store.Record, total int) string {
	if len(records) == 0 {
		return "No matching documents found."
	}
	var b strings.Builder
	if total > len(records) {
		fmt.Fprintf(&b, "Found %d document(s), showing the %d most recent; %d older match(es) omitted:\n", total, len(records), total-len(records))
	} else {
		fmt.Fprintf(&b, "Found %d document(s):\n", len(records))
	}
	for _, rec := range records {
		b.WriteString("\n")
		b.WriteString(describeRecord(rec))
	}
	return b.String()
}

func describeRecord(rec store.Record) string {
	body, err := json.Marshal(rec.Data["extractedData"])
	if err != nil {
		body = []byte("{}")
	}
	docType := store.DocumentType(rec.Data)
	if docType != store.TypeReceipt {
		return fmt.Sprintf("- [%s] id=%s data=%s", docType, rec.ID, body)
	}
	details := store.ReceiptDetails(rec.Data)
	merchant, _ := details["merchantName"].(string)
	currency, _ := details["currency"].(string)
	date := "unknown date"
	if day, ok := store.PurchaseDate(rec.Data); ok {
		date = day.Format("2006-01-02")
	}
	total := "unknown total"
	if amount, ok := store.TotalAmount(rec.Data); ok {
		total = strings.TrimSpace(fmt.Sprintf("%.2f %s", amount, currency))
	}
	return fmt.Sprintf("- [Receipt] id=%s merchant=%q date=%s total=%s data=%s", rec.ID, merchant, date, total, body)
}
