package tools

import (
	"context"
	"fmt"

	agent "github.com/Protocol-Lattice/expense-agent"
	"github.com/Protocol-Lattice/expense-agent/src/store"
)

// SaveAttachmentTool stores the data the model extracted from an attachment.
type SaveAttachmentTool struct {
	Store store.Store
}

func NewSaveAttachmentTool(s store.Store) *SaveAttachmentTool {
	return &SaveAttachmentTool{Store: s}
}

func (t *SaveAttachmentTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "save_attachment_data",
		Description: "Stores the structured data extracted from a receipt, product photo or warranty card for the current user.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"json_data": documentSchema,
			},
			"required": []any{"json_data"},
		},
	}
}

func (t *SaveAttachmentTool) Invoke(ctx context.Context, req agent.ToolRequest) (agent.ToolResponse, error) {
	data, err := objectArg(req.Arguments, "json_data")
	if err != nil {
		return agent.ToolResponse{}, err
	}
	rec, err := t.Store.Save(ctx, req.UserID, data)
	if err != nil {
		return agent.ToolResponse{}, fmt.Errorf("failed to store document: %w", err)
	}
	return agent.ToolResponse{
		Content: fmt.Sprintf("stored %s document %s", store.DocumentType(rec.Data), rec.ID),
		Data: map[string]any{
			"status":       "stored",
			"id":           rec.ID,
			"documentType": store.DocumentType(rec.Data),
			"data":         rec.Data,
		},
		Metadata: map[string]string{"record_id": rec.ID},
	}, nil
}

var documentSchema = map[string]any{
	"type":        "object",
	"description": "Extracted document. documentType is one of Receipt, Product, Warranty, Other.",
	"properties": map[string]any{
		"documentType": map[string]any{
			"type": "string",
			"enum": []any{store.TypeReceipt, store.TypeProduct, store.TypeWarranty, store.TypeOther},
		},
		"isPartialReceipt": map[string]any{"type": "boolean"},
		"extractedData": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"receiptDetails": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"merchantName":   map[string]any{"type": "string"},
						"purchaseDate":   map[string]any{"type": "string", "description": "YYYY-MM-DD"},
						"purchaseTime":   map[string]any{"type": "string", "description": "HH:MM:SS"},
						"totalAmount":    map[string]any{"type": "number"},
						"currency":       map[string]any{"type": "string"},
						"taxAmount":      map[string]any{"type": "number"},
						"discountAmount": map[string]any{"type": "number"},
						"paymentMethod":  map[string]any{"type": "string"},
						"receiptNumber":  map[string]any{"type": "string"},
						"items": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"name":      map[string]any{"type": "string"},
									"quantity":  map[string]any{"type": "number"},
									"unitPrice": map[string]any{"type": "number"},
									"lineTotal": map[string]any{"type": "number"},
									"category":  map[string]any{"type": "string"},
								},
							},
						},
					},
				},
				"productDetails": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"productName":  map[string]any{"type": "string"},
						"brand":        map[string]any{"type": "string"},
						"model":        map[string]any{"type": "string"},
						"serialNumber": map[string]any{"type": "string"},
						"price":        map[string]any{"type": "number"},
						"currency":     map[string]any{"type": "string"},
					},
				},
				"warrantyDetails": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"productName":   map[string]any{"type": "string"},
						"provider":      map[string]any{"type": "string"},
						"startDate":     map[string]any{"type": "string", "description": "YYYY-MM-DD"},
						"endDate":       map[string]any{"type": "string", "description": "YYYY-MM-DD"},
						"coverage":      map[string]any{"type": "string"},
						"contactNumber": map[string]any{"type": "string"},
					},
				},
			},
		},
	},
	"required": []any{"documentType", "extractedData"},
}
