package tools

import (
	"context"
	"fmt"

	agent "github.com/Protocol-Lattice/expense-agent"
	"github.com/Protocol-Lattice/expense-agent/src/wallet"
)

// WalletPassTool issues a Google Wallet pass summarising a purchase.
type WalletPassTool struct {
	Issuer wallet.Issuer
}

func NewWalletPassTool(issuer wallet.Issuer) *WalletPassTool {
	return &WalletPassTool{Issuer: issuer}
}

func (t *WalletPassTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "create_wallet_pass",
		Description: "Creates a Google Wallet pass and returns the link the user opens to save it.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":  map[string]any{"type": "string", "description": "Card title, e.g. the merchant."},
				"header": map[string]any{"type": "string", "description": "Main line on the pass, e.g. the total."},
				"items": map[string]any{
					"type":        "array",
					"description": "Rows shown on the pass.",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name":  map[string]any{"type": "string"},
							"value": map[string]any{"type": "string"},
						},
						"required": []any{"name", "value"},
					},
				},
			},
			"required": []any{"title", "header"},
		},
	}
}

func (t *WalletPassTool) Invoke(ctx context.Context, req agent.ToolRequest) (agent.ToolResponse, error) {
	title, err := requiredString(req.Arguments, "title")
	if err != nil {
		return agent.ToolResponse{}, err
	}
	header, err := requiredString(req.Arguments, "header")
	if err != nil {
		return agent.ToolResponse{}, err
	}
	items, err := lineItems(req.Arguments["items"])
	if err != nil {
		return agent.ToolResponse{}, err
	}

	token, err := t.Issuer.Issue(ctx, title, header, items)
	if err != nil {
		return agent.ToolResponse{}, fmt.Errorf("failed to create wallet pass: %w", err)
	}
	url := wallet.SaveURL(token)
	return agent.ToolResponse{
		Content: url,
		Data:    map[string]any{"token": token, "save_url": url},
	}, nil
}

func lineItems(raw any) ([]wallet.LineItem, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("'items' must be an array")
	}
	items := make([]wallet.LineItem, 0, len(list))
	for i, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("items[%d] must be an object", i)
		}
		name := stringArg(obj, "name")
		if name == "" {
			return nil, fmt.Errorf("items[%d] is missing 'name'", i)
		}
		items = append(items, wallet.LineItem{Name: name, Value: stringArg(obj, "value")})
	}
	return items, nil
}
