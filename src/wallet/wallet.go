// Package wallet issues Google Wallet generic passes for stored purchases.
package wallet

import (
	"context"
	"errors"
	"fmt"
)

// ErrOperationFailed wraps every failure reported by an Issuer.
var ErrOperationFailed = errors.New("wallet: operation failed")

// SaveURLPrefix is the "Add to Google Wallet" link prefix for signed tokens.
const SaveURLPrefix = "https://pay.google.com/gp/v/save/"

// LineItem is one row rendered on the pass.
type LineItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Issuer turns pass content into an opaque signed token.
type Issuer interface {
	Issue(ctx context.Context, title, header string, items []LineItem) (string, error)
}

// SaveURL returns the link a user opens to save the pass.
func SaveURL(token string) string {
	return SaveURLPrefix + token
}

func opError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrOperationFailed, op, err)
}
