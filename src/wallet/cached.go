package wallet

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Protocol-Lattice/expense-agent/src/cache"
)

// CachedIssuer returns the same token for identical pass content within the
// TTL, so a retried tool call does not mint a second pass.
type CachedIssuer struct {
	Issuer Issuer
	Cache  *cache.LRUCache[string]
}

// NewCachedIssuer wraps issuer with an LRU token cache.
func NewCachedIssuer(issuer Issuer, size int, ttl time.Duration) *CachedIssuer {
	return &CachedIssuer{Issuer: issuer, Cache: cache.NewLRUCache[string](size, ttl)}
}

func (c *CachedIssuer) Issue(ctx context.Context, title, header string, items []LineItem) (string, error) {
	payload, err := json.Marshal(struct {
		Title  string     `json:"title"`
		Header string     `json:"header"`
		Items  []LineItem `json:"items"`
	}{title, header, items})
	if err != nil {
		return "", opError("issue", err)
	}
	key := cache.HashKey(payload)
	if token, ok := c.Cache.Get(key); ok {
		return token, nil
	}
	token, err := c.Issuer.Issue(ctx, title, header, items)
	if err != nil {
		return "", err
	}
	c.Cache.Set(key, token)
	return token, nil
}

var _ Issuer = (*CachedIssuer)(nil)
