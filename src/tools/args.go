// Package tools exposes the document store and the wallet issuer to the model.
package tools

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

func stringArg(args map[string]any, name string) string {
	v, ok := args[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func requiredString(args map[string]any, name string) (string, error) {
	s := stringArg(args, name)
	if s == "" {
		return "", fmt.Errorf("missing '%s' argument", name)
	}
	return s, nil
}

// amountArg parses an optional amount. Negative values mean "no bound".
func amountArg(args map[string]any, name string) (*float64, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid '%s': %w", name, err)
		}
		f = parsed
	case string:
		if strings.TrimSpace(n) == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid '%s': %w", name, err)
		}
		f = parsed
	default:
		return nil, fmt.Errorf("invalid '%s': expected a number", name)
	}
	if f < 0 {
		return nil, nil
	}
	return &f, nil
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", time.DateOnly}

// dateArg accepts a calendar date or an ISO timestamp and returns midnight
// UTC of the calendar day as written, whatever the timestamp's offset.
func dateArg(args map[string]any, name string) (time.Time, error) {
	s := stringArg(args, name)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			y, m, d := ts.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid '%s': expected YYYY-MM-DD or an ISO timestamp, got %q", name, s)
}

// objectArg accepts a JSON object or a string holding one.
func objectArg(args map[string]any, name string) (map[string]any, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, fmt.Errorf("missing '%s' argument", name)
	}
	switch obj := v.(type) {
	case map[string]any:
		return obj, nil
	case string:
		out := map[string]any{}
		if err := json.Unmarshal([]byte(obj), &out); err != nil {
			return nil, fmt.Errorf("'%s' is not a JSON object: %w", name, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("'%s' must be a JSON object", name)
	}
}
