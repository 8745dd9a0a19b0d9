package main

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/Protocol-Lattice/expense-agent/src/models"
)

// loadFiles converts paths → []models.File with best-effort MIME detection.
func loadFiles(paths ...string) ([]models.File, error) {
	var out []models.File
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		m := mime.TypeByExtension(strings.ToLower(filepath.Ext(p)))
		if m == "" {
			peek := data
			if len(peek) > 512 {
				peek = peek[:512]
			}
			m = http.DetectContentType(peek)
		}
		if (m == "" || m == "application/octet-stream") && isLikelyText(data) {
			m = "text/plain; charset=utf-8"
		}
		out = append(out, models.File{Name: filepath.Base(p), MIME: m, Data: data})
	}
	return out, nil
}

func isLikelyText(b []byte) bool {
	if len(b) == 0 || !utf8.Valid(b) {
		return false
	}
	const max = 1024
	limit := len(b)
	if limit > max {
		limit = max
	}
	nul := 0
	for i := 0; i < limit; i++ {
		if b[i] == 0 {
			nul++
			if nul > 1 {
				return false
			}
		}
	}
	return true
}
