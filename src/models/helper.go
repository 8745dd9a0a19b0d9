package models

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
)

// MIME type lookup tables for fast access
var (
	mimeExtMap = map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".gif":  "image/gif",
		".webp": "image/webp",
		".heic": "image/heic",
		".heif": "image/heif",
		".mp4":  "video/mp4",
		".mov":  "video/quicktime",
		".webm": "video/webm",
		".pdf":  "application/pdf",
		".txt":  "text/plain",
		".md":   "text/markdown",
		".csv":  "text/csv",
		".json": "application/json",
	}

	mimeAliasMap = map[string]string{
		"image/jpg":   "image/jpeg",
		"image/pjpeg": "image/jpeg",
		"image/x-png": "image/png",
		"video/mov":   "video/quicktime",
	}

	// Cache for normalized MIME types
	mimeCache   = make(map[string]string, 100)
	mimeCacheMu sync.RWMutex
)

const mimeCacheLimit = 1000

// NewLLMProvider returns a concrete Agent for the named provider.
func NewLLMProvider(ctx context.Context, provider, model, apiKey string) (Agent, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gemini", "google":
		return NewGeminiLLM(ctx, model, apiKey)
	case "openai":
		return NewOpenAILLM(model, apiKey)
	case "dummy":
		return NewDummyLLM(""), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

// SanitizeForGemini coerces edge cases and filters to what Gemini accepts as
// inline data. It returns "" when the payload should not be attached.
func SanitizeForGemini(mt string) string {
	mt = strings.ToLower(strings.TrimSpace(mt))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	mt = collapseDoublePrefix(mt)
	if alias, ok := mimeAliasMap[mt]; ok {
		mt = alias
	}

	switch mt {
	case "image/png", "image/jpeg", "image/webp", "image/gif", "image/heic", "image/heif":
		return mt
	case "video/mp4", "video/quicktime", "video/webm", "video/mpeg":
		return mt
	case "application/pdf":
		return mt
	default:
		return ""
	}
}

// NormalizeMIME fixes messy/alias MIMEs and falls back to the file extension.
func NormalizeMIME(name, m string) string {
	cacheKey := name + "|" + m
	mimeCacheMu.RLock()
	if cached, ok := mimeCache[cacheKey]; ok {
		mimeCacheMu.RUnlock()
		return cached
	}
	mimeCacheMu.RUnlock()

	result := normalizeMIME(name, m)

	mimeCacheMu.Lock()
	if len(mimeCache) < mimeCacheLimit {
		mimeCache[cacheKey] = result
	}
	mimeCacheMu.Unlock()
	return result
}

func normalizeMIME(name, m string) string {
	strip := func(s string) string {
		if i := strings.IndexByte(s, ';'); i >= 0 {
			return strings.TrimSpace(s[:i])
		}
		return strings.TrimSpace(s)
	}

	fromExt := func() string {
		ext := strings.ToLower(filepath.Ext(name))
		if ext == "" {
			return ""
		}
		if mt, ok := mimeExtMap[ext]; ok {
			return mt
		}
		if mt := mime.TypeByExtension(ext); mt != "" {
			return strip(mt)
		}
		return ""
	}

	raw := strings.ToLower(strings.TrimSpace(m))
	if raw == "" {
		return fromExt()
	}
	raw = collapseDoublePrefix(strip(raw))

	if normalized, ok := mimeAliasMap[raw]; ok {
		return normalized
	}

	// Malformed or generic MIME -> use extension
	if !strings.Contains(raw, "/") || strings.HasSuffix(raw, "/") || raw == "application/octet-stream" {
		if via := fromExt(); via != "" {
			return via
		}
	}
	return raw
}

func collapseDoublePrefix(raw string) string {
	for strings.HasPrefix(raw, "image/image/") || strings.HasPrefix(raw, "video/video/") {
		if strings.HasPrefix(raw, "image/image/") {
			raw = "image/" + strings.TrimPrefix(raw, "image/image/")
		}
		if strings.HasPrefix(raw, "video/video/") {
			raw = "video/" + strings.TrimPrefix(raw, "video/video/")
		}
	}
	return raw
}

func isTextMIME(m string) bool {
	m = strings.ToLower(strings.TrimSpace(m))
	if m == "" {
		return false
	}
	if strings.HasPrefix(m, "text/") {
		return true
	}
	switch m {
	case "application/json", "application/xml", "application/x-yaml", "application/yaml":
		return true
	default:
		return false
	}
}

// IsImageOrVideoMIME checks if the MIME type is an image or video.
func IsImageOrVideoMIME(m string) bool {
	m = strings.ToLower(strings.TrimSpace(m))
	if m == "" {
		return false
	}
	return strings.HasPrefix(m, "image/") || strings.HasPrefix(m, "video/")
}

// FileParts converts uploads into transcript parts. Media Gemini understands is
// attached inline, text files are inlined as text, and anything else is
// referenced by name only.
func FileParts(files []File) []genai.Part {
	parts := make([]genai.Part, 0, len(files))
	for i, f := range files {
		title := strings.TrimSpace(f.Name)
		if title == "" {
			title = fmt.Sprintf("file_%d", i+1)
		}
		mt := NormalizeMIME(f.Name, f.MIME)

		if inline := SanitizeForGemini(mt); inline != "" && len(f.Data) > 0 {
			parts = append(parts, genai.Blob{MIMEType: inline, Data: f.Data})
			continue
		}
		if isTextMIME(mt) && len(f.Data) > 0 {
			var b strings.Builder
			b.Grow(len(f.Data) + len(title)*2 + 32)
			b.WriteString("<<<FILE ")
			b.WriteString(title)
			b.WriteString(">>>:\n")
			b.Write(f.Data)
			b.WriteString("\n<<<END FILE ")
			b.WriteString(title)
			b.WriteString(">>>")
			parts = append(parts, genai.Text(b.String()))
			continue
		}
		note := "[Non-text attachment] " + title
		if mt != "" {
			note += " (" + mt + ")"
		}
		parts = append(parts, genai.Text(note))
	}
	return parts
}
