// Package history rewrites a conversation transcript before it is sent to the
// model.
package history

import (
	"strings"

	"github.com/google/generative-ai-go/genai"
)

// KeepRecentUserTurns is the number of most recent plain user turns that keep
// their image and video attachments.
const KeepRecentUserTurns = 3

const roleUser = "user"

// TrimAttachments strips image and video blobs from every plain user turn
// older than the KeepRecentUserTurns most recent ones. The transcript is
// modified in place; turns are never added, removed or reordered.
func TrimAttachments(contents []*genai.Content) {
	Trim(contents, KeepRecentUserTurns)
}

// Trim applies the retention policy with the given window and returns the
// number of blobs it removed. A non-positive keep strips attachments from
// every plain user turn.
func Trim(contents []*genai.Content, keep int) int {
	removed := 0
	seen := 0
	for i := len(contents) - 1; i >= 0; i-- {
		c := contents[i]
		if !IsPlainUserTurn(c) {
			continue
		}
		seen++
		if seen <= keep {
			continue
		}
		kept := make([]genai.Part, 0, len(c.Parts))
		for _, p := range c.Parts {
			if IsVisualAttachment(p) {
				removed++
				continue
			}
			kept = append(kept, p)
		}
		c.Parts = kept
	}
	return removed
}

// IsPlainUserTurn reports whether c is a message typed by the user rather than
// a tool result. Function responses travel with the user role, so a user turn
// whose first part is a function response is not a plain user turn, whatever
// follows it.
func IsPlainUserTurn(c *genai.Content) bool {
	if c == nil || c.Role != roleUser {
		return false
	}
	if len(c.Parts) == 0 {
		return true
	}
	return !IsFunctionResponse(c.Parts[0])
}

// IsFunctionResponse reports whether p carries a tool result.
func IsFunctionResponse(p genai.Part) bool {
	switch p.(type) {
	case genai.FunctionResponse, *genai.FunctionResponse:
		return true
	}
	return false
}

// IsVisualAttachment reports whether p is an inline image or video payload.
func IsVisualAttachment(p genai.Part) bool {
	var mimeType string
	switch b := p.(type) {
	case genai.Blob:
		mimeType = b.MIMEType
	case *genai.Blob:
		if b == nil {
			return false
		}
		mimeType = b.MIMEType
	default:
		return false
	}
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	return strings.HasPrefix(mt, "image/") || strings.HasPrefix(mt, "video/")
}
