package agent

import (
	"log/slog"

	"github.com/Protocol-Lattice/expense-agent/src/history"
)

// CallbackContext identifies the conversation a model call belongs to.
type CallbackContext struct {
	SessionID string
	UserID    string
	// Iteration counts model calls within one Respond, starting at 1.
	Iteration int
	Logger    *slog.Logger
}

// BeforeModelCallback runs immediately before every model call. It may only
// influence the call by editing req.Contents in place.
type BeforeModelCallback func(cc *CallbackContext, req *LLMRequest)

// TrimHistoryAttachments drops image and video attachments from all but the
// three most recent user messages.
func TrimHistoryAttachments(cc *CallbackContext, req *LLMRequest) {
	TrimHistoryAttachmentsKeep(history.KeepRecentUserTurns)(cc, req)
}

// TrimHistoryAttachmentsKeep is TrimHistoryAttachments with a custom window.
func TrimHistoryAttachmentsKeep(keep int) BeforeModelCallback {
	return func(cc *CallbackContext, req *LLMRequest) {
		if req == nil {
			return
		}
		removed := history.Trim(req.Contents, keep)
		if removed == 0 || cc == nil || cc.Logger == nil {
			return
		}
		cc.Logger.Debug("stripped history attachments",
			"session_id", cc.SessionID,
			"removed", removed,
			"keep", keep,
		)
	}
}
