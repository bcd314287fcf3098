package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/linkmirror/linkmirror/internal/domain"
	"github.com/linkmirror/linkmirror/internal/httpserver/deps"
	"github.com/linkmirror/linkmirror/internal/logger"
	"github.com/linkmirror/linkmirror/internal/sync"
)

// maxEventBody bounds the webhook payload size.
const maxEventBody = 1 << 20

// Sync is the webhook endpoint: one inbound event in, one plain-text
// status phrase out.
func Sync(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
		if err != nil {
			d.Logger.Warn("failed to read event body", logger.Error(err))
			writeStatus(w, http.StatusBadRequest, "Invalid request body.")
			return
		}

		d.Logger.Debug("event received",
			logger.String("body", string(body)))

		var ev domain.SyncEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			d.Logger.Warn("event body is not valid JSON", logger.Error(err))
			writeStatus(w, http.StatusBadRequest, "Invalid request body.")
			return
		}

		res := d.Orchestrator.Handle(r.Context(), &ev)

		switch res.Status {
		case sync.StatusApplied, sync.StatusNoAction:
			writeStatus(w, http.StatusOK, res.Message)
		case sync.StatusInvalid:
			writeStatus(w, http.StatusBadRequest, res.Message)
		default:
			writeStatus(w, http.StatusInternalServerError, res.Message)
		}
	}
}

func writeStatus(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(msg))
}
