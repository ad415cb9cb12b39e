package ledger_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ms-boxoffice/internal/utils"
)

// StreamTotals pushes the totals of one event to a door or bar screen every
// time a sale, correction or close touches it.
func (h *Handler) StreamTotals(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventId")
	if err != nil {
		utils.WriteError(w, "Invalid event", err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Subscribe before the initial read so a write landing in between is
	// queued instead of lost.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	updates := h.Emitter.Subscribe(ctx, eventID)

	initial, err := h.Service.GetEventTotals(ctx, eventID)
	if err != nil {
		utils.WriteError(w, "Could not load totals", err)
		return
	}

	setupSSEHeaders(w)

	h.writeEvent(w, "totals", initial)
	flusher.Flush()
	h.Logger.Info("SSE", fmt.Sprintf("client watching event %d", eventID))

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.writeEvent(w, update.Kind, update)
			flusher.Flush()
		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("client left event %d", eventID))
			return
		}
	}
}

func (h *Handler) writeEvent(w http.ResponseWriter, name string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("serialize %s: %v", name, err))
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}
