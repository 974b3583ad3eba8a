package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// keepAliveInterval spaces SSE comment lines so idle proxies keep the
// stream open.
const keepAliveInterval = 25 * time.Second

// widgetEvents streams widget lifecycle events as Server-Sent Events.
func (h *Handler) widgetEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{
			Code: http.StatusServiceUnavailable, Message: "event stream is not available",
		})
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Code: http.StatusInternalServerError, Message: "streaming not supported",
		})
		return
	}

	events := h.events.Subscribe(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error("marshal widget event", "error", err)
				continue
			}
			_, _ = fmt.Fprintf(w, "event: widget.%s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}
