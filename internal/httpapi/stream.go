package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/michelutke/volleyball-scoreboard/internal/hub"
	"github.com/michelutke/volleyball-scoreboard/internal/types"
)

// MatchStream serves the per-match event stream.
func MatchStream(h *hub.Hub, log *zap.Logger, keepalive time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := matchID(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid match id"})
			return
		}
		serveStream(w, r, h, log, keepalive, id)
	}
}

// GlobalStream serves the legacy cross-match stream.
func GlobalStream(h *hub.Hub, log *zap.Logger, keepalive time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveStream(w, r, h, log, keepalive, hub.GlobalScope)
	}
}

// serveStream pushes hub events to one subscriber as text/event-stream
// frames. The goroutine parks in the select while idle; a keepalive comment
// goes out on a fixed interval so intermediate proxies keep the connection
// open. Any write failure ends the stream and the deferred cancel
// deregisters the sink.
func serveStream(w http.ResponseWriter, r *http.Request, h *hub.Hub, log *zap.Logger, keepalive time.Duration, scope uint) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sink := make(chan types.SSEEvent, 8)
	cancel := h.Subscribe(scope, sink)
	defer cancel()

	log.Debug("stream subscriber connected", zap.Uint("scope", scope))
	defer log.Debug("stream subscriber gone", zap.Uint("scope", scope))

	ticker := time.NewTicker(keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case ev, ok := <-sink:
			if !ok {
				// the hub dropped us
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				log.Error("marshal event", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
