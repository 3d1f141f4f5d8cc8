// Package ws serves the control-panel websocket: it pushes the same events
// as the SSE streams and additionally accepts scoring commands.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/michelutke/volleyball-scoreboard/internal/hub"
	"github.com/michelutke/volleyball-scoreboard/internal/scoreboard"
	"github.com/michelutke/volleyball-scoreboard/internal/store"
	"github.com/michelutke/volleyball-scoreboard/internal/types"
)

const writeTimeout = 3 * time.Second

func Handler(svc *scoreboard.Service, h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id64, err := strconv.ParseUint(chi.URLParam(r, "matchID"), 10, 32)
		if err != nil {
			http.Error(w, "invalid match id", http.StatusBadRequest)
			return
		}
		matchID := uint(id64)

		state, err := svc.Get(r.Context(), matchID)
		if err != nil {
			if errors.Is(err, store.ErrMatchNotFound) || errors.Is(err, store.ErrScoreNotFound) {
				http.Error(w, "match not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		sink := make(chan types.SSEEvent, 8)
		cancel := h.Subscribe(matchID, sink)
		defer cancel()

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()

		// current state first, so the panel renders before the next rally
		if err := writeMsg(writeCtx, conn, types.SSEEvent{Type: types.EventScore, Data: state}); err != nil {
			return
		}

		// Writer goroutine
		go func() {
			for ev := range sink {
				if err := writeMsg(writeCtx, conn, ev); err != nil {
					writeCancel()
					return
				}
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeMsg(r.Context(), conn, types.ErrorMessage{Type: "error", Error: "bad json"})
				continue
			}

			if err := dispatch(r.Context(), svc, matchID, cm); err != nil {
				writeMsg(r.Context(), conn, types.ErrorMessage{Type: "error", Error: err.Error()})
			}
			// the resulting event comes back through the hub subscription
		}
	}
}

func dispatch(ctx context.Context, svc *scoreboard.Service, matchID uint, cm types.ClientMessage) error {
	switch cm.Type {
	case "action":
		_, err := svc.Dispatch(ctx, matchID, cm.Action, cm.Team)
		return err
	case "timeout":
		_, err := svc.Timeout(ctx, matchID, cm.Team)
		return err
	case "cancelTimeout":
		_, err := svc.CancelTimeout(ctx, matchID, cm.Team)
		return err
	default:
		return scoreboard.ErrUnknownAction
	}
}

func writeMsg(ctx context.Context, conn *websocket.Conn, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, payload)
}
