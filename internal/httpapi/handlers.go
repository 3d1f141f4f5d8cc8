package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/michelutke/volleyball-scoreboard/internal/scoreboard"
	"github.com/michelutke/volleyball-scoreboard/internal/store"
	"github.com/michelutke/volleyball-scoreboard/internal/types"
)

func matchID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "matchID"), 10, 32)
	return uint(id), err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the service error taxonomy onto HTTP statuses, keeping
// the message distinguishable for the caller.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrMatchNotFound),
		errors.Is(err, store.ErrScoreNotFound),
		errors.Is(err, store.ErrNoTimeoutToCancel):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrNothingToUndo),
		errors.Is(err, scoreboard.ErrTimeoutLimit),
		errors.Is(err, scoreboard.ErrUnknownAction),
		errors.Is(err, scoreboard.ErrInvalidTeam),
		errors.Is(err, scoreboard.ErrMatchNotLive):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func ListMatches(svc *scoreboard.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries, err := svc.List(r.Context())
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, summaries)
	}
}

func CreateMatch(svc *scoreboard.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			HomeTeamName     *string `json:"homeTeamName"`
			GuestTeamName    *string `json:"guestTeamName"`
			HomeJerseyColor  *string `json:"homeJerseyColor"`
			GuestJerseyColor *string `json:"guestJerseyColor"`
			ShowJerseyColors *bool   `json:"showJerseyColors"`
			Activate         bool    `json:"activate"`
		}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
				return
			}
		}

		state, err := svc.Create(r.Context(), scoreboard.CreateParams{
			HomeTeamName:     body.HomeTeamName,
			GuestTeamName:    body.GuestTeamName,
			HomeJerseyColor:  body.HomeJerseyColor,
			GuestJerseyColor: body.GuestJerseyColor,
			ShowJerseyColors: body.ShowJerseyColors,
			Activate:         body.Activate || r.URL.Query().Get("activate") == "1",
		})
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, state)
	}
}

func GetMatch(svc *scoreboard.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := matchID(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid match id"})
			return
		}
		state, err := svc.Get(r.Context(), id)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

// UpdateMatch dispatches a scoring action when the body carries one, and
// otherwise treats the body as a settings patch.
func UpdateMatch(svc *scoreboard.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := matchID(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid match id"})
			return
		}

		var body types.UpdateMatchRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}

		if body.Action != "" {
			state, err := svc.Dispatch(r.Context(), id, body.Action, body.Team)
			if err != nil {
				writeError(w, log, err)
				return
			}
			writeJSON(w, http.StatusOK, state)
			return
		}

		state, err := svc.UpdateSettings(r.Context(), id, body)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

// DeleteMatch removes a match together with its snapshots and timeouts.
func DeleteMatch(svc *scoreboard.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := matchID(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid match id"})
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func ListMatchScores(svc *scoreboard.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := matchID(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid match id"})
			return
		}
		states, err := svc.History(r.Context(), id)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, states)
	}
}

func Activate(svc *scoreboard.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := matchID(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid match id"})
			return
		}
		state, err := svc.Activate(r.Context(), id)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func Abort(svc *scoreboard.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := matchID(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid match id"})
			return
		}
		if err := svc.Abort(r.Context(), id); err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func Cancel(svc *scoreboard.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := matchID(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid match id"})
			return
		}
		if err := svc.Cancel(r.Context(), id); err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func TakeTimeout(svc *scoreboard.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := matchID(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid match id"})
			return
		}
		var body types.TimeoutRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		used, err := svc.Timeout(r.Context(), id, body.Team)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, types.TimeoutResponse{OK: true, TimeoutsUsed: used})
	}
}

func CancelTimeout(svc *scoreboard.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := matchID(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid match id"})
			return
		}
		var body types.TimeoutRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		used, err := svc.CancelTimeout(r.Context(), id, body.Team)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, types.TimeoutResponse{OK: true, TimeoutsUsed: used})
	}
}
