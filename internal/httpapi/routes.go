package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/michelutke/volleyball-scoreboard/internal/hub"
	"github.com/michelutke/volleyball-scoreboard/internal/scoreboard"
	"github.com/michelutke/volleyball-scoreboard/internal/ws"
)

// SetupRoutes builds the router with the service and hub injected.
// keepalive is the idle comment interval of the SSE streams.
func SetupRoutes(svc *scoreboard.Service, h *hub.Hub, log *zap.Logger, keepalive time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/matches", ListMatches(svc, log))
		r.Post("/matches", CreateMatch(svc, log))

		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Get("/", GetMatch(svc, log))
			r.Put("/", UpdateMatch(svc, log))
			r.Delete("/", DeleteMatch(svc, log))
			r.Get("/scores", ListMatchScores(svc, log))
			r.Post("/activate", Activate(svc, log))
			r.Post("/abort", Abort(svc, log))
			r.Post("/cancel", Cancel(svc, log))
			r.Post("/timeout", TakeTimeout(svc, log))
			r.Delete("/timeout", CancelTimeout(svc, log))
			r.Get("/stream", MatchStream(h, log, keepalive))
			r.Get("/ws", ws.Handler(svc, h, log))
		})

		// legacy all-matches stream for /control and /overlay
		r.Get("/scores/stream", GlobalStream(h, log, keepalive))
	})

	return r
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
