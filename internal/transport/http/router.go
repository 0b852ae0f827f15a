package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Engine is the full action and read surface the router exposes.
type Engine interface {
	Claimer
	Canceller
	Confirmer
	Rejecter
	QueueLeaver
	StatusReader
	StatusLister
}

// RouterConfig carries the knobs the router needs beyond the engine itself.
type RouterConfig struct {
	Logger         zerolog.Logger
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter builds the HTTP surface: read endpoints unthrottled, action
// endpoints behind a per-client rate limit.
func NewRouter(eng Engine, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(cfg.Logger))
	r.NotFound(NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(MethodNotAllowedHandler().ServeHTTP)

	r.Get("/health", HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/slots", func(r chi.Router) {
		r.Get("/", HandleListSlots(eng))
		r.Get("/{slotID}", HandleSlotStatus(eng))

		r.Group(func(r chi.Router) {
			if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst > 0 {
				r.Use(RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
			}
			r.Post("/{slotID}/claim", HandleClaim(eng))
			r.Post("/{slotID}/cancel", HandleCancel(eng))
			r.Post("/{slotID}/confirm", HandleConfirm(eng))
			r.Post("/{slotID}/reject", HandleReject(eng))
			r.Post("/{slotID}/queue/leave", HandleLeaveQueue(eng))
		})
	})

	return r
}
