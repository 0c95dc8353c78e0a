package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	mw "github.com/kiranshivaraju/autodesign/internal/api/middleware"
	"github.com/kiranshivaraju/autodesign/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Sessions  *mw.Sessions
	RateLimit *mw.RateLimit

	HealthHandler    http.HandlerFunc
	JobStatusHandler http.HandlerFunc

	IndexHandler     http.HandlerFunc
	SubmitHandler    http.HandlerFunc
	NewDesignHandler http.HandlerFunc
	CancelHandler    http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Stateless JSON endpoints
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	r.Get("/api/v1/jobs/{requestID}", orNotImplemented(deps.JobStatusHandler))

	// Pages backed by a session cookie
	r.Group(func(r chi.Router) {
		if deps.Sessions != nil {
			r.Use(deps.Sessions.Attach)
		}

		r.Get("/", orNotImplemented(deps.IndexHandler))
		r.Post("/design/new", orNotImplemented(deps.NewDesignHandler))
		r.Post("/progress/cancel", orNotImplemented(deps.CancelHandler))

		r.Group(func(r chi.Router) {
			if deps.RateLimit != nil {
				r.Use(deps.RateLimit.Limit)
			}
			r.Post("/design", orNotImplemented(deps.SubmitHandler))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
