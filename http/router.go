package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"magit/logger"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Financing *FinancingHandler
	Search    *SearchHandler
	Visits    *VisitHandler
	Admin     *AdminHandler
	OG        *OGHandler
	Health    *HealthHandler

	Auth          *Authenticator
	SearchLimiter *RateLimiter

	// RequestTimeout bounds ordinary requests; the district backfill is exempt.
	RequestTimeout time.Duration
}

func NewRouter(h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Client-Info", "apikey"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	timeout := h.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	withTimeout := middleware.Timeout(timeout)

	r.Group(func(r chi.Router) {
		r.Use(withTimeout)

		r.Get("/health", h.Health.Health)
		r.Get("/og/properties/{id}", h.OG.Property)

		r.Route("/financing", func(r chi.Router) {
			r.Post("/calculate", h.Financing.Calculate)
			r.Get("/periods", h.Financing.Periods)
			r.Post("/plans", h.Financing.Plans)

			r.Group(func(r chi.Router) {
				r.Use(h.Auth.Middleware)
				r.Post("/requests", h.Financing.CreateRequest)
				r.Get("/requests", h.Financing.ListRequests)
			})
		})

		r.With(RateLimitMiddleware(h.SearchLimiter)).Post("/search", h.Search.Search)

		r.Route("/visits", func(r chi.Router) {
			r.Use(h.Auth.Middleware)
			r.Post("/", h.Visits.Create)
			r.Get("/", h.Visits.List)
			r.Patch("/{id}", h.Visits.UpdateStatus)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.Auth.Middleware, RequireAdmin)

		r.Group(func(r chi.Router) {
			r.Use(withTimeout)
			r.Patch("/financing/requests/{id}", h.Financing.ReviewRequest)
			r.Get("/properties/pending", h.Admin.ListPending)
			r.Post("/properties/{id}/moderate", h.Admin.Moderate)
			r.Post("/properties/{id}/halal", h.Admin.ReviewHalal)
		})

		// Backfill paces geocoder calls and can outlive the request timeout.
		r.Post("/districts/backfill", h.Admin.BackfillDistricts)
	})

	return r
}

// requestLogger writes one structured access log line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			event := logger.Info()
			if status >= http.StatusInternalServerError {
				event = logger.Error()
			}
			event.
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote", r.RemoteAddr).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		}()

		next.ServeHTTP(ww, r)
	})
}
