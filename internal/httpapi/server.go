package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewMux builds the observability HTTP surface over svc: /status, /healthz,
// /readyz, /metrics, /aliases, plus a swagger mount (a no-op unless built
// with -tags=swagger).
//
// @title		modelhub API
// @version		1.0
// @description	Optional HTTP observability facade over an in-process model runtime.
// @BasePath	/
// @schemes		http
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(requestLogger)
	r.Use(metricsMiddleware)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
		}))
	}

	// @Summary		List aliases
	// @Description	Reports every catalog alias with its task, provider, model, and best-effort lifecycle state.
	// @Produce		json
	// @Success		200	{array}	AliasSummary
	// @Router		/aliases [get]
	r.Get("/aliases", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Aliases())
	})

	// @Summary	Liveness probe
	// @Success	200	{string}	string	"ok"
	// @Router		/healthz [get]
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// @Summary	Readiness probe
	// @Success	200	{string}	string	"ready"
	// @Failure	503	{string}	string	"loading"
	// @Router		/readyz [get]
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})

	// @Summary	Status summary
	// @Produce	json
	// @Success	200	{object}	map[string]any
	// @Router		/status [get]
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ready":   svc.Ready(),
			"aliases": svc.Aliases(),
		})
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// writeJSON encodes v as the response body. status must be 200; anything
// else should go through writeJSONError instead, since ResponseWriter does
// not allow a header rewrite once a body write has begun.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}
