package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer. If unset,
// requests fall back to the log package.
func SetLogger(l zerolog.Logger) { zlog = &l }

// requestLogger logs one line per request at the end of the handler chain,
// with the chi-assigned request ID when present.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sr, r)
		dur := time.Since(start)
		rid := middleware.GetReqID(r.Context())

		if zlog != nil {
			evt := zlog.Info().Str("method", r.Method).Str("path", r.URL.Path).
				Int("status", sr.status).Dur("duration", dur)
			if rid != "" {
				evt = evt.Str("request_id", rid)
			}
			evt.Msg("http request")
			return
		}
		log.Printf("method=%s path=%s status=%d duration=%s request_id=%s",
			r.Method, r.URL.Path, sr.status, dur, rid)
	})
}
