package httpapi

import (
	"net/http"
	"time"

	"github.com/flow-heater/flow-heater/internal/logger"
)

func loggingMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.WithField("method", r.Method).
				WithField("path", r.URL.Path).
				WithField("duration_ms", time.Since(start).Milliseconds()).
				Info("handled request")
		})
	}
}

// userID extracts the caller identity from the fh-user-id header the
// original gateway used to scope processors per caller, returning the
// empty string when the header is absent (RequestProcessor.Normalize
// turns an empty owner into the default user on create/update).
func userID(r *http.Request) string {
	return r.Header.Get("fh-user-id")
}
