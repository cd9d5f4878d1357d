package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/angelmondragon/ordering-backend/pkg/logger"
)

const RequestIDHeader = "X-Request-Id"

// Ids from upstream proxies are kept only when they are short and safe to log.
var requestIDRe = regexp.MustCompile(`^[A-Za-z0-9._:-]{8,64}$`)

// RequestID assigns each request an id, echoes it in X-Request-Id and starts
// the trace that Session and Recoverer share. Callers quote the header when
// reporting a failed checkout.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(RequestIDHeader)
			if !requestIDRe.MatchString(reqID) {
				reqID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, reqID)

			ctx := withTrace(r.Context(), &requestTrace{requestID: reqID})
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
