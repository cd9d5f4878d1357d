package middleware

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/angelmondragon/ordering-backend/api/responses"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
)

// orderIDParam is the route parameter of the /orders/{orderId} routes.
const orderIDParam = "orderId"

// Recoverer turns a handler panic into a 500 envelope. It must sit inside
// RequestID. The log entry names the session and order the request touched,
// which Session and the router only learn after Recoverer has started.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}
				err = fmt.Errorf("panic: %w", err)

				ctx := r.Context()
				if logg != nil {
					fields := map[string]any{"panic": fmt.Sprint(rec)}
					if tr := traceFromContext(ctx); tr != nil {
						if id := tr.session(); id != "" {
							fields["session_id"] = id
						}
					}
					if rctx := chi.RouteContext(ctx); rctx != nil {
						if pattern := rctx.RoutePattern(); pattern != "" {
							fields["route"] = pattern
						}
						if orderID := rctx.URLParam(orderIDParam); orderID != "" {
							fields["order_id"] = orderID
						}
					}
					logg.Error(logg.WithFields(ctx, fields), "panic.recovered", err)
				}

				if ww.Status() != 0 {
					// headers are already on the wire
					return
				}
				responses.WriteError(ctx, nil, ww, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "handler panicked"))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
