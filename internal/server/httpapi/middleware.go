package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/logging"
	"github.com/dmitrijs2005/meanstack/internal/server/acl"
	"github.com/dmitrijs2005/meanstack/internal/server/auth"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey int

const userKey ctxKey = iota

var errUnexpectedAuthorization = common.NewAppError(common.CodeUnexpectedAuthorization, http.StatusInternalServerError, "Unexpected authorization error")

// UserFromContext returns the authenticated caller, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

func withUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// requestLogger logs one line per request once the response is written.
func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}

// authenticate attaches the JWT user to the context. Requests without a
// token pass through as guests; invalid or expired tokens are rejected.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := h.tokens.Authenticate(r)
		switch res.Status {
		case auth.Failed:
			h.writeError(w, r, res.Err)
			return
		case auth.Authenticated:
			r = r.WithContext(withUser(r.Context(), res.User))
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			h.writeError(w, r, common.ErrorUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authorize checks the matched route pattern against the policy. It must
// run after routing, so it is attached inline on the route groups.
func (h *Handler) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())

		req := acl.Request{Method: r.Method, Params: map[string]string{}}
		if rctx != nil {
			req.Pattern = rctx.RoutePattern()
			for i, k := range rctx.URLParams.Keys {
				req.Params[k] = rctx.URLParams.Values[i]
			}
		}
		if u, ok := UserFromContext(r.Context()); ok {
			req.User = u
		}

		allowed, err := h.policy.Check(r.Context(), req)
		if err != nil {
			h.logger.Error(r.Context(), "authorization check failed", "pattern", req.Pattern, "error", err)
			writeAppError(w, errUnexpectedAuthorization)
			return
		}
		if !allowed {
			h.writeError(w, r, common.ErrorForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
