package middleware

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"

	"github.com/2beens/blogbox/internal/auth"
	"github.com/2beens/blogbox/internal/telemetry/tracing"
	"github.com/2beens/blogbox/pkg"
)

// ResolveSession reads the session cookie, resolves it against the session
// store and, when valid, attaches the session to the request context. It
// never rejects a request on its own, that is RequireAuth's job.
func ResolveSession(resolver auth.Resolver, cookieName string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.resolveSession")
			defer span.End()

			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				span.SetStatus(codes.Ok, "no-cookie")
				next.ServeHTTP(w, r)
				return
			}

			session, err := resolver.Resolve(ctx, cookie.Value)
			if err != nil {
				if !errors.Is(err, auth.ErrSessionNotFound) {
					log.Errorf("resolve session for %s: %s", r.URL.Path, err)
					span.RecordError(err)
				}
				span.SetStatus(codes.Ok, "no-session")
				next.ServeHTTP(w, r)
				return
			}

			span.SetStatus(codes.Ok, "session-resolved")
			next.ServeHTTP(w, r.WithContext(auth.ContextWithSession(ctx, session)))
		})
	}
}

// RequireAuth guards handlers that need a signed-in actor. Requests without
// a resolved session are rejected before the handler runs, with no side
// effects.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.SessionFromContext(r.Context()); !ok {
			log.Tracef("[missing session] unauthorized => %s", r.URL.Path)
			pkg.WriteError(w, http.StatusUnauthorized, "Unauthorized", pkg.ErrCodeUnauthorized)
			return
		}
		next(w, r)
	}
}
