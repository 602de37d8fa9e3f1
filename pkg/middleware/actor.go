package middleware

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/discovery/pkg/errors"
	"github.com/utafrali/discovery/pkg/httputil"
	"github.com/utafrali/discovery/pkg/logger"
)

// ActorHeader carries the authenticated user id, set by the API gateway
// after it has verified the caller's credentials.
const ActorHeader = "X-User-ID"

type actorKey struct{}

// Actor reads ActorHeader and, when present, stores it in the request
// context. Requests without the header continue as anonymous.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := strings.TrimSpace(r.Header.Get(ActorHeader)); id != "" {
			ctx := context.WithValue(r.Context(), actorKey{}, id)
			ctx = logger.WithActorID(ctx, id)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireActor rejects anonymous requests with 401. Mount it after Actor.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ActorFromContext(r.Context()); !ok {
			httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ActorFromContext returns the actor id stored by Actor.
func ActorFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(actorKey{}).(string)
	return id, ok && id != ""
}

// WithActor returns ctx carrying id as the actor. Intended for tests and
// non-HTTP callers.
func WithActor(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, actorKey{}, id)
}
