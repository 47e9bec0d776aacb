package middleware

import (
	"context"
	"net/http"
	"strings"
	"unicode"

	"github.com/cloo-solutions/matchd/internal/api"
)

type contextKey string

const (
	ActorIDKey    contextKey = "actor_id"
	ActorIDHeader            = "X-Actor-ID"

	maxActorIDLength = 128
)

// ActorIdentity copies the caller identity from the X-Actor-ID header into the
// request context. Requests without the header pass through anonymously.
func ActorIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actorID := strings.TrimSpace(r.Header.Get(ActorIDHeader))
		if actorID == "" {
			next.ServeHTTP(w, r)
			return
		}

		if !validActorID(actorID) {
			api.Error(w, http.StatusBadRequest, "invalid actor id")
			return
		}

		ctx := context.WithValue(r.Context(), ActorIDKey, actorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireActor rejects requests that carry no actor identity.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetActorID(r.Context()) == "" {
			api.Error(w, http.StatusUnauthorized, "missing "+ActorIDHeader+" header")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetActorID(ctx context.Context) string {
	actorID, _ := ctx.Value(ActorIDKey).(string)
	return actorID
}

func validActorID(id string) bool {
	if len(id) > maxActorIDLength {
		return false
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
