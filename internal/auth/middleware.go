package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

const contextSubjectKey contextKey = "sub"

// Middleware resolves the bearer token into an actor id on the request
// context. A missing or invalid token yields an anonymous context rather
// than a transport-level failure; operations that need an identity
// reject anonymous callers themselves.
func Middleware(m *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			subject, err := m.Parse(tokenString)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), subject)))
		})
	}
}

// WithActor returns a context carrying the authenticated user id.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextSubjectKey, userID)
}

// ActorID returns the authenticated user id, or "" for anonymous requests.
func ActorID(ctx context.Context) string {
	if subject, ok := ctx.Value(contextSubjectKey).(string); ok {
		return strings.TrimSpace(subject)
	}
	return ""
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
