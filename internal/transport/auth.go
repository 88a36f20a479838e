package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

type userKey struct{}

// UserResolver resolves a user ID from a bearer token.
type UserResolver interface {
	ResolveUser(ctx context.Context, token string) (string, error)
}

// UserFromContext returns the user ID from context, if present.
func UserFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(userKey{}).(string)
	return uid, ok
}

// AuthMiddleware enforces bearer token authentication.
func AuthMiddleware(resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			uid, err := resolver.ResolveUser(r.Context(), token)
			if err != nil || uid == "" {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userKey{}, uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StaticTokenResolver maps fixed tokens to user IDs, loaded from config.
type StaticTokenResolver struct {
	tokens map[string]string
}

// NewStaticTokenResolver creates a resolver over a token -> uid map.
func NewStaticTokenResolver(tokens map[string]string) *StaticTokenResolver {
	return &StaticTokenResolver{tokens: tokens}
}

func (r *StaticTokenResolver) ResolveUser(_ context.Context, token string) (string, error) {
	uid, ok := r.tokens[token]
	if !ok {
		return "", ErrUnauthorized
	}
	return uid, nil
}

// StaticUserMiddleware assigns every request a fixed user ID. Used for
// single-user local deployments with no tokens configured.
func StaticUserMiddleware(uid string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), userKey{}, uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
