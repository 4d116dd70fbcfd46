package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
)

type contextKey struct{}

// WithCaller stores the authenticated caller in ctx.
func WithCaller(ctx context.Context, addr wallet.Address) context.Context {
	return context.WithValue(ctx, contextKey{}, addr)
}

// CallerFromContext returns the caller placed by Middleware, if any.
func CallerFromContext(ctx context.Context) (wallet.Address, bool) {
	addr, ok := ctx.Value(contextKey{}).(wallet.Address)
	return addr, ok && addr != ""
}

// Middleware resolves a bearer token into the request's caller. Requests
// without a token pass through anonymously; a bad token is rejected.
func Middleware(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			tokenString, found := strings.CutPrefix(header, "Bearer ")
			if !found {
				unauthorized(w, "authorization header must be a bearer token")
				return
			}
			claims, err := tokens.Validate(tokenString)
			if err != nil {
				unauthorized(w, err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), claims.Address)))
		})
	}
}

// RequireCaller rejects anonymous requests.
func RequireCaller(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CallerFromContext(r.Context()); !ok {
			unauthorized(w, "authentication required")
			return
		}
		next(w, r)
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
