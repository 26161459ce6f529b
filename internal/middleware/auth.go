package middleware

import (
	"context"
	"errors"
	"net/http"

	"go-product-api/internal/model"
	"go-product-api/internal/token"
)

type identityResolver interface {
	Resolve(ctx context.Context, rawHeader string) (model.Principal, error)
}

type contextKey string

const principalContextKey contextKey = "principal"

type AuthMiddleware struct {
	resolver identityResolver
}

func NewAuthMiddleware(resolver identityResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// RequireAuth resolves the bearer token before the protected handler runs.
// On any resolver failure the pipeline short-circuits; the handler never
// observes a partially authenticated request.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			writeAuthFailure(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), principalContextKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(model.Principal)
	return principal, ok
}

func writeAuthFailure(w http.ResponseWriter, err error) {
	status := http.StatusUnauthorized
	var message string
	switch {
	case errors.Is(err, model.ErrMissingCredential):
		message = "Authorization Token not found"
	case errors.Is(err, token.ErrExpired):
		message = "Token is Expired"
	case errors.Is(err, token.ErrInvalidSignature), errors.Is(err, token.ErrMalformedToken):
		message = "Token is Invalid"
	case errors.Is(err, model.ErrTokenRevoked):
		message = "Token is Revoked"
	default:
		status = http.StatusInternalServerError
		message = "Unexpected server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsonEncode(w, model.APIResponse{
		Success: false,
		Message: message,
	})
}
