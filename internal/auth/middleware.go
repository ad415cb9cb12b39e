package auth

import (
	"context"
	"fmt"
	"net/http"

	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/config"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/utils"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller.
type Identity struct {
	Subject string
	Role    string
}

// Verifier turns a raw bearer token into an Identity.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

// NewVerifier picks OIDC when an issuer is configured, then HS256 when a
// secret is configured. It returns nil when neither is set, which puts the
// middleware in anonymous dev mode.
func NewVerifier(ctx context.Context, cfg config.AuthConfig, log *logger.Logger) (Verifier, error) {
	switch {
	case cfg.OIDCIssuer != "":
		v, err := NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.RoleClaim)
		if err != nil {
			return nil, err
		}
		log.Info("AUTH", "verifying tokens against "+cfg.OIDCIssuer)
		return v, nil
	case cfg.JWTSecret != "":
		log.Info("AUTH", "verifying HS256 tokens with the shared secret")
		return NewHS256Verifier(cfg.JWTSecret, cfg.RoleClaim), nil
	default:
		log.LogSecurity("ANONYMOUS_MODE", "no OIDC_ISSUER or JWT_SECRET configured; every request acts as owner")
		return nil, nil
	}
}

// Middleware authenticates requests. With a nil verifier every request is
// treated as an anonymous owner.
func Middleware(v Verifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				ctx := WithIdentity(r.Context(), &Identity{Subject: "anonymous", Role: models.RoleOwner})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			raw, err := ExtractTokenFromRequest(r)
			if err != nil {
				utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("Unauthorized", err.Error()))
				return
			}
			id, err := v.Verify(r.Context(), raw)
			if err != nil {
				log.LogSecurity("INVALID_TOKEN", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
				utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("Unauthorized", "invalid token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole rejects callers whose role is not in roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := FromContext(r.Context())
			if id == nil || !allowed[id.Role] {
				utils.WriteError(w, "Forbidden", apperrors.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// UserID returns the subject of the caller, or "" when unauthenticated.
func UserID(ctx context.Context) string {
	if id := FromContext(ctx); id != nil {
		return id.Subject
	}
	return ""
}
