package auth

import (
	"context"
	"fmt"

	"ms-boxoffice/internal/models"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCVerifier checks tokens issued by an OpenID Connect provider
// (Keycloak in production).
type OIDCVerifier struct {
	verifier  *oidc.IDTokenVerifier
	roleClaim string
}

func NewOIDCVerifier(ctx context.Context, issuer, roleClaim string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("create OIDC provider: %w", err)
	}
	if roleClaim == "" {
		roleClaim = "realm_access.roles"
	}
	return &OIDCVerifier{
		verifier:  provider.Verifier(&oidc.Config{SkipClientIDCheck: true}),
		roleClaim: roleClaim,
	}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	var claims map[string]interface{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}
	return identityFromClaims(claims, v.roleClaim)
}

func knownRole(role string) bool {
	return role == models.RoleOwner || role == models.RolePromoter
}
