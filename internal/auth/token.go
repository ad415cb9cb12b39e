package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ExtractTokenFromRequest reads the bearer token from the Authorization header.
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}
	return parts[1], nil
}

// HS256Verifier validates tokens signed with a shared secret.
type HS256Verifier struct {
	secret    []byte
	roleClaim string
}

func NewHS256Verifier(secret, roleClaim string) *HS256Verifier {
	if roleClaim == "" {
		roleClaim = "role"
	}
	return &HS256Verifier{secret: []byte(secret), roleClaim: roleClaim}
}

func (v *HS256Verifier) Verify(_ context.Context, rawToken string) (*Identity, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return identityFromClaims(claims, v.roleClaim)
}

// identityFromClaims reads the subject and role. The role claim may be a
// plain string, a list, or a nested path such as realm_access.roles.
func identityFromClaims(claims map[string]interface{}, roleClaim string) (*Identity, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errors.New("subject claim not found in token")
	}
	return &Identity{Subject: sub, Role: roleFrom(claims, roleClaim)}, nil
}

func roleFrom(claims map[string]interface{}, path string) string {
	var cur interface{} = claims
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return ""
		}
		cur = m[part]
	}
	switch v := cur.(type) {
	case string:
		return v
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && knownRole(s) {
				return s
			}
		}
	}
	return ""
}
