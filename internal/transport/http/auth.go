package http

import (
	"fmt"
	"net/http"
	"strings"

	"clafootix/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Authenticator resolves the calling user. With a secret configured it
// verifies the backend's HS256 access tokens and uses their subject; without
// one it trusts the userId query parameter (local development only).
type Authenticator struct {
	secret []byte
	issuer string
}

func NewAuthenticator(secret, issuer string) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer}
}

// UserID returns the authenticated user id for the request.
func (a *Authenticator) UserID(r *http.Request) (string, error) {
	if len(a.secret) == 0 {
		if userID := r.URL.Query().Get("userId"); userID != "" {
			return userID, nil
		}
		return "", domain.ErrUnauthorized
	}

	raw := bearerToken(r)
	if raw == "" {
		return "", domain.ErrUnauthorized
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if !token.Valid {
		return "", fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", domain.ErrUnauthorized)
	}
	return claims.Subject, nil
}

// bearerToken reads the Authorization header, falling back to the token query
// parameter since browsers cannot set headers on websocket upgrades.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return r.URL.Query().Get("token")
}
