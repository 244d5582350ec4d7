package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// ErrInvalidCredentials is returned for any rejected bearer token
var ErrInvalidCredentials = errors.New("invalid authentication credentials")

type contextKey string

const principalKey contextKey = "principal"

// Principal identifies an authenticated caller
type Principal struct {
	Subject string
	Method  string // "static" or "jwt"
}

// Authenticator accepts the static API key and, when configured, HS256 JWTs.
// With neither configured every request is allowed.
type Authenticator struct {
	staticKey []byte
	jwt       *JWTValidator
}

// NewAuthenticator creates an authenticator. validator may be nil.
func NewAuthenticator(staticKey string, validator *JWTValidator) *Authenticator {
	return &Authenticator{staticKey: []byte(staticKey), jwt: validator}
}

// Enabled reports whether credentials are checked at all
func (a *Authenticator) Enabled() bool {
	return len(a.staticKey) > 0 || a.jwt != nil
}

// Authenticate checks a raw bearer token
func (a *Authenticator) Authenticate(token string) (Principal, error) {
	if !a.Enabled() {
		return Principal{Subject: "anonymous", Method: "none"}, nil
	}
	if token == "" {
		return Principal{}, ErrMissingToken
	}
	if len(a.staticKey) > 0 && subtle.ConstantTimeCompare([]byte(token), a.staticKey) == 1 {
		return Principal{Subject: "api-key", Method: "static"}, nil
	}
	if a.jwt != nil {
		claims, err := a.jwt.ValidateToken(token)
		if err != nil {
			return Principal{}, err
		}
		return Principal{Subject: claims.Subject, Method: "jwt"}, nil
	}
	return Principal{}, ErrInvalidCredentials
}

// ExtractBearer returns the token of an "Authorization: Bearer" header
func ExtractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// WithPrincipal stores p in ctx
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the principal stored in ctx
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
