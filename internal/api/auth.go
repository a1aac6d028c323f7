package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
)

// ErrUnauthorized is returned for a missing or invalid bearer token.
var ErrUnauthorized = eris.New("api: unauthorized")

type ownerKey struct{}

// OwnerFrom returns the authenticated owner id stored on ctx.
func OwnerFrom(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}

// WithOwner returns ctx carrying owner.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// Verifier checks HS256 bearer tokens issued elsewhere. The token subject is
// the owner id.
type Verifier struct {
	secret []byte
}

// NewVerifier returns a Verifier for secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Owner verifies token and returns its subject.
func (v *Verifier) Owner(token string) (string, error) {
	if len(v.secret) == 0 {
		return "", eris.Wrap(ErrUnauthorized, "api: token secret not configured")
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", eris.Wrapf(ErrUnauthorized, "api: %v", err)
	}
	if claims.Subject == "" {
		return "", eris.Wrap(ErrUnauthorized, "api: token has no subject")
	}
	return claims.Subject, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// owner id on the request context.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			writeError(w, r, eris.Wrap(ErrUnauthorized, "api: missing bearer token"))
			return
		}
		owner, err := v.Owner(strings.TrimSpace(raw))
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
	})
}

// IssueToken signs a token for owner. It backs the token command and tests;
// production tokens come from the identity provider.
func IssueToken(secret, owner string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", eris.New("api: token secret not configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   owner,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	return signed, eris.Wrap(err, "api: sign token")
}
