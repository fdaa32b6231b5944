// Package token issues and checks the bearer tokens that guard the
// credential admin endpoints.
package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/ISMendys/alexa-gemini/internal/config"
	apperrors "github.com/ISMendys/alexa-gemini/internal/errors"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// Issuer is the iss claim on every admin token.
	Issuer = "alexa-gemini"
	// Audience is the aud claim on every admin token.
	Audience = "alexa-gemini-admin"
	// DefaultTTL is used when Issue is given a non-positive ttl.
	DefaultTTL = time.Hour
)

// Claims carried by an admin token.
type Claims struct {
	jwtlib.RegisteredClaims
}

// AdminIssuer signs and verifies HS256 admin tokens.
type AdminIssuer struct {
	secret  []byte
	nowTime func() time.Time
}

// AdminIssuerOption defines a function type to modify the AdminIssuer instance.
type AdminIssuerOption func(*AdminIssuer)

// WithNowTime sets the clock used for iat, exp and validation.
func WithNowTime(nowTime func() time.Time) AdminIssuerOption {
	return func(a *AdminIssuer) {
		a.nowTime = nowTime
	}
}

// NewAdminIssuer creates an AdminIssuer keyed by the configured admin secret.
func NewAdminIssuer(cfg config.SecurityConfig, options ...AdminIssuerOption) *AdminIssuer {
	a := &AdminIssuer{
		secret:  []byte(cfg.GetAdminSecret()),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// Enabled reports whether an admin secret is configured. Without one the
// admin endpoints are left open.
func (a *AdminIssuer) Enabled() bool {
	return len(a.secret) > 0
}

// Issue mints a token for subject.
func (a *AdminIssuer) Issue(subject string, ttl time.Duration) (string, error) {
	if !a.Enabled() {
		return "", fmt.Errorf("[AdminIssuer.Issue] ADMIN_SECRET is not set: %w", apperrors.ErrConfigIncomplete)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := a.nowTime()
	claims := Claims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   subject,
			Audience:  jwtlib.ClaimStrings{Audience},
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("[AdminIssuer.Issue] failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, issuer, audience and expiry of raw. Every
// failure wraps ErrUnauthorized.
func (a *AdminIssuer) Verify(raw string) (*Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("[AdminIssuer.Verify] empty token: %w", apperrors.ErrUnauthorized)
	}

	parser := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(Issuer),
		jwtlib.WithAudience(Audience),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(a.nowTime),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(raw, claims, func(*jwtlib.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("[AdminIssuer.Verify] %v: %w", err, apperrors.ErrUnauthorized)
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
