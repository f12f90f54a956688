package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the access token payload. Premium is the voucher finalization
// entitlement; this service trusts it as issued and never derives it.
type Claims struct {
	TravelerID string `json:"traveler_id"`
	Premium    bool   `json:"premium"`
	jwt.RegisteredClaims
}

type TokenGenerator interface {
	GenerateAccessToken(travelerID string, premium bool) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

type ctxKey string

const ContextClaimsKey ctxKey = "claims"

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ContextClaimsKey).(*Claims)
	return c, ok && c != nil
}

func ContextWithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ContextClaimsKey, c)
}

// HasPremium reports whether the request carries the finalization claim.
func HasPremium(ctx context.Context) bool {
	c, ok := ClaimsFromContext(ctx)
	return ok && c.Premium
}

type JWTTokenGenerator struct {
	Secret         []byte
	Issuer         string
	AccessTokenTTL time.Duration
}
