package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	coreuser "github.com/frahmantamala/attendance-management/internal/core/user"
)

type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// TokenGenerator creates and validates signed tokens.
type TokenGenerator interface {
	GenerateAccessToken(actor *coreuser.Actor) (token string, err error)
	GenerateRefreshToken(actor *coreuser.Actor) (token string, err error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID   int64         `json:"user_id"`
	Username string        `json:"username"`
	Role     coreuser.Role `json:"role"`
	Kind     TokenKind     `json:"kind"`
	jwt.RegisteredClaims
}

func (c *Claims) Actor() *coreuser.Actor {
	return &coreuser.Actor{ID: c.UserID, Username: c.Username, Role: c.Role}
}

// JWTTokenGenerator signs access and refresh tokens with separate secrets.
type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	Issuer             string
}
