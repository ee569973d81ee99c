package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/attendance-management/internal"
	coreuser "github.com/frahmantamala/attendance-management/internal/core/user"
	"github.com/frahmantamala/attendance-management/internal/user"
)

type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*user.User, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// Service is the main auth service with dependencies
type Service struct {
	users          UserRepository
	tokenGenerator TokenGenerator
	accessTTL      time.Duration
	logger         *slog.Logger
}

func NewService(users UserRepository, tokenGen *JWTTokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		users:          users,
		tokenGenerator: tokenGen,
		accessTTL:      tokenGen.AccessTokenTTL,
		logger:         logger,
	}
}

// NewJWTTokenGenerator creates a new JWT token generator. Zero TTLs fall back
// to 15 minutes for access and 7 days for refresh tokens.
func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
		Issuer:             "attendance-management",
	}
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if appErr := dto.Validate(); appErr != nil {
		return AuthTokens{}, appErr
	}

	u, err := s.users.GetByUsername(ctx, dto.Username)
	if err != nil {
		if internal.IsErrorType(err, internal.ErrorTypeNotFound) {
			return AuthTokens{}, internal.ErrInvalidCredentials
		}
		return AuthTokens{}, internal.NewInternalError("failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.Password)); err != nil {
		s.logger.Warn("login rejected: bad password", "user_id", u.ID)
		return AuthTokens{}, internal.ErrInvalidCredentials
	}
	if !u.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	s.logger.Info("user logged in", "user_id", u.ID, "role", u.Role)
	return s.issue(u.Actor())
}

// RefreshTokens validates the refresh token and issues a fresh pair. The user
// is reloaded so a role change or deactivation takes effect.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	u, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return AuthTokens{}, err
	}
	return s.issue(u.Actor())
}

// Authorize resolves an access token to the actor it belongs to.
func (s *Service) Authorize(ctx context.Context, accessToken string) (*coreuser.Actor, error) {
	claims, err := s.tokenGenerator.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, err
	}

	u, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return u.Actor(), nil
}

func (s *Service) activeUser(ctx context.Context, id int64) (*user.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if internal.IsErrorType(err, internal.ErrorTypeNotFound) {
			return nil, internal.ErrInvalidToken
		}
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if !u.IsActive {
		return nil, internal.ErrUserInactive
	}
	return u, nil
}

func (s *Service) issue(actor *coreuser.Actor) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(actor)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign access token", err)
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(actor)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign refresh token", err)
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// GenerateAccessToken creates a new access token
func (j *JWTTokenGenerator) GenerateAccessToken(actor *coreuser.Actor) (string, error) {
	return j.sign(actor, TokenAccess, j.AccessTokenTTL, j.AccessTokenSecret)
}

// GenerateRefreshToken creates a new refresh token
func (j *JWTTokenGenerator) GenerateRefreshToken(actor *coreuser.Actor) (string, error) {
	return j.sign(actor, TokenRefresh, j.RefreshTokenTTL, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) ValidateAccessToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, TokenAccess, j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, TokenRefresh, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) sign(actor *coreuser.Actor, kind TokenKind, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   actor.ID,
		Username: actor.Username,
		Role:     actor.Role,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			Subject:   strconv.FormatInt(actor.ID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (j *JWTTokenGenerator) validate(tokenString string, kind TokenKind, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Kind != kind {
		return nil, internal.ErrInvalidToken
	}
	return claims, nil
}
