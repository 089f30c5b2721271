package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/guttosm/hackathon-service/config"
)

// Token roles.
const (
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
)

const tokenIssuer = "hackathon-service"

// TokenClaims are the claims carried by an organizer token.
type TokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 bearer tokens.
type TokenService interface {
	// Issue signs a token for subject. A non-positive ttl uses the configured default.
	Issue(subject, role string, ttl time.Duration) (token string, expiresAt time.Time, err error)
	// Validate parses token and returns its claims, or ErrInvalidToken.
	Validate(token string) (*TokenClaims, error)
}

// TokenServiceImpl implements TokenService.
type TokenServiceImpl struct {
	secretKey  []byte
	defaultTTL time.Duration
	now        func() time.Time
}

// NewTokenService creates a token service from the auth configuration.
func NewTokenService(cfg config.AuthConfig) (*TokenServiceImpl, error) {
	if cfg.JWTSecretKey == "" {
		return nil, errors.New("jwt secret key is empty")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenServiceImpl{
		secretKey:  []byte(cfg.JWTSecretKey),
		defaultTTL: ttl,
		now:        time.Now,
	}, nil
}

// Issue implements TokenService.
func (s *TokenServiceImpl) Issue(subject, role string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, fmt.Errorf("%w: token subject is empty", ErrInvalidInput)
	}
	if role == "" {
		role = RoleOrganizer
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	now := s.now()
	expiresAt := now.Add(ttl)
	claims := &TokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Validate implements TokenService.
func (s *TokenServiceImpl) Validate(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secretKey, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
