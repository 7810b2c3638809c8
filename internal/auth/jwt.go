package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"stock-count/internal/config"
	"stock-count/internal/timeutil"
)

// Claims bind a browser to its in-memory counting session
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrNoSession    = errors.New("token carries no session")
)

// JWTManager signs and checks the HS256 tokens that name a session
type JWTManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewJWTManager(cfg *config.Config) *JWTManager {
	return &JWTManager{
		secret: []byte(cfg.Session.Secret),
		issuer: cfg.Session.Issuer,
		ttl:    cfg.SessionTTL(),
	}
}

// TTL is the lifetime of issued tokens
func (j *JWTManager) TTL() time.Duration {
	return j.ttl
}

// GenerateToken creates a signed token for a session id
func (j *JWTManager) GenerateToken(sessionID string) (string, error) {
	now := timeutil.Now()

	claims := &Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

// ValidateToken verifies a session token and returns the claims
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, jwt.WithIssuer(j.issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.SessionID == "" {
		return nil, ErrNoSession
	}

	return claims, nil
}
