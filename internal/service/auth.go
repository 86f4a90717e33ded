package service

import (
	"fmt"
	"time"

	"github.com/lifecompass/finance-bfa-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTypeAccess = "access"

// JWTClaims are the claims carried by access tokens. Subject is the user ID.
type JWTClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// AuthService issues and validates HS256 access tokens for the /v1/users routes.
// Users are provisioned elsewhere; this service only vouches for a user ID.
type AuthService struct {
	jwtSecret []byte
	issuer    string
	accessTTL time.Duration
}

// NewAuthService creates the token service.
func NewAuthService(secret, issuer string, accessTTL time.Duration) *AuthService {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &AuthService{
		jwtSecret: []byte(secret),
		issuer:    issuer,
		accessTTL: accessTTL,
	}
}

// IssueAccessToken signs a token whose subject is userID.
func (s *AuthService) IssueAccessToken(userID string) (string, error) {
	if userID == "" {
		return "", &domain.ErrValidation{Field: "userId", Message: "user ID is required"}
	}
	now := time.Now()
	claims := &JWTClaims{
		Type: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateAccessToken parses tokenString and returns its claims.
// Every failure is reported as *domain.ErrUnauthorized.
func (s *AuthService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, opts...)
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "invalid token"}
	}
	if claims.Type != tokenTypeAccess {
		return nil, &domain.ErrUnauthorized{Message: "invalid token type"}
	}
	if claims.Subject == "" {
		return nil, &domain.ErrUnauthorized{Message: "token has no subject"}
	}
	return claims, nil
}
