package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	msgUnexpectedSigningMethod = "unexpected signing method: %v"
	msgTokenParseFailed        = "failed to parse token: %w"
	msgMissingSubject          = "token has no subject"
)

var ErrInvalidToken = errors.New("invalid access token")

// Identity is what the gateway learns about a principal from its access token
type Identity struct {
	Subject string
	Role    string
	Token   string
}

// Claims are the access token claims issued by the backend
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenService verifies backend access tokens signed with the shared HS256 secret
type TokenService struct {
	secret []byte
	expiry time.Duration
}

func NewTokenService(secret string, expiry time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		expiry: expiry,
	}
}

// Issue signs a token for subject. Used by the built-in development backend.
func (s *TokenService) Issue(subject, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks the signature and time claims and returns the identity with
// the token's expiry (zero when the token carries none).
func (s *TokenService) Verify(tokenString string) (Identity, time.Time, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf(msgUnexpectedSigningMethod, token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, time.Time{}, fmt.Errorf("%w: "+msgTokenParseFailed, ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, time.Time{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Identity{}, time.Time{}, fmt.Errorf("%w: %s", ErrInvalidToken, msgMissingSubject)
	}

	var expiry time.Time
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}

	return Identity{Subject: claims.Subject, Role: claims.Role, Token: tokenString}, expiry, nil
}
