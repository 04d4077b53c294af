package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// UserIdentityExpiration is how long a login or register token is accepted.
	UserIdentityExpiration = 24 * time.Hour

	// TokenIssuer is stamped on every token and required when parsing.
	TokenIssuer = "socialchat"
)

// ErrInvalidToken is returned by ParseToken for any token that must not be trusted.
var ErrInvalidToken = errors.New("invalid or expired token")

// GenerateToken signs an HS256 access token for payload.ID. The account id is
// also written to the subject claim.
func GenerateToken(payload *Payload, secretKey string, duration time.Duration) (string, error) {
	if payload.ID == "" {
		return "", fmt.Errorf("%w: empty account id", ErrInvalidToken)
	}

	now := time.Now()
	payload.StandardClaims = jwt.StandardClaims{
		ExpiresAt: now.Add(duration).Unix(),
		IssuedAt:  now.Unix(),
		Issuer:    TokenIssuer,
		Subject:   payload.ID,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString([]byte(secretKey))
}

// ParseToken verifies the signature, expiry and issuer of tokenString and
// returns its identity. Every failure wraps ErrInvalidToken.
func ParseToken(tokenString string, secretKey string) (*Payload, error) {
	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	switch {
	case !token.Valid:
		return nil, ErrInvalidToken
	case !claims.VerifyIssuer(TokenIssuer, true):
		return nil, fmt.Errorf("%w: issuer %q", ErrInvalidToken, claims.Issuer)
	case claims.ID == "" || claims.Subject != claims.ID:
		return nil, fmt.Errorf("%w: identity mismatch", ErrInvalidToken)
	}

	return claims, nil
}
