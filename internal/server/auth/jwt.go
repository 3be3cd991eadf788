// Package auth implements the token codec: stateless signed access and
// refresh tokens (JWT, HS256) and hashed one-time tokens for the email
// verification and password reset flows.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// TokenKind distinguishes access from refresh tokens so one can never be
// presented in place of the other.
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// Claims is the claim set signed into every issued token. Role is a snapshot
// taken at issue time; Kind is checked on verification.
type Claims struct {
	jwt.RegisteredClaims
	UserID string    `json:"uid"`
	Role   string    `json:"role,omitempty"`
	Kind   TokenKind `json:"kind"`
}

// GenerateToken signs a token of the given kind for userID. An empty secret
// is a deployment error, reported as common.ErrSigning.
func GenerateToken(userID, role string, kind TokenKind, secret []byte, validity time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", common.ErrSigning
	}

	// A unique jti keeps every issued token distinct. Numeric dates only have
	// one-second precision, and refresh rotation relies on the replacement
	// token never being equal to the one it replaces.
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		UserID: userID,
		Role:   role,
		Kind:   kind,
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", common.ErrSigning
	}
	return signed, nil
}

// GetClaimsFromToken parses and verifies a signed token and checks that it is
// of the expected kind. Expired tokens yield common.ErrTokenExpired; any
// other verification failure yields common.ErrInvalidToken. No database
// access happens here.
func GetClaimsFromToken(tokenString string, kind TokenKind, secret []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Kind != kind {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
