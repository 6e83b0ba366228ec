// Package auth issues and checks the bearer tokens of the JSON API. A token
// carries the directory login it was issued for.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/dormnet/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "dormnet"

// Claims are the registered claims plus the login.
type Claims struct {
	jwt.RegisteredClaims
	Login string `json:"login"`
}

// GenerateToken signs a token for login valid for validity.
func GenerateToken(login string, secretKey []byte, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   login,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Login: login,
	})

	return token.SignedString(secretKey)
}

// LoginFromToken validates tokenString and returns its login. Expired
// tokens give common.ErrTokenExpired, everything else that fails
// validation gives common.ErrInvalidToken.
func LoginFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Login == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Login, nil
}
