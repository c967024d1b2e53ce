package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	appErrors "github.com/noah-isme/crew-booking-api/pkg/errors"
)

func signClaims(secret string, claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// parseClaims verifies an HS256 token into claims; any failure is reported as FORBIDDEN.
func parseClaims(secret, raw string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired token")
	}
	if !token.Valid {
		return appErrors.Clone(appErrors.ErrForbidden, "invalid token claims")
	}
	return nil
}
