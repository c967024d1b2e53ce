package models

import "github.com/golang-jwt/jwt/v5"

// OAuthStateClaims binds an OAuth consent round trip to the user and provider that started it.
type OAuthStateClaims struct {
	UserID   string `json:"uid"`
	Provider string `json:"prv"`
	jwt.RegisteredClaims
}

// ConfirmationClaims is the payload of a customer approval link.
type ConfirmationClaims struct {
	RequestID string `json:"rid"`
	jwt.RegisteredClaims
}

