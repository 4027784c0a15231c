// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// tokenTTL is the fixed lifetime of a session token. Tokens are never
// refreshed or revoked.
const tokenTTL = 7 * 24 * time.Hour

type sessionClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// tokenIssuer signs and verifies stateless HS256 session tokens.
type tokenIssuer struct {
	secret []byte
	now    func() time.Time
}

func newTokenIssuer(secret string) (*tokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("empty token secret")
	}
	return &tokenIssuer{secret: []byte(secret), now: time.Now}, nil
}

// issue returns a token bound to accountID and its expiry.
func (t *tokenIssuer) issue(accountID string) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(tokenTTL)
	claims := sessionClaims{
		UserID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %v", err)
	}
	return signed, expires, nil
}

// verify returns the account id inside raw. Every failure is
// errUnauthorized.
func (t *tokenIssuer) verify(raw string) (string, error) {
	if raw == "" {
		return "", errUnauthorized
	}
	var claims sessionClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !tok.Valid {
		return "", errUnauthorized
	}
	if claims.UserID == "" || claims.ExpiresAt == nil {
		return "", errUnauthorized
	}
	return claims.UserID, nil
}
