// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-kit/log"
	"github.com/gorilla/mux"
)

type contextKey string

const accountIDContextKey contextKey = "accountID"

// accountIDFromContext returns the id placed by requireSession, or "".
func accountIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(accountIDContextKey).(string)
	return id
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[len("Bearer "):])
}

// requireSession rejects requests without a valid session token and
// stores the token's account id on the request context.
func requireSession(logger log.Logger, tokens *tokenIssuer) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID, err := tokens.verify(bearerToken(r))
			if err != nil {
				authFailures.With("method", "bearer").Add(1)
				encodeError(w, logger, "session", err)
				return
			}
			ctx := context.WithValue(r.Context(), accountIDContextKey, accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func addSessionRoutes(router *mux.Router, logger log.Logger, accounts accountRepository) {
	router.Methods("GET").Path("/api/auth-me").HandlerFunc(currentAccountRoute(logger, accounts))
}

func currentAccountRoute(logger log.Logger, accounts accountRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, err := accounts.findByID(accountIDFromContext(r.Context()))
		if err != nil {
			encodeError(w, logger, "auth-me", err)
			return
		}
		if acct == nil {
			encodeError(w, logger, "auth-me", errAccountNotFound)
			return
		}
		respondJSON(w, http.StatusOK, success(map[string]interface{}{
			"user": acct.public(),
		}))
	}
}
