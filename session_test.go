// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession__bearerToken(t *testing.T) {
	cases := map[string]string{
		"":               "",
		"Bearer abc.def": "abc.def",
		"Bearer  abc ":   "abc",
		"bearer abc":     "",
		"Basic dXNlcjpw": "",
		"Bearerabc":      "",
	}
	for header, expected := range cases {
		req := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		assert.Equal(t, expected, bearerToken(req), header)
	}
	assert.Equal(t, "", bearerToken(nil))
}

func TestSession__requireSession(t *testing.T) {
	tokens, err := newTokenIssuer("secret")
	require.NoError(t, err)

	var seen string
	h := requireSession(log.NewNopLogger(), tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = accountIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	// rejected
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, seen)

	// accepted
	raw, _, err := tokens.issue("account-1")
	require.NoError(t, err)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "account-1", seen)
}

func TestSession__currentAccountMissing(t *testing.T) {
	s := newTestServer(t)

	// a valid token for an account that doesn't exist
	raw, _, err := s.svc.tokens.issue("deleted-account")
	require.NoError(t, err)

	code, body := s.do("GET", "/api/auth-me", raw, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "account not found", body["error"])

	code, _ = s.do("GET", "/api/leaderboard", raw, nil)
	assert.Equal(t, http.StatusNotFound, code)
}
