// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"net/http"

	"github.com/go-kit/log"
	"github.com/gorilla/mux"
)

type loginRequest struct {
	EmailOrUsername string `json:"emailOrUsername"`
	Password        string `json:"password"`
}

func addLoginRoutes(router *mux.Router, logger log.Logger, creds *credentialService) {
	router.Methods("POST").Path("/api/auth-login").HandlerFunc(loginRoute(logger, creds))
}

func loginRoute(logger log.Logger, creds *credentialService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var login loginRequest
		if err := decodeBody(r, &login); err != nil {
			encodeError(w, logger, "login", err)
			return
		}

		token, acct, err := creds.login(login.EmailOrUsername, login.Password)
		if err != nil {
			if err == errInvalidCredentials {
				// Mark this as failure only because a user is involved
				// at this point. Bad JSON is the client's problem.
				authFailures.With("method", "web").Add(1)
			}
			encodeError(w, logger, "login", err)
			return
		}

		// success route, let's finish!
		authSuccesses.With("method", "web").Add(1)
		tokenGenerations.With("method", "web").Add(1)
		respondJSON(w, http.StatusOK, success(map[string]interface{}{
			"token": token,
			"user":  acct.public(),
		}))
	}
}
