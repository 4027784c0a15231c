// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"net/http"

	"github.com/go-kit/log"
	"github.com/gorilla/mux"
)

func addSignupRoutes(router *mux.Router, logger log.Logger, creds *credentialService) {
	router.Methods("POST").Path("/api/auth-signup").HandlerFunc(signupRoute(logger, creds))
}

func signupRoute(logger log.Logger, creds *credentialService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupRequest
		if err := decodeBody(r, &req); err != nil {
			encodeError(w, logger, "signup", err)
			return
		}

		acct, err := creds.signup(req)
		if err != nil {
			accountSignups.With("result", "failure").Add(1)
			encodeError(w, logger, "signup", err)
			return
		}

		accountSignups.With("result", "success").Add(1)
		logger.Log("signup", "account created", "id", acct.ID)
		respondJSON(w, http.StatusCreated, success(map[string]interface{}{
			"user": acct.public(),
		}))
	}
}
