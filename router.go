// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"net/http"

	"github.com/go-kit/log"
	"github.com/gorilla/mux"
)

// services are built once at startup around one shared store handle.
type services struct {
	accounts accountRepository
	ledgers  ledgerRepository

	tokens *tokenIssuer
	creds  *credentialService
	graph  *socialGraph
	board  *leaderboard
}

func newServices(kv keyValueStore, tokens *tokenIssuer, bcryptCost int, logger log.Logger) *services {
	accounts := newAccountRepository(kv, logger)
	ledgers := newLedgerRepository(kv)
	return &services{
		accounts: accounts,
		ledgers:  ledgers,
		tokens:   tokens,
		creds:    newCredentialService(accounts, tokens, bcryptCost),
		graph:    newSocialGraph(accounts),
		board:    newLeaderboard(accounts, ledgers),
	}
}

func newRouter(logger log.Logger, svc *services) http.Handler {
	router := mux.NewRouter()
	addPingRoute(router)

	// no session required
	addSignupRoutes(router, logger, svc.creds)
	addLoginRoutes(router, logger, svc.creds)

	authed := router.NewRoute().Subrouter()
	authed.Use(requireSession(logger, svc.tokens))

	addSocialRoutes(router, authed, logger, svc.graph)
	addSessionRoutes(authed, logger, svc.accounts)
	addLeaderboardRoutes(authed, logger, svc.board)
	addLedgerRoutes(authed, logger, svc.ledgers)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		encodeError(w, logger, "router", notFoundError("endpoint not found"))
	})

	return recoverHandler(logger, router)
}

func addPingRoute(r *mux.Router) {
	r.Methods("GET").Path("/ping").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("PONG"))
	})
}
