// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/finflex/ledgerd/pkg/kvstore"

	"github.com/go-kit/log"
	"github.com/gorilla/mux"
)

// LedgerSnapshot holds the three collections of one account. Each is a
// JSON array stored exactly as the client sent it.
type LedgerSnapshot struct {
	Transactions json.RawMessage `json:"transactions"`
	Goals        json.RawMessage `json:"goals"`
	Autopays     json.RawMessage `json:"autopays"`
}

// LedgerUpdate replaces each present collection and leaves absent (or
// null) ones alone.
type LedgerUpdate struct {
	Transactions *json.RawMessage `json:"transactions,omitempty"`
	Goals        *json.RawMessage `json:"goals,omitempty"`
	Autopays     *json.RawMessage `json:"autopays,omitempty"`
}

// validate only checks every present collection is an array. The
// elements are never inspected.
func (u LedgerUpdate) validate() error {
	collections := []struct {
		name string
		raw  *json.RawMessage
	}{
		{"transactions", u.Transactions},
		{"goals", u.Goals},
		{"autopays", u.Autopays},
	}
	for _, c := range collections {
		if c.raw != nil && !isJSONArray(*c.raw) {
			return validationError(c.name + " must be an array")
		}
	}
	return nil
}

var emptyCollection = json.RawMessage("[]")

func ledgerKey(id, collection string) string {
	return fmt.Sprintf("ledger:%s:%s", id, collection)
}

type ledgerRepository interface {
	getSnapshot(accountID string) (*LedgerSnapshot, error)
	saveSnapshot(accountID string, update LedgerUpdate) error
}

type kvLedgerRepository struct {
	kv keyValueStore
}

func newLedgerRepository(kv keyValueStore) *kvLedgerRepository {
	return &kvLedgerRepository{kv: kv}
}

func (r *kvLedgerRepository) getSnapshot(accountID string) (*LedgerSnapshot, error) {
	snap := &LedgerSnapshot{}
	var err error
	if snap.Transactions, err = r.load(accountID, "transactions"); err != nil {
		return nil, err
	}
	if snap.Goals, err = r.load(accountID, "goals"); err != nil {
		return nil, err
	}
	if snap.Autopays, err = r.load(accountID, "autopays"); err != nil {
		return nil, err
	}
	return snap, nil
}

// load returns one stored collection, or [] if it was never written.
func (r *kvLedgerRepository) load(accountID, collection string) (json.RawMessage, error) {
	raw, err := r.kv.Get(ledgerKey(accountID, collection))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return emptyCollection, nil
		}
		return nil, err
	}
	if !isJSONArray([]byte(raw)) {
		return nil, fmt.Errorf("ledger: corrupt %s for %s", collection, accountID)
	}
	return json.RawMessage(raw), nil
}

func (r *kvLedgerRepository) saveSnapshot(accountID string, update LedgerUpdate) error {
	if err := update.validate(); err != nil {
		return err
	}
	if update.Transactions != nil {
		if err := r.kv.Set(ledgerKey(accountID, "transactions"), string(*update.Transactions)); err != nil {
			return err
		}
	}
	if update.Goals != nil {
		if err := r.kv.Set(ledgerKey(accountID, "goals"), string(*update.Goals)); err != nil {
			return err
		}
	}
	if update.Autopays != nil {
		if err := r.kv.Set(ledgerKey(accountID, "autopays"), string(*update.Autopays)); err != nil {
			return err
		}
	}
	return nil
}

func addLedgerRoutes(router *mux.Router, logger log.Logger, ledgers ledgerRepository) {
	router.Methods("GET").Path("/api/user-data").HandlerFunc(getLedgerRoute(logger, ledgers))
	router.Methods("POST").Path("/api/update-user-data").HandlerFunc(saveLedgerRoute(logger, ledgers))
}

func getLedgerRoute(logger log.Logger, ledgers ledgerRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := ledgers.getSnapshot(accountIDFromContext(r.Context()))
		if err != nil {
			encodeError(w, logger, "ledger", err)
			return
		}
		respondJSON(w, http.StatusOK, success(map[string]interface{}{
			"transactions": snap.Transactions,
			"goals":        snap.Goals,
			"autopays":     snap.Autopays,
		}))
	}
}

func saveLedgerRoute(logger log.Logger, ledgers ledgerRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update LedgerUpdate
		if err := decodeBody(r, &update); err != nil {
			encodeError(w, logger, "ledger", err)
			return
		}
		if err := ledgers.saveSnapshot(accountIDFromContext(r.Context()), update); err != nil {
			encodeError(w, logger, "ledger", err)
			return
		}
		respondJSON(w, http.StatusOK, success(map[string]interface{}{
			"message": "Data saved successfully",
		}))
	}
}
