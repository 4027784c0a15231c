// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawCollection(s string) *json.RawMessage {
	raw := json.RawMessage(s)
	return &raw
}

func TestLedger__emptySnapshot(t *testing.T) {
	repo := newLedgerRepository(newTestStore(t))

	snap, err := repo.getSnapshot("never-written")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(snap.Transactions))
	assert.JSONEq(t, `[]`, string(snap.Goals))
	assert.JSONEq(t, `[]`, string(snap.Autopays))
}

func TestLedger__partialSaves(t *testing.T) {
	repo := newLedgerRepository(newTestStore(t))

	txs := `[
		{"id": "t1", "amount": 5000, "category": "Income", "description": "Salary", "date": "2024-01-01", "type": "income"},
		{"id": "t2", "amount": 120.5, "category": "Bills", "description": "Phone", "date": "2024-01-03", "type": "expense", "isAutopay": true}
	]`
	goals := `[{"id": "g1", "name": "Laptop", "target": 1500, "saved": 200, "deadline": "2024-06-01", "category": "Tech"}]`

	require.NoError(t, repo.saveSnapshot("acct", LedgerUpdate{Transactions: rawCollection(txs)}))
	require.NoError(t, repo.saveSnapshot("acct", LedgerUpdate{Goals: rawCollection(goals)}))

	snap, err := repo.getSnapshot("acct")
	require.NoError(t, err)
	assert.JSONEq(t, txs, string(snap.Transactions))
	assert.JSONEq(t, goals, string(snap.Goals))
	assert.JSONEq(t, `[]`, string(snap.Autopays))
}

func TestLedger__storedVerbatim(t *testing.T) {
	repo := newLedgerRepository(newTestStore(t))

	// fields and value types the service knows nothing about survive
	goals := `[{"id": "g1", "name": "Car", "target": 100, "saved": 1, "deadline": "x", "category": "c", "icon": "car", "color": "#fff"}]`
	txs := `[{"id": "1", "amount": "12.50", "type": "expense", "tags": ["a", {"b": null}]}, 42, "free text"]`
	require.NoError(t, repo.saveSnapshot("acct", LedgerUpdate{
		Goals:        rawCollection(goals),
		Transactions: rawCollection(txs),
	}))

	snap, err := repo.getSnapshot("acct")
	require.NoError(t, err)
	assert.Equal(t, goals, string(snap.Goals))
	assert.Equal(t, txs, string(snap.Transactions))
}

func TestLedger__replaceNotMerge(t *testing.T) {
	repo := newLedgerRepository(newTestStore(t))

	autopays := `[
		{"id": "a1", "name": "Rent", "amount": 900, "category": "Rent", "nextDate": "2024-02-01", "frequency": "Monthly", "status": "active"},
		{"id": "a2", "name": "Gym", "amount": 30, "category": "Other", "nextDate": "2024-02-07", "frequency": "Weekly"}
	]`
	require.NoError(t, repo.saveSnapshot("acct", LedgerUpdate{Autopays: rawCollection(autopays)}))

	replaced := `[{"id": "a3", "name": "Domain", "amount": 12, "category": "Bills", "nextDate": "2025-01-01", "frequency": "Yearly"}]`
	require.NoError(t, repo.saveSnapshot("acct", LedgerUpdate{Autopays: rawCollection(replaced)}))

	snap, err := repo.getSnapshot("acct")
	require.NoError(t, err)
	assert.JSONEq(t, replaced, string(snap.Autopays))

	// an explicit empty collection clears it
	require.NoError(t, repo.saveSnapshot("acct", LedgerUpdate{Autopays: rawCollection(`[]`)}))
	snap, err = repo.getSnapshot("acct")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(snap.Autopays))
}

func TestLedger__notAnArray(t *testing.T) {
	repo := newLedgerRepository(newTestStore(t))
	require.NoError(t, repo.saveSnapshot("acct", LedgerUpdate{Goals: rawCollection(`[{"id": "g1"}]`)}))

	for _, body := range []string{`{"id": "g1"}`, `"goals"`, `12`, `true`} {
		err := repo.saveSnapshot("acct", LedgerUpdate{
			Transactions: rawCollection(`[]`),
			Goals:        rawCollection(body),
		})
		status, msg, ok := errorStatus(err)
		assert.True(t, ok, body)
		assert.Equal(t, 400, status, body)
		assert.Equal(t, "goals must be an array", msg)
	}

	// nothing was written by the rejected saves
	snap, err := repo.getSnapshot("acct")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id": "g1"}]`, string(snap.Goals))
	assert.JSONEq(t, `[]`, string(snap.Transactions))
}

func TestLedger__accountsAreIsolated(t *testing.T) {
	repo := newLedgerRepository(newTestStore(t))

	require.NoError(t, repo.saveSnapshot("alice", LedgerUpdate{Transactions: rawCollection(`[{"id": "t1", "amount": 10, "type": "income"}]`)}))

	snap, err := repo.getSnapshot("bob")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(snap.Transactions))
}

func TestLedger__corruptCollection(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set(ledgerKey("acct", "goals"), "{not json"))

	_, err := newLedgerRepository(store).getSnapshot("acct")
	assert.Error(t, err)
}

func TestLedgerUpdate__decode(t *testing.T) {
	var update LedgerUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"goals": [], "autopays": null}`), &update))
	assert.Nil(t, update.Transactions)
	assert.Nil(t, update.Autopays, "null leaves the collection alone")
	require.NotNil(t, update.Goals)
	assert.JSONEq(t, `[]`, string(*update.Goals))
}
