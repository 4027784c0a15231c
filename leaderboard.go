// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-kit/log"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// maxLeaderboardFetches caps how many members are read from the store
// at once. It doesn't change the result.
const maxLeaderboardFetches = 8

type leaderboardEntry struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Savings  float64 `json:"savings"`
	Rank     int     `json:"rank"`
}

// leaderboard ranks a viewer and the accounts on their friend list by
// net savings. Nothing is cached; every call reads every member.
type leaderboard struct {
	accounts accountRepository
	ledgers  ledgerRepository
}

func newLeaderboard(accounts accountRepository, ledgers ledgerRepository) *leaderboard {
	return &leaderboard{accounts: accounts, ledgers: ledgers}
}

const (
	transactionIncome  = "income"
	transactionExpense = "expense"
)

// Transaction is the part of a stored transaction the leaderboard reads.
// Amounts may be JSON numbers or numeric strings.
type Transaction struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

// decodeTransactions reads the stored transactions array. Elements whose
// type or amount can't be read are skipped; other fields are ignored.
func decodeTransactions(raw json.RawMessage) ([]Transaction, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, err
	}
	out := make([]Transaction, 0, len(elems))
	for _, elem := range elems {
		var tx Transaction
		if err := json.Unmarshal(elem, &tx); err != nil {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

// netSavings is income minus expense over every transaction.
// Transactions of any other type are ignored.
func netSavings(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case transactionIncome:
			total = total.Add(tx.Amount)
		case transactionExpense:
			total = total.Sub(tx.Amount)
		}
	}
	return total
}

// forAccount builds the leaderboard seen by accountID: the account itself
// followed by its friend list.
func (l *leaderboard) forAccount(ctx context.Context, accountID string) ([]leaderboardEntry, error) {
	acct, err := l.accounts.findByID(accountID)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, errAccountNotFound
	}
	group := make([]string, 0, len(acct.Friends)+1)
	group = append(group, acct.ID)
	group = append(group, acct.Friends...)
	return l.rank(ctx, group)
}

// rank orders group by net savings, highest first. Ties keep group order
// and still get distinct consecutive ranks. Ids without an account record
// are skipped and repeated ids count once.
func (l *leaderboard) rank(ctx context.Context, group []string) ([]leaderboardEntry, error) {
	seen := make(map[string]bool, len(group))
	ids := make([]string, 0, len(group))
	for _, id := range group {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	type member struct {
		acct    *Account
		savings decimal.Decimal
	}
	members := make([]member, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxLeaderboardFetches)
	for i := range ids {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			acct, err := l.accounts.findByID(ids[i])
			if err != nil {
				return fmt.Errorf("leaderboard: account %s: %w", ids[i], err)
			}
			if acct == nil {
				return nil
			}
			snap, err := l.ledgers.getSnapshot(ids[i])
			if err != nil {
				return fmt.Errorf("leaderboard: ledger %s: %w", ids[i], err)
			}
			txs, err := decodeTransactions(snap.Transactions)
			if err != nil {
				return fmt.Errorf("leaderboard: transactions %s: %w", ids[i], err)
			}
			members[i] = member{acct: acct, savings: netSavings(txs)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	found := members[:0]
	for _, m := range members {
		if m.acct != nil {
			found = append(found, m)
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].savings.GreaterThan(found[j].savings)
	})

	out := make([]leaderboardEntry, len(found))
	for i, m := range found {
		out[i] = leaderboardEntry{
			ID:       m.acct.ID,
			Username: m.acct.Username,
			Savings:  m.savings.InexactFloat64(),
			Rank:     i + 1,
		}
	}
	return out, nil
}

func addLeaderboardRoutes(router *mux.Router, logger log.Logger, board *leaderboard) {
	router.Methods("GET").Path("/api/leaderboard").HandlerFunc(leaderboardRoute(logger, board))
}

func leaderboardRoute(logger log.Logger, board *leaderboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		entries, err := board.forAccount(r.Context(), accountIDFromContext(r.Context()))
		leaderboardDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			encodeError(w, logger, "leaderboard", err)
			return
		}
		respondJSON(w, http.StatusOK, success(map[string]interface{}{
			"leaderboard": entries,
		}))
	}
}
