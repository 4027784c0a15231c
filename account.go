// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/finflex/ledgerd/pkg/kvstore"

	"github.com/go-kit/log"
	"github.com/google/uuid"
)

// Account is the stored account record. It is written under
// account:id:<id> and reachable from three unique indices
// (email, username and friend code).
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"passwordHash"`
	FriendCode   string    `json:"friendCode"`
	Friends      []string  `json:"friends"`
	CreatedAt    time.Time `json:"createdAt"`
}

// publicAccount is what callers see of their own account.
type publicAccount struct {
	ID         string   `json:"id"`
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	FriendCode string   `json:"friendCode"`
	Friends    []string `json:"friends"`
}

// publicProfile is what anyone holding a friend code sees.
type publicProfile struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	FriendCode string `json:"friendCode"`
}

func (a *Account) public() publicAccount {
	friends := a.Friends
	if friends == nil {
		friends = []string{}
	}
	return publicAccount{
		ID:         a.ID,
		Username:   a.Username,
		Email:      a.Email,
		Phone:      a.Phone,
		FriendCode: a.FriendCode,
		Friends:    friends,
	}
}

func (a *Account) profile() publicProfile {
	return publicProfile{ID: a.ID, Username: a.Username, FriendCode: a.FriendCode}
}

func accountKey(id string) string { return "account:id:" + id }
func emailKey(email string) string { return "account:email:" + email }
func usernameKey(username string) string { return "account:username:" + username }
func friendCodeKey(code string) string { return "account:friendCode:" + code }

// keyValueStore is the subset of *kvstore.Store the repositories need.
// Only single-key writes are available.
type keyValueStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	SetNX(key, value string) (bool, error)
	CompareAndDelete(key, value string) (bool, error)
}

type accountRepository interface {
	// createAccount claims the email, username and a fresh friend code
	// before writing the account record.
	createAccount(username, email, phone, passwordHash string) (*Account, error)

	// lookups return nil, nil when no account matches
	findByEmail(email string) (*Account, error)
	findByUsername(username string) (*Account, error)
	findByFriendCode(code string) (*Account, error)
	findByID(id string) (*Account, error)

	// updateFriendList replaces the friend list of id. It doesn't check
	// the ids exist and never touches the other accounts.
	updateFriendList(id string, friends []string) error
}

type kvAccountRepository struct {
	kv     keyValueStore
	logger log.Logger

	newID       func() string
	newCode     func() (string, error)
	maxAttempts int
	now         func() time.Time
}

func newAccountRepository(kv keyValueStore, logger log.Logger) *kvAccountRepository {
	return &kvAccountRepository{
		kv:          kv,
		logger:      logger,
		newID:       uuid.NewString,
		newCode:     generateFriendCode,
		maxAttempts: maxFriendCodeAttempts,
		now:         time.Now,
	}
}

func (r *kvAccountRepository) createAccount(username, email, phone, passwordHash string) (*Account, error) {
	acct := &Account{
		ID:           r.newID(),
		Username:     username,
		Email:        email,
		Phone:        phone,
		PasswordHash: passwordHash,
		Friends:      []string{},
		CreatedAt:    r.now().UTC().Truncate(time.Second),
	}

	// Every attempted index key is remembered, even ones we failed to
	// claim. release only deletes keys still holding our id so other
	// accounts' claims survive.
	var attempted []string
	release := func() {
		for _, key := range attempted {
			if _, err := r.kv.CompareAndDelete(key, acct.ID); err != nil {
				r.logger.Log("accounts", fmt.Sprintf("orphaned index %s for account %s", key, acct.ID), "error", err)
			}
		}
	}
	claim := func(key string) (bool, error) {
		attempted = append(attempted, key)
		return r.kv.SetNX(key, acct.ID)
	}

	ok, err := claim(emailKey(email))
	if err != nil {
		release()
		return nil, fmt.Errorf("createAccount: claiming email: %w", err)
	}
	if !ok {
		return nil, errEmailInUse
	}

	ok, err = claim(usernameKey(username))
	if err != nil {
		release()
		return nil, fmt.Errorf("createAccount: claiming username: %w", err)
	}
	if !ok {
		release()
		return nil, errUsernameInUse
	}

	for i := 0; i < r.maxAttempts; i++ {
		code, err := r.newCode()
		if err != nil {
			release()
			return nil, fmt.Errorf("createAccount: %w", err)
		}
		ok, err := claim(friendCodeKey(code))
		if err != nil {
			release()
			return nil, fmt.Errorf("createAccount: claiming friend code: %w", err)
		}
		if ok {
			acct.FriendCode = code
			break
		}
		friendCodeCollisions.Add(1)
	}
	if acct.FriendCode == "" {
		release()
		return nil, errFriendCodeExhausted
	}

	if err := r.write(acct); err != nil {
		release()
		return nil, fmt.Errorf("createAccount: %w", err)
	}
	return acct, nil
}

func (r *kvAccountRepository) write(acct *Account) error {
	bs, err := json.Marshal(acct)
	if err != nil {
		return err
	}
	return r.kv.Set(accountKey(acct.ID), string(bs))
}

func (r *kvAccountRepository) findByEmail(email string) (*Account, error) {
	return r.findByIndex(emailKey(email))
}

func (r *kvAccountRepository) findByUsername(username string) (*Account, error) {
	return r.findByIndex(usernameKey(username))
}

func (r *kvAccountRepository) findByFriendCode(code string) (*Account, error) {
	return r.findByIndex(friendCodeKey(normalizeFriendCode(code)))
}

func (r *kvAccountRepository) findByIndex(key string) (*Account, error) {
	id, err := r.kv.Get(key)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.findByID(id)
}

func (r *kvAccountRepository) findByID(id string) (*Account, error) {
	if id == "" {
		return nil, nil
	}
	v, err := r.kv.Get(accountKey(id))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var acct Account
	if err := json.Unmarshal([]byte(v), &acct); err != nil {
		return nil, fmt.Errorf("findByID: corrupt record for %s: %v", id, err)
	}
	return &acct, nil
}

func (r *kvAccountRepository) updateFriendList(id string, friends []string) error {
	acct, err := r.findByID(id)
	if err != nil {
		return err
	}
	if acct == nil {
		return nil
	}
	if friends == nil {
		friends = []string{}
	}
	acct.Friends = friends
	return r.write(acct)
}
