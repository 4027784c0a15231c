// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestCredentials(t *testing.T) (*credentialService, *kvAccountRepository) {
	t.Helper()
	accounts := newAccountRepository(newTestStore(t), log.NewNopLogger())
	tokens, err := newTokenIssuer("test-secret")
	require.NoError(t, err)
	return newCredentialService(accounts, tokens, bcrypt.MinCost), accounts
}

func TestSignup__requiredFields(t *testing.T) {
	cases := []struct {
		req   signupRequest
		valid bool
	}{
		{signupRequest{}, false},
		{signupRequest{Username: "alice", Email: "a@b.c", Phone: "1"}, false},
		{signupRequest{Username: "alice", Email: "a@b.c", Password: "pw"}, false},
		{signupRequest{Username: "alice", Phone: "1", Password: "pw"}, false},
		{signupRequest{Email: "a@b.c", Phone: "1", Password: "pw"}, false},
		{signupRequest{Username: "   ", Email: "a@b.c", Phone: "1", Password: "pw"}, false},
		{signupRequest{Username: "alice", Email: "a@b.c", Phone: "1", Password: "superlongpassword"}, true},
	}
	for i := range cases {
		err := cases[i].req.validate()
		if cases[i].valid && err == nil {
			continue // valid
		}
		if !cases[i].valid && err != nil {
			status, _, _ := errorStatus(err)
			assert.Equal(t, 400, status)
			continue // known bad
		}
		t.Errorf("input=%#v, err=%v", cases[i].req, err)
	}
}

func TestSignup__hashesPassword(t *testing.T) {
	creds, accounts := newTestCredentials(t)

	acct, err := creds.signup(signupRequest{Username: "alice", Email: "alice@example.com", Phone: "1", Password: "hunter2"})
	require.NoError(t, err)

	stored, err := accounts.findByID(acct.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("hunter2")))

	// public view never carries the hash
	pub := acct.public()
	assert.Equal(t, acct.ID, pub.ID)
	assert.Equal(t, acct.FriendCode, pub.FriendCode)
}

func TestSignup__conflicts(t *testing.T) {
	creds, _ := newTestCredentials(t)

	_, err := creds.signup(signupRequest{Username: "alice", Email: "alice@example.com", Phone: "1", Password: "pw"})
	require.NoError(t, err)

	_, err = creds.signup(signupRequest{Username: "alice2", Email: "alice@example.com", Phone: "1", Password: "pw"})
	assert.Equal(t, errEmailInUse, err)

	_, err = creds.signup(signupRequest{Username: "alice", Email: "alice2@example.com", Phone: "1", Password: "pw"})
	assert.Equal(t, errUsernameInUse, err)
}

func TestLogin(t *testing.T) {
	creds, _ := newTestCredentials(t)

	acct, err := creds.signup(signupRequest{Username: "alice", Email: "alice@example.com", Phone: "1", Password: "hunter2"})
	require.NoError(t, err)

	for _, identifier := range []string{"alice@example.com", "alice"} {
		token, found, err := creds.login(identifier, "hunter2")
		require.NoError(t, err, identifier)
		assert.Equal(t, acct.ID, found.ID)

		id, err := creds.tokens.verify(token)
		require.NoError(t, err)
		assert.Equal(t, acct.ID, id)
	}
}

func TestLogin__failuresLookAlike(t *testing.T) {
	creds, _ := newTestCredentials(t)

	_, err := creds.signup(signupRequest{Username: "alice", Email: "alice@example.com", Phone: "1", Password: "hunter2"})
	require.NoError(t, err)

	_, _, wrongPassword := creds.login("alice", "wrong")
	_, _, unknownUser := creds.login("mallory", "hunter2")

	require.Error(t, wrongPassword)
	require.Error(t, unknownUser)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
	assert.Equal(t, errInvalidCredentials, wrongPassword)
	assert.Equal(t, errInvalidCredentials, unknownUser)
}

func TestLogin__missingFields(t *testing.T) {
	creds, _ := newTestCredentials(t)

	_, _, err := creds.login("", "pw")
	status, _, ok := errorStatus(err)
	assert.True(t, ok)
	assert.Equal(t, 400, status)

	_, _, err = creds.login("alice", "")
	status, _, _ = errorStatus(err)
	assert.Equal(t, 400, status)
}

func TestCredentialService__defaultCost(t *testing.T) {
	svc := newCredentialService(nil, nil, 0)
	assert.Equal(t, bcrypt.DefaultCost, svc.bcryptCost)
}
