// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// credentialService handles signup and login. It only depends on the
// account repository and the token issuer.
type credentialService struct {
	accounts accountRepository
	tokens   *tokenIssuer

	// bcryptCost is the work factor for new password hashes.
	bcryptCost int
}

func newCredentialService(accounts accountRepository, tokens *tokenIssuer, bcryptCost int) *credentialService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &credentialService{
		accounts:   accounts,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (req signupRequest) validate() error {
	if strings.TrimSpace(req.Username) == "" ||
		strings.TrimSpace(req.Email) == "" ||
		strings.TrimSpace(req.Phone) == "" ||
		req.Password == "" {
		return validationError("all fields are required")
	}
	return nil
}

func (s *credentialService) signup(req signupRequest) (*Account, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("signup: hashing password: %v", err)
	}
	return s.accounts.createAccount(
		strings.TrimSpace(req.Username),
		strings.TrimSpace(req.Email),
		strings.TrimSpace(req.Phone),
		string(hash),
	)
}

// login resolves identifier as an email first, then as a username.
// Unknown identifiers and wrong passwords both return
// errInvalidCredentials.
func (s *credentialService) login(identifier, password string) (string, *Account, error) {
	if identifier == "" || password == "" {
		return "", nil, validationError("email/username and password are required")
	}
	acct, err := s.accounts.findByEmail(identifier)
	if err != nil {
		return "", nil, err
	}
	if acct == nil {
		acct, err = s.accounts.findByUsername(identifier)
		if err != nil {
			return "", nil, err
		}
	}
	if acct == nil {
		return "", nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return "", nil, errInvalidCredentials
	}
	token, _, err := s.tokens.issue(acct.ID)
	if err != nil {
		return "", nil, err
	}
	return token, acct, nil
}
