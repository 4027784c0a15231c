// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"net/http"
)

type errorKind int

const (
	kindValidation errorKind = iota
	kindConflict
	kindUnauthorized
	kindNotFound
	kindUnavailable
)

// serviceError is an error whose message is safe to show to callers.
// Everything else is reported as a generic 500.
type serviceError struct {
	kind errorKind
	msg  string
}

func (e *serviceError) Error() string {
	return e.msg
}

func (e *serviceError) status() int {
	switch e.kind {
	case kindValidation, kindConflict:
		return http.StatusBadRequest
	case kindUnauthorized:
		return http.StatusUnauthorized
	case kindNotFound:
		return http.StatusNotFound
	case kindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func validationError(msg string) error {
	return &serviceError{kind: kindValidation, msg: msg}
}

func conflictError(msg string) error {
	return &serviceError{kind: kindConflict, msg: msg}
}

func notFoundError(msg string) error {
	return &serviceError{kind: kindNotFound, msg: msg}
}

var (
	// errUnauthorized covers every token failure: missing, malformed,
	// badly signed and expired all look the same to the caller.
	errUnauthorized = &serviceError{kind: kindUnauthorized, msg: "unauthorized"}

	// errInvalidCredentials is returned for both unknown identifiers and
	// wrong passwords.
	errInvalidCredentials = &serviceError{kind: kindUnauthorized, msg: "invalid credentials"}

	errFriendCodeExhausted = &serviceError{kind: kindUnavailable, msg: "could not allocate a friend code, try again"}

	errEmailInUse    = conflictError("email in use")
	errUsernameInUse = conflictError("username in use")

	errAccountNotFound    = notFoundError("account not found")
	errFriendCodeNotFound = notFoundError("friend code not found")

	errCannotAddSelf  = validationError("cannot add yourself")
	errAlreadyFriends = validationError("already friends")
)

// errorStatus returns the HTTP status and caller-facing message for err.
// ok is false when err is not a serviceError and must be treated as internal.
func errorStatus(err error) (status int, msg string, ok bool) {
	var se *serviceError
	if errors.As(err, &se) {
		return se.status(), se.msg, true
	}
	return http.StatusInternalServerError, "internal server error", false
}
