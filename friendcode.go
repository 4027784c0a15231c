// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	// friendCodeAlphabet has 32 symbols: no I, O, 0 or 1.
	friendCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	friendCodeLength   = 6

	// maxFriendCodeAttempts bounds how many codes createAccount samples
	// before giving up.
	maxFriendCodeAttempts = 20
)

// generateFriendCode samples friendCodeLength symbols uniformly from
// friendCodeAlphabet. 256 is a multiple of 32 so masking a random byte
// keeps the distribution uniform.
func generateFriendCode() (string, error) {
	bs := make([]byte, friendCodeLength)
	if _, err := rand.Read(bs); err != nil {
		return "", fmt.Errorf("generateFriendCode: %v", err)
	}
	for i := range bs {
		bs[i] = friendCodeAlphabet[bs[i]&31]
	}
	return string(bs), nil
}

// normalizeFriendCode returns the lookup form of a user supplied code.
func normalizeFriendCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func isFriendCode(code string) bool {
	if len(code) != friendCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(friendCodeAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
