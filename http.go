// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-kit/log"
)

const (
	// maxReadBytes is the number of bytes to read
	// from a request body. It's intended to be used
	// with an io.LimitReader
	maxReadBytes = 1 * 1024 * 1024
)

// read consumes an io.Reader (wrapping with io.LimitReader)
// and returns either the resulting bytes or a non-nil error.
func read(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, errors.New("nil body")
	}
	r = io.LimitReader(r, maxReadBytes)
	return io.ReadAll(r)
}

// decodeBody reads the request body into v. Any problem with the body
// is reported as a validation error.
func decodeBody(r *http.Request, v interface{}) error {
	bs, err := read(r.Body)
	if err != nil {
		return validationError("unreadable request body")
	}
	if err := json.Unmarshal(bs, v); err != nil {
		return validationError("malformed JSON body")
	}
	return nil
}

// isJSONArray reports whether raw is a well-formed JSON array.
func isJSONArray(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '[' && json.Valid(raw)
}

// respondJSON writes payload with the given status code.
func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// encodeError JSON encodes the supplied error as
// {"success": false, "error": "..."}.
//
// Errors the service doesn't recognize are logged under component and
// written as a generic "500 Internal Server Error".
func encodeError(w http.ResponseWriter, logger log.Logger, component string, err error) {
	if err == nil {
		return
	}
	status, msg, ok := errorStatus(err)
	if !ok {
		internalServerErrors.With("component", component).Add(1)
		logger.Log(component, fmt.Sprintf("internal error: %v", err))
	}
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}

// success wraps fields into a {"success": true, ...} payload.
func success(fields map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{"success": true}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// recoverHandler turns panics in next into generic 500 responses.
func recoverHandler(logger log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				encodeError(w, logger, "panic", fmt.Errorf("%s %s: %v", r.Method, r.URL.Path, v))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
