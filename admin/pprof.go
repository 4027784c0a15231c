// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package admin

import (
	"fmt"
	"net/http/pprof"
	"os"
	"runtime"
	"strings"

	"github.com/gorilla/mux"
)

// pprofHandlers is a map which holds configuration for
// serving various pprof handlers on the admin servlet.
//
// We only want to expose on the admin servlet because these
// profiles/dumps can contain sensitive info (i.e. password hash, email)
// or alter the app performance.
//
// These values can be overridden by setting the appropriate PPROF_*
// environment variable.
var pprofHandlers = map[string]bool{
	"allocs":       true,
	"block":        true,
	"cmdline":      true,
	"goroutine":    true,
	"heap":         true,
	"mutex":        true,
	"profile":      true,
	"threadcreate": false,
	"trace":        false,
}

// Sampling rates applied by Init. Block and mutex events are only
// recorded with PPROF_BLOCK=yes / PPROF_MUTEX=yes.
const (
	blockProfileRate     = 10000 // ns
	mutexProfileFraction = 100
)

// Init turns on block and mutex sampling when explicitly requested.
// Their routes are served either way and stay empty until then.
func Init() {
	if pprofProfileEnabled("block", false) {
		runtime.SetBlockProfileRate(blockProfileRate)
	}
	if pprofProfileEnabled("mutex", false) {
		runtime.SetMutexProfileFraction(mutexProfileFraction)
	}
}

// pprofProfileEnabled calls out to os.Getenv with the following pattern:
//
//	PPROF_$name where $name is uppercase
//
// A string of "yes" returns true, and "no" returns false, otherwise
// zero is returned. Empty strings return zero.
func pprofProfileEnabled(name string, zero bool) bool {
	v := os.Getenv(fmt.Sprintf("PPROF_%s", strings.ToUpper(name)))
	switch strings.ToLower(v) {
	case "yes":
		return true
	case "no":
		return false
	}
	return zero
}

func addPprofRoutes(r *mux.Router) {
	r.HandleFunc("/debug/pprof/", pprof.Index)
	for name, zero := range pprofHandlers {
		if !pprofProfileEnabled(name, zero) {
			continue
		}
		switch name {
		case "profile":
			r.HandleFunc("/debug/pprof/profile", pprof.Profile)
		case "trace":
			r.HandleFunc("/debug/pprof/trace", pprof.Trace)
		case "cmdline":
			r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		default:
			r.Handle(fmt.Sprintf("/debug/pprof/%s", name), pprof.Handler(name))
		}
	}
}
