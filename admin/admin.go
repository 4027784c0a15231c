// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package admin runs the HTTP servlet for operators: Prometheus metrics,
// pprof profiles and liveness checks. It is never exposed to end users.
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewServer returns an admin Server bound to addr (":9090" when empty).
func NewServer(addr string) *Server {
	if addr == "" {
		addr = ":9090"
	}
	timeout, _ := time.ParseDuration("45s")
	s := &Server{
		checks: make(map[string]func() error),
	}
	s.svc = &http.Server{
		Addr:         addr,
		Handler:      s.handler(),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		IdleTimeout:  timeout,
	}
	return s
}

// Server represents a holder around a net/http Server which
// is used for admin endpoints. (i.e. metrics, healthcheck)
type Server struct {
	svc *http.Server

	mu     sync.RWMutex
	checks map[string]func() error
}

func (s *Server) BindAddress() string {
	return s.svc.Addr
}

// Handler exposes the admin routes, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.svc.Handler
}

// AddLivenessCheck registers f under name. /live fails while any
// registered check returns an error.
func (s *Server) AddLivenessCheck(name string, f func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = f
}

// Listen brings up the admin HTTP service. This call blocks.
func (s *Server) Listen() error {
	if s == nil || s.svc == nil {
		return nil
	}
	return s.svc.ListenAndServe()
}

// Shutdown unbinds the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.svc == nil {
		return nil
	}
	return s.svc.Shutdown(ctx)
}

func (s *Server) handler() http.Handler {
	r := mux.NewRouter()

	// prometheus metrics
	r.Methods("GET").Path("/metrics").Handler(promhttp.Handler())

	r.Methods("GET").Path("/live").HandlerFunc(s.liveHandler)

	addPprofRoutes(r)
	return r
}

// liveHandler runs every liveness check and reports each failure by name.
func (s *Server) liveHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)

	failures := make(map[string]string)
	for _, name := range names {
		s.mu.RLock()
		check := s.checks[name]
		s.mu.RUnlock()
		if err := check(); err != nil {
			failures[name] = err.Error()
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if len(failures) > 0 {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(failures)
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
