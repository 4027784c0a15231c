// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"time"

	"github.com/go-kit/kit/metrics/prometheus"
	"github.com/go-kit/log"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

var (
	authSuccesses = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "auth_successes",
		Help: "Count of successful authorizations",
	}, []string{"method"})
	authFailures = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "auth_failures",
		Help: "Count of failed authorizations",
	}, []string{"method"})

	tokenGenerations = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "auth_token_generations",
		Help: "Count of auth tokens created",
	}, []string{"method"})

	accountSignups = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "account_signups",
		Help: "Count of signup attempts by result",
	}, []string{"result"})

	friendCodeCollisions = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "friend_code_collisions",
		Help: "Count of generated friend codes which were already claimed",
	}, []string{})

	internalServerErrors = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "http_internal_errors",
		Help: "Count of requests answered with 500 Internal Server Error",
	}, []string{"component"})

	leaderboardDuration = prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Name:    "leaderboard_duration_seconds",
		Help:    "Time spent aggregating a leaderboard",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{})

	storeKeys = prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
		Name: "kvstore_keys",
		Help: "How many keys the key-value store holds.",
	}, []string{})
)

// keyCounter is satisfied by *kvstore.Store
type keyCounter interface {
	Len() (int, error)
}

// storeCollector periodically publishes the key count of a store.
type storeCollector struct {
	store    keyCounter
	interval time.Duration
	logger   log.Logger
}

// run blocks until done is closed.
func (c storeCollector) run(done <-chan struct{}) {
	if c.store == nil {
		return
	}
	t := time.NewTicker(c.interval)
	defer t.Stop()
	for {
		n, err := c.store.Len()
		if err != nil {
			c.logger.Log("kvstore", "problem counting keys", "error", err)
		} else {
			storeKeys.Set(float64(n))
		}
		select {
		case <-done:
			return
		case <-t.C:
		}
	}
}
