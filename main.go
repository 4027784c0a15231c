// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finflex/ledgerd/admin"
	"github.com/finflex/ledgerd/pkg/kvstore"

	"github.com/go-kit/log"
)

var (
	flagConfig    = flag.String("config", "", "Path to a YAML config file")
	flagHTTPAddr  = flag.String("http.addr", "", "HTTP listen address (overrides config)")
	flagAdminAddr = flag.String("admin.addr", "", "Admin HTTP listen address (overrides config)")
)

const Version = "0.1.0-dev"

func main() {
	flag.Parse()

	// Setup logging, default to stderr
	var logger log.Logger
	logger = log.NewLogfmtLogger(os.Stderr)
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "caller", log.DefaultCaller)
	logger.Log("startup", fmt.Sprintf("Starting ledgerd version %s", Version))

	cfg, err := loadConfig(*flagConfig, os.Getenv, logger)
	if err != nil {
		logger.Log("config", err)
		os.Exit(1)
	}
	if *flagHTTPAddr != "" {
		cfg.HTTPAddr = *flagHTTPAddr
	}
	if *flagAdminAddr != "" {
		cfg.AdminAddr = *flagAdminAddr
	}
	if err := cfg.Validate(); err != nil {
		logger.Log("config", err)
		os.Exit(1)
	}

	// The store handle is opened once and shared by every component.
	store, err := kvstore.Open(cfg.DBPath)
	if err != nil {
		logger.Log("kvstore", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Log("kvstore", fmt.Sprintf("opened %s", cfg.DBPath))

	tokens, err := newTokenIssuer(cfg.JWTSecret)
	if err != nil {
		logger.Log("startup", err)
		os.Exit(1)
	}
	handler := newRouter(logger, newServices(store, tokens, cfg.BcryptCost, logger))

	done := make(chan struct{})
	defer close(done)
	go storeCollector{store: store, interval: 15 * time.Second, logger: logger}.run(done)

	// Listen for application termination.
	errs := make(chan error)
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errs <- fmt.Errorf("%s", <-c)
	}()

	serve := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
		TLSConfig: &tls.Config{
			InsecureSkipVerify: false,
			MinVersion:         tls.VersionTLS12,
		},
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	admin.Init()
	adminServer := admin.NewServer(cfg.AdminAddr)
	adminServer.AddLivenessCheck("kvstore", store.Ping)
	go func() {
		logger.Log("admin", fmt.Sprintf("Starting admin service on %s", adminServer.BindAddress()))
		if err := adminServer.Listen(); err != nil && err != http.ErrServerClosed {
			logger.Log("admin", "shutting down", "error", err)
		}
	}()

	go func() {
		logger.Log("transport", "HTTP", "addr", cfg.HTTPAddr)
		errs <- serve.ListenAndServe()
	}()

	if err := <-errs; err != nil {
		logger.Log("exit", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := adminServer.Shutdown(ctx); err != nil {
		logger.Log("admin", "shutdown", "error", err)
	}
	if err := serve.Shutdown(ctx); err != nil {
		logger.Log("shutdown", err)
	}
}
