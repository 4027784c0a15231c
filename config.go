// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-kit/log"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

const defaultDBPath = "ledgerd.db"

// Config holds everything needed to start the service.
type Config struct {
	HTTPAddr  string `yaml:"http_addr"`
	AdminAddr string `yaml:"admin_addr"`

	// DBPath is where the key-value store lives on disk.
	// ":memory:" keeps everything in RAM.
	DBPath string `yaml:"db_path"`

	// JWTSecret signs session tokens. Required.
	JWTSecret  string `yaml:"jwt_secret"`
	BcryptCost int    `yaml:"bcrypt_cost"`
}

func defaultConfig() Config {
	return Config{
		HTTPAddr:   ":8080",
		AdminAddr:  ":9090",
		DBPath:     defaultDBPath,
		BcryptCost: bcrypt.DefaultCost,
	}
}

// loadConfig layers defaults, the YAML file at path (if any) and
// environment variables, in that order.
func loadConfig(path string, getenv func(string) string, logger log.Logger) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		bs, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config %s: %v", path, err)
		}
		if err := yaml.Unmarshal(bs, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %v", path, err)
		}
	}

	if v := getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := getenv("ADMIN_ADDR"); v != "" {
		cfg.AdminAddr = v
	}
	if v := getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := getenv("BCRYPT_COST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("BCRYPT_COST: %v", err)
		}
		cfg.BcryptCost = n
	}

	if cleaned := cleanDBPath(cfg.DBPath); cleaned != cfg.DBPath {
		logger.Log("config", fmt.Sprintf("db path %q rejected, falling back to %s", cfg.DBPath, cleaned))
		cfg.DBPath = cleaned
	}
	return cfg, nil
}

// cleanDBPath falls back to the default when path is empty or tries to
// escape upwards. Don't filepath.Abs to avoid full-fs reads.
func cleanDBPath(path string) string {
	if path == "" || strings.Contains(path, "..") {
		return defaultDBPath
	}
	return path
}

func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("empty http address")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost %d out of range [%d, %d]", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}
