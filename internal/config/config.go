// Package config loads the server's environment-variable configuration
// surface. Modeled on original_source/src/env.h's required/optional
// accessor split and Voskan-arena-cache/pkg/config.go's validation-pass
// style.
//
// © 2025 cachecore authors. MIT License.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Defaults for the optional environment variables.
const (
	DefaultNumShards       = 24
	DefaultSockBufSize     = 1048576
	DefaultConnQueueLimit  = 1048576
	DefaultEnableCompress  = true
)

var (
	errMissingPort         = errors.New("config: SERVER_PORT is required")
	errMissingMetricsHost  = errors.New("config: METRICS_HOST is required")
	errMissingMetricsPort  = errors.New("config: METRICS_PORT is required")
	errInvalidNumShards    = errors.New("config: NUM_SHARDS must be a positive integer")
	errInvalidSockBufSize  = errors.New("config: SOCK_BUF_SIZE must be a positive integer")
	errInvalidConnQueue    = errors.New("config: CONN_QUEUE_LIMIT must be a positive integer")
)

// Config is the fully resolved, validated configuration for one server
// process.
type Config struct {
	ServerPort        string
	NumShards         int
	SockBufSize       int
	ConnQueueLimit    int
	EnableCompression bool
	MetricsHost       string
	MetricsPort       string
}

// Load reads the configuration surface from the process environment.
func Load() (Config, error) {
	cfg := Config{
		NumShards:         DefaultNumShards,
		SockBufSize:       DefaultSockBufSize,
		ConnQueueLimit:    DefaultConnQueueLimit,
		EnableCompression: DefaultEnableCompress,
	}

	port, ok := os.LookupEnv("SERVER_PORT")
	if !ok || port == "" {
		return Config{}, errMissingPort
	}
	cfg.ServerPort = port

	host, ok := os.LookupEnv("METRICS_HOST")
	if !ok || host == "" {
		return Config{}, errMissingMetricsHost
	}
	cfg.MetricsHost = host

	mport, ok := os.LookupEnv("METRICS_PORT")
	if !ok || mport == "" {
		return Config{}, errMissingMetricsPort
	}
	cfg.MetricsPort = mport

	if v, ok := os.LookupEnv("NUM_SHARDS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, errInvalidNumShards
		}
		cfg.NumShards = n
	}

	if v, ok := os.LookupEnv("SOCK_BUF_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, errInvalidSockBufSize
		}
		cfg.SockBufSize = n
	}

	if v, ok := os.LookupEnv("CONN_QUEUE_LIMIT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, errInvalidConnQueue
		}
		cfg.ConnQueueLimit = n
	}

	if v, ok := os.LookupEnv("ENABLE_COMPRESSION"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: ENABLE_COMPRESSION must be a boolean: %w", err)
		}
		cfg.EnableCompression = b
	}

	return cfg, nil
}
