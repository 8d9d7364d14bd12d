// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planory

package config

import (
	"time"
)

// ClientConfig is the top-level configuration container for the draftguard
// client. It aggregates all sub-configurations and is populated by merging
// values from environment variables, command-line flags, an optional JSON
// file, and built-in defaults.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type ClientConfig struct {
	// App holds application-level settings such as the version string
	// stamped into backup envelopes.
	App App `envPrefix:"APP_"`

	// Storage holds configuration for the local persistence tiers: the
	// durable SQLite database and the fast file-backed cache.
	Storage Storage `envPrefix:"STORAGE_"`

	// Adapter holds settings for the backend HTTP client.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Autosave holds the save orchestrator's timing knobs.
	Autosave Autosave `envPrefix:"AUTOSAVE_"`

	// Workers holds configuration for background jobs (periodic outbox
	// sync, connectivity probing).
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged below the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// Version is the semantic version string of the running application
	// (e.g. "1.2.3"). It is written into every backup envelope so stale
	// backups can be detected after an upgrade.
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// Storage groups the configuration for the local storage tiers.
type Storage struct {
	// DB holds the durable SQLite database settings.
	DB DB `envPrefix:"DB_"`

	// Cache holds the fast file-backed cache settings.
	Cache CacheStore `envPrefix:"CACHE_"`
}

// DB holds connection settings for the embedded SQLite database.
type DB struct {
	// DSN is the file path of the local SQLite database
	// (e.g. "~/.draftguard/local.db").
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// CacheStore holds settings for the fast local cache file.
type CacheStore struct {
	// Path is the file path of the cache state file. Empty selects a
	// purely in-memory cache (always treated as capacity-limited).
	// Env: STORAGE_CACHE_PATH
	Path string `env:"PATH"`

	// MaxBytes caps the serialised cache file size. Zero selects the
	// built-in default.
	// Env: STORAGE_CACHE_MAX_BYTES
	MaxBytes int `env:"MAX_BYTES"`
}

// Adapter holds settings for the backend HTTP client.
type Adapter struct {
	// BaseURL is the backend base URL (e.g. "https://api.planory.app").
	// Env: ADAPTER_BASE_URL
	BaseURL string `env:"BASE_URL"`

	// RequestTimeout is the per-request transport timeout (e.g. "15s").
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Autosave holds the save orchestrator's timing configuration.
type Autosave struct {
	// Delay is the debounce interval between a registered edit and the
	// save attempt it schedules.
	// Env: AUTOSAVE_DELAY
	Delay time.Duration `env:"DELAY"`

	// RetryDelay is the pause before retrying a failed save.
	// Env: AUTOSAVE_RETRY_DELAY
	RetryDelay time.Duration `env:"RETRY_DELAY"`

	// MaxRetries bounds the automatic retries per save cycle.
	// Env: AUTOSAVE_MAX_RETRIES
	MaxRetries int `env:"MAX_RETRIES"`

	// SavedDisplayDelay is how long the "saved" confirmation is held
	// before the status relaxes back to idle.
	// Env: AUTOSAVE_SAVED_DISPLAY_DELAY
	SavedDisplayDelay time.Duration `env:"SAVED_DISPLAY_DELAY"`
}

// Workers holds configuration for background jobs.
type Workers struct {
	// SyncInterval is the period of the outbox sync job.
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`

	// ProbeInterval is the period of the connectivity probe loop.
	// Env: WORKERS_PROBE_INTERVAL
	ProbeInterval time.Duration `env:"PROBE_INTERVAL"`
}

// GetClientConfig assembles the final client configuration from all
// sources and validates it.
func GetClientConfig() (*ClientConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		withDefaults().
		build()
}
