package config

import (
	"flag"
	"os"
	"time"
)

// ParseFlags parses all configuration flags from the process arguments.
//
// Flags:
//
//	-d database file path for the durable local store
//	-cache-path file path for the fast cache state file
//	-b/-base-url backend base URL
//	-request-timeout backend request timeout (e.g., "15s")
//	-c/-config json file path with configs
//	-autosave-delay debounce delay before an autosave attempt
//	-retry-delay delay between save retries
//	-max-retries automatic retry budget per save cycle
//	-sync-interval period of the outbox sync job
//	-probe-interval period of the connectivity probe
//	-version application version string
func ParseFlags() *ClientConfig {
	return parseFlagsFrom(os.Args[1:])
}

// parseFlagsFrom parses the given argument list. Split out from ParseFlags
// so tests can feed argument vectors without touching os.Args.
func parseFlagsFrom(args []string) *ClientConfig {
	fs := flag.NewFlagSet("draftguard", flag.ContinueOnError)

	var databaseDSN string
	var cachePath string
	var baseURL string
	var requestTimeout time.Duration
	var jsonConfigPath string
	var autosaveDelay time.Duration
	var retryDelay time.Duration
	var maxRetries int
	var syncInterval time.Duration
	var probeInterval time.Duration
	var version string

	fs.StringVar(&databaseDSN, "d", "", "Durable store database file path")
	fs.StringVar(&cachePath, "cache-path", "", "Fast cache state file path")
	fs.StringVar(&baseURL, "b", "", "Backend base URL")
	fs.StringVar(&baseURL, "base-url", "", "Backend base URL (alias)")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Backend request timeout (e.g., 15s)")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.DurationVar(&autosaveDelay, "autosave-delay", 0, "Autosave debounce delay (e.g., 2s)")
	fs.DurationVar(&retryDelay, "retry-delay", 0, "Save retry delay (e.g., 5s)")
	fs.IntVar(&maxRetries, "max-retries", 0, "Automatic retry budget per save cycle")
	fs.DurationVar(&syncInterval, "sync-interval", 0, "Outbox sync period (e.g., 1m)")
	fs.DurationVar(&probeInterval, "probe-interval", 0, "Connectivity probe period (e.g., 30s)")
	fs.StringVar(&version, "version", "", "Application version string")

	_ = fs.Parse(args)

	return &ClientConfig{
		App: App{
			Version: version,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
			Cache: CacheStore{
				Path: cachePath,
			},
		},
		Adapter: Adapter{
			BaseURL:        baseURL,
			RequestTimeout: requestTimeout,
		},
		Autosave: Autosave{
			Delay:      autosaveDelay,
			RetryDelay: retryDelay,
			MaxRetries: maxRetries,
		},
		Workers: Workers{
			SyncInterval:  syncInterval,
			ProbeInterval: probeInterval,
		},
		JSONFilePath: jsonConfigPath,
	}
}
