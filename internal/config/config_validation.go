// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planory

package config

// validate checks that the final merged [ClientConfig] satisfies all
// invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or a descriptive sentinel
// error otherwise.
func (cfg *ClientConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.BaseURL == "" || cfg.Adapter.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Autosave.Delay <= 0 || cfg.Autosave.RetryDelay <= 0 || cfg.Autosave.MaxRetries < 0 {
		return ErrInvalidAutosaveConfigs
	}

	if cfg.Workers.SyncInterval <= 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}
