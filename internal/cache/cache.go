// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planory

// Package cache implements the fast local cache: a small synchronous
// key-value store used for near-instant local backup on every edit. It is
// the first storage tier; when it reports itself limited or degraded the
// caller also writes to the durable store.
package cache

// Cache is a small synchronous key-value store with an in-memory fallback.
type Cache interface {
	// Get returns the value stored under key and whether it was present.
	Get(key string) (string, bool)

	// Set stores value under key and reports whether the value reached
	// the persistent tier. A false return means the value is held in
	// memory only and the caller should also write to durable storage.
	Set(key, value string) bool

	// Remove deletes the value stored under key.
	Remove(key string)

	// IsLimited reports whether the cache is operating in a degraded or
	// capacity-limited mode. Callers use it to decide whether to
	// double-write to the durable store up front.
	IsLimited() bool
}
