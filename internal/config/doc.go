// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planory

// Package config provides configuration loading, merging, and validation
// for draftguard.
//
// Configuration is assembled from multiple sources in the following
// priority order (earlier sources win, later ones fill the gaps):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON config file
//  4. Built-in defaults
//
// The entry point is [GetClientConfig].
package config
