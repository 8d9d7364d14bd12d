// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planory

// Package client implements the draftguard application runtime.
//
// It wires local storage, the backend adapter, connectivity monitoring,
// and the durability services into a single process lifecycle, including
// signal-driven flushing so work in flight survives termination.
package client
