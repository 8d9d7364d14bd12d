// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planory

// Package adapter provides transport-layer access to the Planory backend.
//
// The primary abstraction is [Backend], which decouples the durability
// layer from the underlying protocol. The package ships an HTTP/REST
// implementation ([NewHTTPBackend]) built on resty.
//
// Error values and types defined in errors.go are mapped from HTTP status
// codes by mapHTTPError so that callers can use [errors.Is] and
// [errors.As] for transport-agnostic classification: [*RateLimitError]
// for 429, [*RejectedError] for permanent 4xx rejections, plain wrapped
// errors for transient failures.
package adapter

import (
	"context"
	"encoding/json"

	"github.com/planory/draftguard/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/backend_mock.go -package=mock

// Backend defines transport-agnostic communication with the Planory
// backend. Implementations are responsible for serialisation, bearer token
// management, and mapping transport-level errors to the taxonomy defined
// in this package.
type Backend interface {
	// SetToken stores the bearer token attached to all subsequent
	// authenticated requests.
	SetToken(token string)

	// Token returns the bearer token currently stored in the adapter,
	// or an empty string if none has been set yet.
	Token() string

	// SaveDocument persists the full document snapshot wrapped in env
	// under the given document key. Returns [*RateLimitError] on 429,
	// [*RejectedError] on permanent rejection, or a transient error.
	SaveDocument(ctx context.Context, key string, env models.BackupEnvelope) error

	// ApplyMutation replays one queued mutation against the backend,
	// routing by the mutation's op and entity. The returned body is the
	// backend's response for creates/updates, nil for deletes. Error
	// classification matches SaveDocument.
	ApplyMutation(ctx context.Context, m models.Mutation) (json.RawMessage, error)

	// Ping probes the backend health endpoint. A nil error means the
	// backend is reachable; used by the connectivity monitor.
	Ping(ctx context.Context) error
}
