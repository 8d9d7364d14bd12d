package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrBackupNotFound is returned when no backup envelope exists for the
	// requested key.
	ErrBackupNotFound = errors.New("backup not found")

	// ErrMutationNotFound is returned when a status transition or removal
	// targets a mutation id that is not present in the outbox.
	ErrMutationNotFound = errors.New("mutation not found")

	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")
)
