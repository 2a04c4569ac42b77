package storage

import "errors"

// Ledger errors shared by every backend.
var (
	// ErrNotFound is returned when a requested match or player has no rows.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when an append would rewrite an existing
	// (player, match_id) or (player, source_key). The ledger is append-only.
	ErrDuplicateKey = errors.New("duplicate key: ledger is append-only")
)
