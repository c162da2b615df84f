package engine

import "errors"

// Command and directive failures are values returned to the caller,
// never process termination. Snapshot errors live in the snapshot
// package; state invariant violations are clamped and logged, never
// surfaced across the command boundary.
var (
	ErrInvalidCommand   = errors.New("commande invalide")
	ErrPermissionDenied = errors.New("permission refusée")
)
