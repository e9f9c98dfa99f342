package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and adapters return these
// (optionally wrapped) so services can translate them into domain errors once.
//
//   - ErrNotFound: no record for the requested key
//   - ErrConflict: the key already holds a record
//   - ErrCorrupt: persisted state exists but cannot be parsed
//   - ErrUnavailable: backing service unreachable or refusing calls
//   - ErrInvalidState: entity in the wrong state for the requested operation
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrCorrupt      = errors.New("corrupt")
	ErrUnavailable  = errors.New("unavailable")
	ErrInvalidState = errors.New("invalid state")
)
