package sim

import "errors"

// Sentinel errors returned by entity and scheduler operations.
// All of them except ErrInvalidConfig are recoverable: the operation has no
// effect and the simulation continues.
var (
	ErrUnknownState      = errors.New("unknown entity state")
	ErrInvalidTransition = errors.New("operation invalid for current state")
	ErrDuplicateTruck    = errors.New("truck already queued at station")
	ErrNothingToRelease  = errors.New("no completed truck to release")
	ErrUnknownEntity     = errors.New("unknown entity id")
	ErrInvalidConfig     = errors.New("invalid configuration")
)
