// Package matching implements the ride capacity and request-matching
// engine: ride offer lifecycle, seat request state transitions, the
// interest registry for event rides, and the transactional protocol that
// keeps a ride's accepted count at or below its capacity under
// concurrent accepts.
package matching

import "errors"

// ErrNotFound is returned when a ride, request or interest registration
// does not resolve.  Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the acting participant lacks permission
// for the attempted transition (e.g. a non-driver accepting a request).
// Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state: duplicate requests, self-requests, a driver who
// already offers a ride in the same context, or a capacity patch that
// would strand accepted riders.  Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrRideFull is the capacity-specific conflict: the ride already has as
// many accepted requests as it has seats.  It wraps ErrConflict so
// callers that only care about the taxonomy can match the broader
// sentinel with errors.Is.
var ErrRideFull = errRideFull{}

// ErrNothingToPatch is returned when a patch carries no change, such as
// accepting an already-accepted request or an empty ride patch.
// Handlers translate it into HTTP 400.
var ErrNothingToPatch = errors.New("nothing to patch")

type errRideFull struct{}

func (errRideFull) Error() string { return "ride is full" }

func (errRideFull) Is(target error) bool { return target == ErrConflict }
