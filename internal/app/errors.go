/**
 * @description
 * This file defines the service-level error values. State-machine errors
 * (invalid transitions, lock guards, obligation gates) originate in the store
 * package where the transactions detect them; the errors here cover
 * authorization and input rules enforced before any database work.
 */
package app

import "errors"

var (
	ErrForbidden           = errors.New("caller is not allowed to perform this action")
	ErrNotGroupMember      = errors.New("player is not an active member of this group")
	ErrInvalidCourtCount   = errors.New("courts must be at least 1")
	ErrInvalidRates        = errors.New("court rates must not be negative")
	ErrInvalidPlayerBounds = errors.New("min players must be at least 1 and max must not be below min")
	ErrInvalidSchedule     = errors.New("scheduled time and duration must be set")
	ErrInvalidSignupStatus = errors.New("unsupported signup status")
	ErrLockedFieldEdit     = errors.New("only title, payment deadline and a raised max can change while locked")
	ErrNoteRequired        = errors.New("a note is required")
)
