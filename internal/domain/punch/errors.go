package punch

import "errors"

// Correction rejections are typed so callers can branch on which rule failed.
var (
	ErrTooEarly               = errors.New("correction window has not opened for this day")
	ErrMissingReason          = errors.New("correction reason is required")
	ErrInvalidStatus          = errors.New("status is not manually assignable")
	ErrNotCorrectable         = errors.New("day is not subject to correction")
	ErrConcurrentModification = errors.New("punch record was modified concurrently")

	ErrPunchNotFound   = errors.New("punch record not found")
	ErrDataUnavailable = errors.New("attendance data unavailable")
)
