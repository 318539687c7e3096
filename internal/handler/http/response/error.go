package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/policy"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Correction domain errors
	case errors.Is(err, punch.ErrMissingReason):
		BadRequest(w, "Correction reason is required", nil)
	case errors.Is(err, punch.ErrInvalidStatus):
		BadRequest(w, "Status cannot be assigned manually", nil)
	case errors.Is(err, punch.ErrNotCorrectable):
		BadRequest(w, "Day is not correctable", nil)
	case errors.Is(err, punch.ErrTooEarly):
		Conflict(w, "Day cannot be corrected before its absence window closes")
	case errors.Is(err, punch.ErrConcurrentModification):
		Conflict(w, "Record was modified by another correction, please retry")
	case errors.Is(err, punch.ErrPunchNotFound):
		NotFound(w, "Attendance record not found")

	// Policy domain errors
	case errors.Is(err, policy.ErrPolicyNotFound):
		NotFound(w, "Company time policy not found")

	// Upstream read failures
	case errors.Is(err, punch.ErrDataUnavailable):
		ServiceUnavailable(w, "Attendance data is temporarily unavailable")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
