package punch

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

// ========================================
// DERIVATION DTOs
// ========================================

type MonthRequest struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Month      int     `json:"month"`
	Year       int     `json:"year"`
}

func (r *MonthRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Month < 1 || r.Month > 12 {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}

	currentYear := time.Now().Year()
	if r.Year < 2000 || r.Year > currentYear+1 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year is out of range",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// MonthStatusesResponse maps every date of the month ("YYYY-MM-DD") to its
// derived status for one employee, with per-status totals for the period.
type MonthStatusesResponse struct {
	EmployeeID string               `json:"employee_id"`
	Month      int                  `json:"month"`
	Year       int                  `json:"year"`
	Days       map[string]DayStatus `json:"days"`
	Summary    map[DayStatus]int    `json:"summary"`
}

type PunchResponse struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	Date         string  `json:"date"`
	CheckIn      *string `json:"check_in,omitempty"`
	CheckOut     *string `json:"check_out,omitempty"`
	SourceStatus string  `json:"source_status,omitempty"`
	Status       string  `json:"status"`
	IsVirtual    bool    `json:"is_virtual"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// TimePtrToString formats an optional timestamp for responses.
func TimePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format("2006-01-02 15:04:05")
	return &formatted
}

// ========================================
// CORRECTION DTOs
// ========================================

// CorrectionRequest is a privileged override of one employee-day. Reason and
// status rules are enforced by the correction service with typed errors;
// Validate covers formats only.
type CorrectionRequest struct {
	EmployeeID string  `json:"employee_id"`
	Date       string  `json:"date"`      // YYYY-MM-DD
	NewStatus  string  `json:"new_status"`
	CheckIn    *string `json:"check_in,omitempty"`  // RFC3339
	CheckOut   *string `json:"check_out,omitempty"` // RFC3339
	Reason     string  `json:"reason"`
	Actor      string  `json:"-"` // from auth claims, never the request body
}

func (r *CorrectionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if r.CheckIn != nil && *r.CheckIn != "" {
		if _, valid := validator.IsValidDateTime(*r.CheckIn); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "check_in",
				Message: "check_in must be an ISO8601 timestamp",
			})
		}
	}

	if r.CheckOut != nil && *r.CheckOut != "" {
		if _, valid := validator.IsValidDateTime(*r.CheckOut); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "check_out",
				Message: "check_out must be an ISO8601 timestamp",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
