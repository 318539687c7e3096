package audit

import "time"

// Field names recorded on correction log entries.
const (
	FieldStatus   = "status"
	FieldCheckIn  = "check_in"
	FieldCheckOut = "check_out"
)

// CorrectionLogEntry is one field-level change applied by a correction.
// Entries are append-only and immutable once written; they are the only place
// attendance history is recorded.
type CorrectionLogEntry struct {
	ID         string
	CompanyID  string
	EmployeeID string
	Date       time.Time
	Field      string
	OldValue   *string
	NewValue   *string
	Reason     string
	ModifiedBy string
	CreatedAt  time.Time
}
