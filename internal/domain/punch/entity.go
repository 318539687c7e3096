package punch

import (
	"time"
)

// DayStatus is the single authoritative classification of one employee-day.
type DayStatus string

const (
	StatusPresent       DayStatus = "PRESENT"
	StatusLate          DayStatus = "LATE"
	StatusAbsentUnpaid  DayStatus = "ABSENT_UNPAID"
	StatusAbsentPaid    DayStatus = "ABSENT_PAID"
	StatusRemote        DayStatus = "REMOTE"
	StatusOnLeave       DayStatus = "ON_LEAVE"
	StatusHoliday       DayStatus = "HOLIDAY"
	StatusOffDay        DayStatus = "OFF_DAY"
	StatusFuture        DayStatus = "FUTURE"
	StatusBeforeCompany DayStatus = "BEFORE_COMPANY"
)

// ManualStatuses are the statuses a correction may assign. A Punch carrying
// one of these in SourceStatus was pinned by a correction and is used verbatim
// on re-derivation.
var ManualStatuses = []DayStatus{
	StatusPresent,
	StatusAbsentPaid,
	StatusRemote,
	StatusLate,
	StatusAbsentUnpaid,
	StatusOnLeave,
}

func IsManualStatus(s DayStatus) bool {
	for _, m := range ManualStatuses {
		if m == s {
			return true
		}
	}
	return false
}

// Punch is one attendance record for one employee on one date. Rows are never
// deleted; corrections rewrite fields and capture the prior values in the
// audit log first. IsVirtual marks rows synthesized without a device punch.
//
// SourceStatus is empty for rows written by the punch-capture collaborator
// (the status is then derived from CheckIn against the policy threshold) and
// holds a manual status once a correction has pinned the day.
type Punch struct {
	ID           string
	EmployeeID   string
	CompanyID    string
	Date         time.Time
	CheckIn      *time.Time
	CheckOut     *time.Time
	SourceStatus DayStatus
	IsVirtual    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LeaveInterval is an approved leave period, read-only input owned by the
// leave-management collaborator.
type LeaveInterval struct {
	EmployeeID string
	CompanyID  string
	StartDate  time.Time
	EndDate    time.Time
	Type       string
}

// Covers reports whether date falls inside the interval, bounds inclusive.
// Comparison is at date granularity.
func (l LeaveInterval) Covers(date time.Time) bool {
	d := date.Format("2006-01-02")
	return d >= l.StartDate.Format("2006-01-02") && d <= l.EndDate.Format("2006-01-02")
}
