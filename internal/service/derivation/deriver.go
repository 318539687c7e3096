package derivation

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/policy"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
)

// Snapshot is a point-in-time read of everything needed to classify a month:
// the company calendar, every punch and approved leave of the period, and the
// clock reading the whole evaluation is pinned to. Derivation over a snapshot
// is pure; the same snapshot always classifies the same way.
type Snapshot struct {
	Calendar policy.Calendar
	Punches  map[string]map[string]*punch.Punch  // employeeID -> YYYY-MM-DD -> punch
	Leaves   map[string][]punch.LeaveInterval    // employeeID -> intervals
	Now      time.Time
}

// PunchFor returns the punch for one employee-day, or nil.
func (s Snapshot) PunchFor(employeeID string, date time.Time) *punch.Punch {
	days, ok := s.Punches[employeeID]
	if !ok {
		return nil
	}
	return days[date.Format("2006-01-02")]
}

func (s Snapshot) onApprovedLeave(employeeID string, date time.Time) bool {
	for _, interval := range s.Leaves[employeeID] {
		if interval.Covers(date) {
			return true
		}
	}
	return false
}

// Deriver classifies one employee-day. It is side-effect free; all rules are
// total, so it never returns an error.
type Deriver struct{}

func NewDeriver() *Deriver {
	return &Deriver{}
}

// Derive applies the classification rules in priority order, first match wins:
//
//  1. month precedes the company's creation month -> BEFORE_COMPANY
//  2. not a configured working day -> OFF_DAY, even when stray punch data exists
//  3. registered holiday -> HOLIDAY
//  4. the whole day lies after the snapshot clock -> FUTURE
//  5. approved leave covers the date -> ON_LEAVE
//  6. a punch exists: a manually pinned status wins verbatim; otherwise the
//     check-in decides (missing -> ABSENT_UNPAID, at or before the absence
//     threshold -> PRESENT, later -> LATE)
//  7. no punch: today before the threshold is not yet evaluable (FUTURE for
//     display), afterwards the day is an implicit ABSENT_UNPAID with no
//     backing row — the virtual case corrections materialize.
func (d *Deriver) Derive(snap Snapshot, employeeID string, date time.Time) punch.DayStatus {
	pol := snap.Calendar.Policy

	if pol.IsBeforeCompanyCreation(date) {
		return punch.StatusBeforeCompany
	}

	if !pol.IsWorkingDay(date) {
		return punch.StatusOffDay
	}

	if snap.Calendar.IsHoliday(date) {
		return punch.StatusHoliday
	}

	if pol.StartOfDay(date).After(snap.Now) {
		return punch.StatusFuture
	}

	if snap.onApprovedLeave(employeeID, date) {
		return punch.StatusOnLeave
	}

	threshold := pol.AbsenceThreshold(date)

	if p := snap.PunchFor(employeeID, date); p != nil {
		if punch.IsManualStatus(p.SourceStatus) {
			return p.SourceStatus
		}
		if p.CheckIn == nil {
			return punch.StatusAbsentUnpaid
		}
		// Inclusive threshold: a check-in at the exact threshold is on time.
		if !p.CheckIn.After(threshold) {
			return punch.StatusPresent
		}
		return punch.StatusLate
	}

	if pol.SameDay(date, snap.Now) && snap.Now.Before(threshold) {
		// Absence not yet declared for today.
		return punch.StatusFuture
	}

	return punch.StatusAbsentUnpaid
}

// DeriveMonth classifies every day of the month for one employee. Days
// iterate 1..daysInMonth ascending.
func (d *Deriver) DeriveMonth(snap Snapshot, employeeID string, month int, year int) map[string]punch.DayStatus {
	loc := time.UTC
	if snap.Calendar.Policy.Location != nil {
		loc = snap.Calendar.Policy.Location
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	days := first.AddDate(0, 1, 0).Sub(first).Hours() / 24

	statuses := make(map[string]punch.DayStatus, int(days))
	for day := first; day.Month() == time.Month(month); day = day.AddDate(0, 0, 1) {
		statuses[day.Format("2006-01-02")] = d.Derive(snap, employeeID, day)
	}
	return statuses
}
