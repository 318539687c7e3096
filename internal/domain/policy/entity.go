package policy

import (
	"time"
)

// TimePolicy is the per-company attendance configuration. It is the only place
// that knows how to turn a calendar date into "working day or not" and "when
// does the absence window close"; every caller goes through these methods so
// the threshold semantics stay identical across derivation and correction.
type TimePolicy struct {
	CompanyID            string
	OfficialStartHour    int   // 0..23
	LateToleranceMinutes int   // >= 0
	WorkDays             []int // ISO weekday numbers, 1=Monday .. 7=Sunday
	CompanyCreatedAt     time.Time
	Location             *time.Location
}

// ISOWeekday returns the weekday of date with Sunday normalized to 7.
func ISOWeekday(date time.Time) int {
	wd := int(date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// IsWorkingDay reports whether date falls on one of the configured work days.
func (p TimePolicy) IsWorkingDay(date time.Time) bool {
	wd := ISOWeekday(date.In(p.location()))
	for _, d := range p.WorkDays {
		if d == wd {
			return true
		}
	}
	return false
}

// AbsenceThreshold is the wall-clock instant after which a missing check-in
// counts as an absence: OfficialStartHour:LateToleranceMinutes:00 on date,
// in the company locale. A check-in at exactly this instant is on time.
func (p TimePolicy) AbsenceThreshold(date time.Time) time.Time {
	d := date.In(p.location())
	return time.Date(d.Year(), d.Month(), d.Day(), p.OfficialStartHour, p.LateToleranceMinutes, 0, 0, p.location())
}

// IsBeforeCompanyCreation compares at month granularity: a company created
// mid-month still has data for that whole month.
func (p TimePolicy) IsBeforeCompanyCreation(date time.Time) bool {
	d := date.In(p.location())
	c := p.CompanyCreatedAt.In(p.location())
	if d.Year() != c.Year() {
		return d.Year() < c.Year()
	}
	return d.Month() < c.Month()
}

// ParseDate parses a YYYY-MM-DD string as midnight in the company locale.
// Every caller turning request dates into instants goes through here so the
// calendar day under evaluation never shifts with the server's own zone.
func (p TimePolicy) ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, p.location())
}

// StartOfDay returns midnight of date in the company locale.
func (p TimePolicy) StartOfDay(date time.Time) time.Time {
	d := date.In(p.location())
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, p.location())
}

// SameDay reports whether a and b fall on the same calendar day in the
// company locale.
func (p TimePolicy) SameDay(a, b time.Time) bool {
	return p.StartOfDay(a).Equal(p.StartOfDay(b))
}

func (p TimePolicy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// Holiday is a company-registered non-working date.
type Holiday struct {
	CompanyID string
	Date      time.Time
	Name      string
}

// Calendar couples a TimePolicy with the registered holidays for the period
// being evaluated.
type Calendar struct {
	Policy   TimePolicy
	holidays map[string]struct{}
}

func NewCalendar(p TimePolicy, holidays []Holiday) Calendar {
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[h.Date.Format("2006-01-02")] = struct{}{}
	}
	return Calendar{Policy: p, holidays: set}
}

func (c Calendar) IsHoliday(date time.Time) bool {
	_, ok := c.holidays[date.In(c.Policy.location()).Format("2006-01-02")]
	return ok
}
