package aggregate

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

// ========================================
// DAILY VIEW
// ========================================

type DailyRequest struct {
	Date         string  `json:"date"` // YYYY-MM-DD
	DepartmentID *string `json:"department_id,omitempty"`
}

func (r *DailyRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type DailyRow struct {
	EmployeeID     string          `json:"employee_id"`
	EmployeeName   string          `json:"employee_name"`
	DepartmentID   string          `json:"department_id"`
	DepartmentName string          `json:"department_name"`
	Status         punch.DayStatus `json:"status"`
	CheckIn        *string         `json:"check_in,omitempty"`
	CheckOut       *string         `json:"check_out,omitempty"`
}

type DailyViewResponse struct {
	Date string     `json:"date"`
	Rows []DailyRow `json:"rows"`
}

// ========================================
// DEPARTMENT SUMMARY
// ========================================

type DepartmentRequest struct {
	Month        int     `json:"month"`
	Year         int     `json:"year"`
	DepartmentID *string `json:"department_id,omitempty"`
}

func (r *DepartmentRequest) Validate() error {
	m := punch.MonthRequest{Month: r.Month, Year: r.Year}
	return m.Validate()
}

// StatusCounts buckets the countable statuses. FUTURE, HOLIDAY, OFF_DAY and
// BEFORE_COMPANY are excluded before counting, so Total is the denominator
// for percentages.
type StatusCounts struct {
	Present      int `json:"present"`
	Late         int `json:"late"`
	AbsentUnpaid int `json:"absent_unpaid"`
	AbsentPaid   int `json:"absent_paid"`
	Remote       int `json:"remote"`
	OnLeave      int `json:"on_leave"`
}

// Excluded reports whether a status stays out of summary denominators.
func Excluded(s punch.DayStatus) bool {
	switch s {
	case punch.StatusFuture, punch.StatusHoliday, punch.StatusOffDay, punch.StatusBeforeCompany:
		return true
	}
	return false
}

func (c *StatusCounts) Add(s punch.DayStatus) {
	switch s {
	case punch.StatusPresent:
		c.Present++
	case punch.StatusLate:
		c.Late++
	case punch.StatusAbsentUnpaid:
		c.AbsentUnpaid++
	case punch.StatusAbsentPaid:
		c.AbsentPaid++
	case punch.StatusRemote:
		c.Remote++
	case punch.StatusOnLeave:
		c.OnLeave++
	}
}

func (c *StatusCounts) Merge(other StatusCounts) {
	c.Present += other.Present
	c.Late += other.Late
	c.AbsentUnpaid += other.AbsentUnpaid
	c.AbsentPaid += other.AbsentPaid
	c.Remote += other.Remote
	c.OnLeave += other.OnLeave
}

func (c StatusCounts) Total() int {
	return c.Present + c.Late + c.AbsentUnpaid + c.AbsentPaid + c.Remote + c.OnLeave
}

type StatusPercentages struct {
	Present      float64 `json:"present"`
	Late         float64 `json:"late"`
	AbsentUnpaid float64 `json:"absent_unpaid"`
	AbsentPaid   float64 `json:"absent_paid"`
	Remote       float64 `json:"remote"`
	OnLeave      float64 `json:"on_leave"`
}

type DepartmentSummary struct {
	DepartmentID   string            `json:"department_id"`
	DepartmentName string            `json:"department_name"`
	Counts         StatusCounts      `json:"counts"`
	Percentages    StatusPercentages `json:"percentages"`
}

type DepartmentSummaryResponse struct {
	Month       int                 `json:"month"`
	Year        int                 `json:"year"`
	Departments []DepartmentSummary `json:"departments"`
}

// ========================================
// MONTHLY GRID
// ========================================

type GridRow struct {
	EmployeeID   string            `json:"employee_id"`
	EmployeeName string            `json:"employee_name"`
	Statuses     []punch.DayStatus `json:"statuses"` // index 0 = day 1
}

type MonthlyGrid struct {
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	DaysInMonth int       `json:"days_in_month"`
	Employees   []GridRow `json:"employees"`
}

// DaysIn returns the number of calendar days in the month.
func DaysIn(month int, year int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
