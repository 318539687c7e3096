package punch

import (
	"context"
	"time"
)

// PunchRepository is the storage boundary for attendance punches. Reads are
// batched per month so a whole-company aggregation costs one query, not one
// per day. All methods are company-scoped to prevent cross-company access.
type PunchRepository interface {
	// ListByMonth returns every punch for the company in the given month.
	ListByMonth(ctx context.Context, companyID string, month int, year int) ([]Punch, error)

	// GetByEmployeeAndDate returns nil (no error) when no row exists; the
	// caller decides whether the day is a virtual absence.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (*Punch, error)

	// Create inserts a row, used by correction materialization only.
	Create(ctx context.Context, p Punch) (Punch, error)

	// UpdateChecked rewrites the correctable fields of an existing row if and
	// only if its updated_at still equals expectedUpdatedAt. Returns
	// ErrConcurrentModification when the row changed underneath the caller.
	UpdateChecked(ctx context.Context, p Punch, expectedUpdatedAt time.Time) (Punch, error)
}

// LeaveRepository reads approved leave intervals overlapping a month.
type LeaveRepository interface {
	ListApprovedByMonth(ctx context.Context, companyID string, month int, year int) ([]LeaveInterval, error)
}
