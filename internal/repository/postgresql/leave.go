package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
)

type leaveRepository struct {
	db *database.DB
}

func NewLeaveRepository(db *database.DB) punch.LeaveRepository {
	return &leaveRepository{db: db}
}

// ListApprovedByMonth implements punch.LeaveRepository. Intervals that merely
// overlap the month are included; callers clamp per day via Covers.
func (r *leaveRepository) ListApprovedByMonth(ctx context.Context, companyID string, month int, year int) ([]punch.LeaveInterval, error) {
	q := GetQuerier(ctx, r.db)

	start, end := monthRange(month, year)

	query := `
		SELECT employee_id, company_id, start_date, end_date, leave_type
		FROM leave_intervals
		WHERE company_id = $1
		  AND status = 'approved'
		  AND start_date < $3
		  AND end_date >= $2
		ORDER BY employee_id, start_date
	`

	rows, err := q.Query(ctx, query, companyID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave intervals: %w", err)
	}
	defer rows.Close()

	var intervals []punch.LeaveInterval
	for rows.Next() {
		var l punch.LeaveInterval
		if err := rows.Scan(&l.EmployeeID, &l.CompanyID, &l.StartDate, &l.EndDate, &l.Type); err != nil {
			return nil, fmt.Errorf("failed to scan leave interval: %w", err)
		}
		intervals = append(intervals, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leave intervals: %w", err)
	}

	return intervals, nil
}
