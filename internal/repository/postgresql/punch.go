package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type punchRepository struct {
	db *database.DB
}

func NewPunchRepository(db *database.DB) punch.PunchRepository {
	return &punchRepository{db: db}
}

// monthRange returns [first day of month, first day of next month).
func monthRange(month int, year int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// ListByMonth implements punch.PunchRepository.
func (r *punchRepository) ListByMonth(ctx context.Context, companyID string, month int, year int) ([]punch.Punch, error) {
	q := GetQuerier(ctx, r.db)

	start, end := monthRange(month, year)

	query := `
		SELECT id, employee_id, company_id, date, check_in, check_out,
			   COALESCE(source_status, ''), is_virtual, created_at, updated_at
		FROM punches
		WHERE company_id = $1
		  AND date >= $2
		  AND date < $3
		ORDER BY employee_id, date
	`

	rows, err := q.Query(ctx, query, companyID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list punches: %w", err)
	}
	defer rows.Close()

	var punches []punch.Punch
	for rows.Next() {
		var p punch.Punch
		err := rows.Scan(
			&p.ID, &p.EmployeeID, &p.CompanyID, &p.Date, &p.CheckIn, &p.CheckOut,
			&p.SourceStatus, &p.IsVirtual, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan punch: %w", err)
		}
		punches = append(punches, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate punches: %w", err)
	}

	return punches, nil
}

// GetByEmployeeAndDate implements punch.PunchRepository.
func (r *punchRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (*punch.Punch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, company_id, date, check_in, check_out,
			   COALESCE(source_status, ''), is_virtual, created_at, updated_at
		FROM punches
		WHERE employee_id = $1
		  AND date = $2
		  AND company_id = $3
		LIMIT 1
	`

	var p punch.Punch
	err := q.QueryRow(ctx, query, employeeID, date, companyID).Scan(
		&p.ID, &p.EmployeeID, &p.CompanyID, &p.Date, &p.CheckIn, &p.CheckOut,
		&p.SourceStatus, &p.IsVirtual, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get punch: %w", err)
	}

	return &p, nil
}

// Create implements punch.PunchRepository.
func (r *punchRepository) Create(ctx context.Context, p punch.Punch) (punch.Punch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO punches (
			id, employee_id, company_id, date, check_in, check_out,
			source_status, is_virtual
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		p.ID,
		p.EmployeeID,
		p.CompanyID,
		p.Date,
		p.CheckIn,
		p.CheckOut,
		p.SourceStatus,
		p.IsVirtual,
	).Scan(&p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return punch.Punch{}, fmt.Errorf("failed to create punch: %w", err)
	}

	return p, nil
}

// UpdateChecked implements punch.PunchRepository. The updated_at predicate is
// the optimistic concurrency token: zero rows affected on a row that exists
// means another correction committed first.
func (r *punchRepository) UpdateChecked(ctx context.Context, p punch.Punch, expectedUpdatedAt time.Time) (punch.Punch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE punches
		SET check_in = $1,
			check_out = $2,
			source_status = $3,
			is_virtual = $4,
			updated_at = NOW()
		WHERE id = $5
		  AND company_id = $6
		  AND updated_at = $7
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		p.CheckIn,
		p.CheckOut,
		p.SourceStatus,
		p.IsVirtual,
		p.ID,
		p.CompanyID,
		expectedUpdatedAt,
	).Scan(&p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			exists, checkErr := r.exists(ctx, p.ID, p.CompanyID)
			if checkErr != nil {
				return punch.Punch{}, checkErr
			}
			if exists {
				return punch.Punch{}, punch.ErrConcurrentModification
			}
			return punch.Punch{}, punch.ErrPunchNotFound
		}
		return punch.Punch{}, fmt.Errorf("failed to update punch: %w", err)
	}

	return p, nil
}

func (r *punchRepository) exists(ctx context.Context, id string, companyID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM punches WHERE id = $1 AND company_id = $2)`,
		id, companyID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check punch existence: %w", err)
	}
	return exists, nil
}
