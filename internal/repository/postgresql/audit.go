package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
)

type auditLogRepository struct {
	db *database.DB
}

func NewAuditLogRepository(db *database.DB) audit.LogRepository {
	return &auditLogRepository{db: db}
}

// Append implements audit.LogRepository. Callers run this inside the
// correction transaction so entries commit with the punch write.
func (r *auditLogRepository) Append(ctx context.Context, entries []audit.CorrectionLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO correction_log (
			id, company_id, employee_id, date, field,
			old_value, new_value, reason, modified_by, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	for _, e := range entries {
		_, err := q.Exec(ctx, query,
			e.ID,
			e.CompanyID,
			e.EmployeeID,
			e.Date,
			e.Field,
			e.OldValue,
			e.NewValue,
			e.Reason,
			e.ModifiedBy,
			e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to append correction log entry: %w", err)
		}
	}

	return nil
}

// List implements audit.LogRepository.
func (r *auditLogRepository) List(ctx context.Context, companyID string, filter audit.LogFilter) ([]audit.CorrectionLogEntry, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := " WHERE company_id = $1"
	args := []interface{}{companyID}

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		where += fmt.Sprintf(" AND employee_id = $%d", len(args)+1)
		args = append(args, *filter.EmployeeID)
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		where += fmt.Sprintf(" AND date >= $%d", len(args)+1)
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		where += fmt.Sprintf(" AND date <= $%d", len(args)+1)
		args = append(args, *filter.EndDate)
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM correction_log" + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count correction log: %w", err)
	}

	query := `
		SELECT id, company_id, employee_id, date, field,
			   old_value, new_value, reason, modified_by, created_at
		FROM correction_log` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list correction log: %w", err)
	}
	defer rows.Close()

	var entries []audit.CorrectionLogEntry
	for rows.Next() {
		var e audit.CorrectionLogEntry
		err := rows.Scan(
			&e.ID, &e.CompanyID, &e.EmployeeID, &e.Date, &e.Field,
			&e.OldValue, &e.NewValue, &e.Reason, &e.ModifiedBy, &e.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan correction log entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate correction log: %w", err)
	}

	return entries, total, nil
}
