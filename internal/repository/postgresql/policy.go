package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/policy"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type settingsRepository struct {
	db *database.DB
}

func NewSettingsRepository(db *database.DB) policy.SettingsRepository {
	return &settingsRepository{db: db}
}

// GetTimePolicy implements policy.SettingsRepository.
func (r *settingsRepository) GetTimePolicy(ctx context.Context, companyID string) (policy.TimePolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT s.company_id, s.official_start_hour, s.late_tolerance_minutes,
			   s.work_days, s.timezone, c.created_at
		FROM company_settings s
		JOIN companies c ON c.id = s.company_id
		WHERE s.company_id = $1
	`

	var (
		p        policy.TimePolicy
		workDays []int32
		timezone string
	)
	err := q.QueryRow(ctx, query, companyID).Scan(
		&p.CompanyID, &p.OfficialStartHour, &p.LateToleranceMinutes,
		&workDays, &timezone, &p.CompanyCreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return policy.TimePolicy{}, policy.ErrPolicyNotFound
		}
		return policy.TimePolicy{}, fmt.Errorf("failed to get time policy: %w", err)
	}

	p.WorkDays = make([]int, 0, len(workDays))
	for _, d := range workDays {
		p.WorkDays = append(p.WorkDays, int(d))
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	p.Location = loc

	return p, nil
}

type holidayRepository struct {
	db *database.DB
}

func NewHolidayRepository(db *database.DB) policy.HolidayRepository {
	return &holidayRepository{db: db}
}

// ListByMonth implements policy.HolidayRepository.
func (r *holidayRepository) ListByMonth(ctx context.Context, companyID string, month int, year int) ([]policy.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	start, end := monthRange(month, year)

	query := `
		SELECT company_id, date, name
		FROM holidays
		WHERE company_id = $1
		  AND date >= $2
		  AND date < $3
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, companyID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []policy.Holiday
	for rows.Next() {
		var h policy.Holiday
		if err := rows.Scan(&h.CompanyID, &h.Date, &h.Name); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holidays: %w", err)
	}

	return holidays, nil
}
