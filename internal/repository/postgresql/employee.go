package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
)

type employeeRepository struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.DirectoryRepository {
	return &employeeRepository{db: db}
}

// ListActiveByCompany implements employee.DirectoryRepository.
func (r *employeeRepository) ListActiveByCompany(ctx context.Context, companyID string, filter employee.Filter) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT e.id, e.company_id, e.department_id, d.name, e.full_name,
			   e.position, e.seq, e.hire_date
		FROM employees e
		JOIN departments d ON d.id = e.department_id
		WHERE e.company_id = $1
		  AND e.employment_status = 'active'
		  AND e.deleted_at IS NULL
	`
	args := []interface{}{companyID}

	if filter.DepartmentID != nil && *filter.DepartmentID != "" {
		query += fmt.Sprintf(" AND e.department_id = $%d", len(args)+1)
		args = append(args, *filter.DepartmentID)
	}

	query += " ORDER BY e.seq ASC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		var e employee.Employee
		err := rows.Scan(
			&e.ID, &e.CompanyID, &e.DepartmentID, &e.DepartmentName, &e.FullName,
			&e.Position, &e.Seq, &e.HireDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}

	return employees, nil
}
