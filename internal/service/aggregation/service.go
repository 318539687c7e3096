package aggregation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/aggregate"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/service/derivation"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/sync/errgroup"
)

type Service interface {
	// AggregateDaily lists every in-scope employee's status for one date.
	AggregateDaily(ctx context.Context, req aggregate.DailyRequest) (aggregate.DailyViewResponse, error)

	// AggregateDepartments buckets a month's statuses per department.
	AggregateDepartments(ctx context.Context, req aggregate.DepartmentRequest) (aggregate.DepartmentSummaryResponse, error)

	// MonthlyGrid produces the employee x day-of-month status matrix.
	MonthlyGrid(ctx context.Context, req aggregate.DepartmentRequest) (aggregate.MonthlyGrid, error)
}

// ServiceImpl computes all three projections from a single derivation pass
// over one month snapshot, so the views can never diverge. Per-employee
// derivation fans out over a bounded errgroup; the reduce step merges
// per-employee partial counts sequentially in insertion order, which keeps
// re-runs byte-for-byte reproducible without shared-accumulator locking.
type ServiceImpl struct {
	derivation   *derivation.ServiceImpl
	employeeRepo employee.DirectoryRepository
	workers      int
}

func NewService(derivationSvc *derivation.ServiceImpl, employeeRepo employee.DirectoryRepository, workers int) *ServiceImpl {
	if workers <= 0 {
		workers = 8
	}
	return &ServiceImpl{
		derivation:   derivationSvc,
		employeeRepo: employeeRepo,
		workers:      workers,
	}
}

func (s *ServiceImpl) companyID(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}
	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", fmt.Errorf("company_id claim is missing or invalid")
	}
	return companyID, nil
}

// monthPass derives the full month for every employee in scope. The returned
// slice is index-aligned with employees.
func (s *ServiceImpl) monthPass(ctx context.Context, snap derivation.Snapshot, employees []employee.Employee, month int, year int) ([]map[string]punch.DayStatus, error) {
	results := make([]map[string]punch.DayStatus, len(employees))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range employees {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = s.derivation.Deriver().DeriveMonth(snap, employees[i].ID, month, year)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// AggregateDaily implements Service.
func (s *ServiceImpl) AggregateDaily(ctx context.Context, req aggregate.DailyRequest) (aggregate.DailyViewResponse, error) {
	if err := req.Validate(); err != nil {
		return aggregate.DailyViewResponse{}, err
	}

	companyID, err := s.companyID(ctx)
	if err != nil {
		return aggregate.DailyViewResponse{}, err
	}

	// Locale-independent read of the month and year digits; the instant used
	// for derivation is re-parsed in the company locale below.
	monthDate, _ := time.Parse("2006-01-02", req.Date)

	employees, err := s.employeeRepo.ListActiveByCompany(ctx, companyID, employee.Filter{DepartmentID: req.DepartmentID})
	if err != nil {
		return aggregate.DailyViewResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}

	snap, err := s.derivation.LoadSnapshot(ctx, companyID, int(monthDate.Month()), monthDate.Year())
	if err != nil {
		return aggregate.DailyViewResponse{}, err
	}

	date, err := snap.Calendar.Policy.ParseDate(req.Date)
	if err != nil {
		return aggregate.DailyViewResponse{}, fmt.Errorf("failed to parse date: %w", err)
	}

	rows := make([]aggregate.DailyRow, 0, len(employees))
	for _, emp := range employees {
		status := s.derivation.Deriver().Derive(snap, emp.ID, date)

		row := aggregate.DailyRow{
			EmployeeID:     emp.ID,
			EmployeeName:   emp.FullName,
			DepartmentID:   emp.DepartmentID,
			DepartmentName: emp.DepartmentName,
			Status:         status,
		}
		if p := snap.PunchFor(emp.ID, date); p != nil {
			row.CheckIn = punch.TimePtrToString(p.CheckIn)
			row.CheckOut = punch.TimePtrToString(p.CheckOut)
		}
		rows = append(rows, row)
	}

	return aggregate.DailyViewResponse{Date: req.Date, Rows: rows}, nil
}

// AggregateDepartments implements Service.
func (s *ServiceImpl) AggregateDepartments(ctx context.Context, req aggregate.DepartmentRequest) (aggregate.DepartmentSummaryResponse, error) {
	if err := req.Validate(); err != nil {
		return aggregate.DepartmentSummaryResponse{}, err
	}

	companyID, err := s.companyID(ctx)
	if err != nil {
		return aggregate.DepartmentSummaryResponse{}, err
	}

	employees, err := s.employeeRepo.ListActiveByCompany(ctx, companyID, employee.Filter{DepartmentID: req.DepartmentID})
	if err != nil {
		return aggregate.DepartmentSummaryResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}

	snap, err := s.derivation.LoadSnapshot(ctx, companyID, req.Month, req.Year)
	if err != nil {
		return aggregate.DepartmentSummaryResponse{}, err
	}

	results, err := s.monthPass(ctx, snap, employees, req.Month, req.Year)
	if err != nil {
		return aggregate.DepartmentSummaryResponse{}, err
	}

	// Reduce in insertion order so department ordering is stable.
	var order []string
	counts := make(map[string]*aggregate.StatusCounts)
	names := make(map[string]string)
	for i, emp := range employees {
		if _, seen := counts[emp.DepartmentID]; !seen {
			order = append(order, emp.DepartmentID)
			counts[emp.DepartmentID] = &aggregate.StatusCounts{}
			names[emp.DepartmentID] = emp.DepartmentName
		}
		for _, status := range results[i] {
			if aggregate.Excluded(status) {
				continue
			}
			counts[emp.DepartmentID].Add(status)
		}
	}

	departments := make([]aggregate.DepartmentSummary, 0, len(order))
	for _, deptID := range order {
		c := *counts[deptID]
		departments = append(departments, aggregate.DepartmentSummary{
			DepartmentID:   deptID,
			DepartmentName: names[deptID],
			Counts:         c,
			Percentages:    percentages(c),
		})
	}

	return aggregate.DepartmentSummaryResponse{
		Month:       req.Month,
		Year:        req.Year,
		Departments: departments,
	}, nil
}

// MonthlyGrid implements Service.
func (s *ServiceImpl) MonthlyGrid(ctx context.Context, req aggregate.DepartmentRequest) (aggregate.MonthlyGrid, error) {
	if err := req.Validate(); err != nil {
		return aggregate.MonthlyGrid{}, err
	}

	companyID, err := s.companyID(ctx)
	if err != nil {
		return aggregate.MonthlyGrid{}, err
	}

	employees, err := s.employeeRepo.ListActiveByCompany(ctx, companyID, employee.Filter{DepartmentID: req.DepartmentID})
	if err != nil {
		return aggregate.MonthlyGrid{}, fmt.Errorf("failed to list employees: %w", err)
	}

	snap, err := s.derivation.LoadSnapshot(ctx, companyID, req.Month, req.Year)
	if err != nil {
		return aggregate.MonthlyGrid{}, err
	}

	results, err := s.monthPass(ctx, snap, employees, req.Month, req.Year)
	if err != nil {
		return aggregate.MonthlyGrid{}, err
	}

	daysInMonth := aggregate.DaysIn(req.Month, req.Year)
	rows := make([]aggregate.GridRow, 0, len(employees))
	for i, emp := range employees {
		statuses := make([]punch.DayStatus, daysInMonth)
		for day := 1; day <= daysInMonth; day++ {
			key := fmt.Sprintf("%04d-%02d-%02d", req.Year, req.Month, day)
			statuses[day-1] = results[i][key]
		}
		rows = append(rows, aggregate.GridRow{
			EmployeeID:   emp.ID,
			EmployeeName: emp.FullName,
			Statuses:     statuses,
		})
	}

	return aggregate.MonthlyGrid{
		Month:       req.Month,
		Year:        req.Year,
		DaysInMonth: daysInMonth,
		Employees:   rows,
	}, nil
}

// percentages rounds to two decimals through an integer scale so identical
// counts always reproduce identical output.
func percentages(c aggregate.StatusCounts) aggregate.StatusPercentages {
	total := c.Total()
	if total == 0 {
		return aggregate.StatusPercentages{}
	}
	pct := func(n int) float64 {
		return math.Round(float64(n)*10000/float64(total)) / 100
	}
	return aggregate.StatusPercentages{
		Present:      pct(c.Present),
		Late:         pct(c.Late),
		AbsentUnpaid: pct(c.AbsentUnpaid),
		AbsentPaid:   pct(c.AbsentPaid),
		Remote:       pct(c.Remote),
		OnLeave:      pct(c.OnLeave),
	}
}
