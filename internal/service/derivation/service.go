package derivation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/policy"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/sync/errgroup"
)

type Service interface {
	// DeriveMonth classifies every day of a month for one employee. The
	// employee defaults to the caller's own employee_id claim.
	DeriveMonth(ctx context.Context, req punch.MonthRequest) (punch.MonthStatusesResponse, error)
}

type ServiceImpl struct {
	settingsRepo policy.SettingsRepository
	holidayRepo  policy.HolidayRepository
	punchRepo    punch.PunchRepository
	leaveRepo    punch.LeaveRepository
	deriver      *Deriver
	now          func() time.Time
}

func NewService(
	settingsRepo policy.SettingsRepository,
	holidayRepo policy.HolidayRepository,
	punchRepo punch.PunchRepository,
	leaveRepo punch.LeaveRepository,
) *ServiceImpl {
	return &ServiceImpl{
		settingsRepo: settingsRepo,
		holidayRepo:  holidayRepo,
		punchRepo:    punchRepo,
		leaveRepo:    leaveRepo,
		deriver:      NewDeriver(),
		now:          time.Now,
	}
}

// WithClock overrides the snapshot clock, used by tests.
func (s *ServiceImpl) WithClock(now func() time.Time) *ServiceImpl {
	s.now = now
	return s
}

// Deriver exposes the pure classifier for services composing on top.
func (s *ServiceImpl) Deriver() *Deriver {
	return s.deriver
}

// LoadSnapshot batch-reads one month of punches, leaves and holidays in a
// single pass (one query per table). The snapshot is a single point-in-time
// read: corrections committed while it is in use may or may not be reflected.
func (s *ServiceImpl) LoadSnapshot(ctx context.Context, companyID string, month int, year int) (Snapshot, error) {
	pol, err := s.settingsRepo.GetTimePolicy(ctx, companyID)
	if err != nil {
		if errors.Is(err, policy.ErrPolicyNotFound) {
			return Snapshot{}, policy.ErrPolicyNotFound
		}
		return Snapshot{}, fmt.Errorf("failed to get time policy: %w", err)
	}

	var (
		holidays []policy.Holiday
		punches  []punch.Punch
		leaves   []punch.LeaveInterval
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		holidays, err = s.holidayRepo.ListByMonth(gCtx, companyID, month, year)
		return err
	})
	g.Go(func() error {
		var err error
		punches, err = s.punchRepo.ListByMonth(gCtx, companyID, month, year)
		return err
	})
	g.Go(func() error {
		var err error
		leaves, err = s.leaveRepo.ListApprovedByMonth(gCtx, companyID, month, year)
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("load month snapshot: %w", errors.Join(punch.ErrDataUnavailable, err))
	}

	snap := Snapshot{
		Calendar: policy.NewCalendar(pol, holidays),
		Punches:  make(map[string]map[string]*punch.Punch),
		Leaves:   make(map[string][]punch.LeaveInterval),
		Now:      s.now(),
	}
	for i := range punches {
		p := &punches[i]
		day := p.Date.Format("2006-01-02")
		if snap.Punches[p.EmployeeID] == nil {
			snap.Punches[p.EmployeeID] = make(map[string]*punch.Punch)
		}
		snap.Punches[p.EmployeeID][day] = p
	}
	for _, l := range leaves {
		snap.Leaves[l.EmployeeID] = append(snap.Leaves[l.EmployeeID], l)
	}

	return snap, nil
}

// DeriveMonth implements Service.
func (s *ServiceImpl) DeriveMonth(ctx context.Context, req punch.MonthRequest) (punch.MonthStatusesResponse, error) {
	if err := req.Validate(); err != nil {
		return punch.MonthStatusesResponse{}, err
	}

	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return punch.MonthStatusesResponse{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return punch.MonthStatusesResponse{}, fmt.Errorf("company_id claim is missing or invalid")
	}

	employeeID := ""
	if req.EmployeeID != nil && *req.EmployeeID != "" {
		employeeID = *req.EmployeeID
	} else if claimed, ok := claims["employee_id"].(string); ok {
		employeeID = claimed
	}
	if employeeID == "" {
		return punch.MonthStatusesResponse{}, fmt.Errorf("employee_id is missing from request and claims")
	}

	snap, err := s.LoadSnapshot(ctx, companyID, req.Month, req.Year)
	if err != nil {
		return punch.MonthStatusesResponse{}, err
	}

	days := s.deriver.DeriveMonth(snap, employeeID, req.Month, req.Year)

	summary := make(map[punch.DayStatus]int)
	for _, status := range days {
		summary[status]++
	}

	return punch.MonthStatusesResponse{
		EmployeeID: employeeID,
		Month:      req.Month,
		Year:       req.Year,
		Days:       days,
		Summary:    summary,
	}, nil
}
