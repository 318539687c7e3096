package correction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/policy"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/service/derivation"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
)

type Service interface {
	// ApplyCorrection is the only mutation path into the punch store after
	// initial capture. It materializes a row for virtual days, serializes
	// concurrent writes per employee-day via an optimistic version check,
	// and appends one audit entry per changed field in the same transaction.
	ApplyCorrection(ctx context.Context, req punch.CorrectionRequest) (punch.PunchResponse, error)

	ListAuditLog(ctx context.Context, filter audit.LogFilter) (audit.ListLogResponse, error)
}

// Transactor runs fn inside a storage transaction carried on the context.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type ServiceImpl struct {
	tx           Transactor
	punchRepo    punch.PunchRepository
	auditRepo    audit.LogRepository
	settingsRepo policy.SettingsRepository
	holidayRepo  policy.HolidayRepository
	leaveRepo    punch.LeaveRepository
	deriver      *derivation.Deriver
	now          func() time.Time
}

func NewService(
	tx Transactor,
	punchRepo punch.PunchRepository,
	auditRepo audit.LogRepository,
	settingsRepo policy.SettingsRepository,
	holidayRepo policy.HolidayRepository,
	leaveRepo punch.LeaveRepository,
) *ServiceImpl {
	return &ServiceImpl{
		tx:           tx,
		punchRepo:    punchRepo,
		auditRepo:    auditRepo,
		settingsRepo: settingsRepo,
		holidayRepo:  holidayRepo,
		leaveRepo:    leaveRepo,
		deriver:      derivation.NewDeriver(),
		now:          time.Now,
	}
}

// WithClock overrides the service clock, used by tests.
func (s *ServiceImpl) WithClock(now func() time.Time) *ServiceImpl {
	s.now = now
	return s
}

func claimsFromContext(ctx context.Context) (companyID string, userID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}
	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", "", fmt.Errorf("company_id claim is missing or invalid")
	}
	userID, ok = claims["user_id"].(string)
	if !ok || userID == "" {
		return "", "", fmt.Errorf("user_id claim is missing or invalid")
	}
	return companyID, userID, nil
}

// ApplyCorrection implements Service.
func (s *ServiceImpl) ApplyCorrection(ctx context.Context, req punch.CorrectionRequest) (punch.PunchResponse, error) {
	if err := req.Validate(); err != nil {
		return punch.PunchResponse{}, err
	}

	companyID, userID, err := claimsFromContext(ctx)
	if err != nil {
		return punch.PunchResponse{}, err
	}
	actor := req.Actor
	if actor == "" {
		actor = userID
	}

	if strings.TrimSpace(req.Reason) == "" {
		return punch.PunchResponse{}, punch.ErrMissingReason
	}

	newStatus := punch.DayStatus(strings.ToUpper(strings.TrimSpace(req.NewStatus)))
	if !punch.IsManualStatus(newStatus) {
		return punch.PunchResponse{}, punch.ErrInvalidStatus
	}

	pol, err := s.settingsRepo.GetTimePolicy(ctx, companyID)
	if err != nil {
		if errors.Is(err, policy.ErrPolicyNotFound) {
			return punch.PunchResponse{}, policy.ErrPolicyNotFound
		}
		return punch.PunchResponse{}, fmt.Errorf("failed to get time policy: %w", err)
	}

	date, err := pol.ParseDate(req.Date)
	if err != nil {
		return punch.PunchResponse{}, fmt.Errorf("failed to parse correction date: %w", err)
	}

	now := s.now()

	if pol.IsBeforeCompanyCreation(date) {
		return punch.PunchResponse{}, punch.ErrNotCorrectable
	}
	// Days whose absence window has not closed yet cannot be corrected: all of
	// tomorrow onwards, and today before the threshold.
	if pol.StartOfDay(date).After(now) {
		return punch.PunchResponse{}, punch.ErrTooEarly
	}
	if pol.SameDay(date, now) && now.Before(pol.AbsenceThreshold(date)) {
		return punch.PunchResponse{}, punch.ErrTooEarly
	}

	existing, err := s.punchRepo.GetByEmployeeAndDate(ctx, req.EmployeeID, date, companyID)
	if err != nil {
		return punch.PunchResponse{}, fmt.Errorf("failed to get punch: %w", err)
	}

	oldStatus, err := s.currentStatus(ctx, pol, companyID, req.EmployeeID, date, existing, now)
	if err != nil {
		return punch.PunchResponse{}, err
	}

	checkIn, checkOut, err := parseTimes(req)
	if err != nil {
		return punch.PunchResponse{}, err
	}

	var result punch.Punch
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		entries := []audit.CorrectionLogEntry{
			s.entry(companyID, req.EmployeeID, date, audit.FieldStatus,
				strPtr(string(oldStatus)), strPtr(string(newStatus)), req.Reason, actor, now),
		}

		if existing == nil {
			// Virtual day: materialize a real row instead of editing nothing.
			p := punch.Punch{
				ID:           uuid.NewString(),
				EmployeeID:   req.EmployeeID,
				CompanyID:    companyID,
				Date:         pol.StartOfDay(date),
				CheckIn:      checkIn,
				CheckOut:     checkOut,
				SourceStatus: newStatus,
				IsVirtual:    false,
			}
			created, err := s.punchRepo.Create(txCtx, p)
			if err != nil {
				return fmt.Errorf("failed to materialize punch: %w", err)
			}
			if checkIn != nil {
				entries = append(entries, s.entry(companyID, req.EmployeeID, date, audit.FieldCheckIn,
					nil, punch.TimePtrToString(checkIn), req.Reason, actor, now))
			}
			if checkOut != nil {
				entries = append(entries, s.entry(companyID, req.EmployeeID, date, audit.FieldCheckOut,
					nil, punch.TimePtrToString(checkOut), req.Reason, actor, now))
			}
			result = created
		} else {
			updated := *existing
			updated.SourceStatus = newStatus
			if checkIn != nil {
				if !timesEqual(existing.CheckIn, checkIn) {
					entries = append(entries, s.entry(companyID, req.EmployeeID, date, audit.FieldCheckIn,
						punch.TimePtrToString(existing.CheckIn), punch.TimePtrToString(checkIn), req.Reason, actor, now))
				}
				updated.CheckIn = checkIn
			}
			if checkOut != nil {
				if !timesEqual(existing.CheckOut, checkOut) {
					entries = append(entries, s.entry(companyID, req.EmployeeID, date, audit.FieldCheckOut,
						punch.TimePtrToString(existing.CheckOut), punch.TimePtrToString(checkOut), req.Reason, actor, now))
				}
				updated.CheckOut = checkOut
			}
			saved, err := s.punchRepo.UpdateChecked(txCtx, updated, existing.UpdatedAt)
			if err != nil {
				if errors.Is(err, punch.ErrConcurrentModification) {
					return punch.ErrConcurrentModification
				}
				return fmt.Errorf("failed to update punch: %w", err)
			}
			result = saved
		}

		if err := s.auditRepo.Append(txCtx, entries); err != nil {
			return fmt.Errorf("failed to append audit entries: %w", err)
		}
		return nil
	})
	if err != nil {
		return punch.PunchResponse{}, err
	}

	return punch.PunchResponse{
		ID:           result.ID,
		EmployeeID:   result.EmployeeID,
		Date:         result.Date.Format("2006-01-02"),
		CheckIn:      punch.TimePtrToString(result.CheckIn),
		CheckOut:     punch.TimePtrToString(result.CheckOut),
		SourceStatus: string(result.SourceStatus),
		Status:       string(newStatus),
		IsVirtual:    result.IsVirtual,
		CreatedAt:    result.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:    result.UpdatedAt.Format("2006-01-02 15:04:05"),
	}, nil
}

// currentStatus derives what the day reads as right now, so the audit entry
// records the true pre-correction value even for virtual days.
func (s *ServiceImpl) currentStatus(ctx context.Context, pol policy.TimePolicy, companyID string, employeeID string, date time.Time, existing *punch.Punch, now time.Time) (punch.DayStatus, error) {
	holidays, err := s.holidayRepo.ListByMonth(ctx, companyID, int(date.Month()), date.Year())
	if err != nil {
		return "", fmt.Errorf("failed to list holidays: %w", err)
	}
	leaves, err := s.leaveRepo.ListApprovedByMonth(ctx, companyID, int(date.Month()), date.Year())
	if err != nil {
		return "", fmt.Errorf("failed to list leaves: %w", err)
	}

	snap := derivation.Snapshot{
		Calendar: policy.NewCalendar(pol, holidays),
		Punches:  make(map[string]map[string]*punch.Punch),
		Leaves:   make(map[string][]punch.LeaveInterval),
		Now:      now,
	}
	if existing != nil {
		snap.Punches[employeeID] = map[string]*punch.Punch{
			date.Format("2006-01-02"): existing,
		}
	}
	for _, l := range leaves {
		if l.EmployeeID == employeeID {
			snap.Leaves[employeeID] = append(snap.Leaves[employeeID], l)
		}
	}

	return s.deriver.Derive(snap, employeeID, date), nil
}

func (s *ServiceImpl) entry(companyID string, employeeID string, date time.Time, field string, oldValue, newValue *string, reason string, actor string, now time.Time) audit.CorrectionLogEntry {
	return audit.CorrectionLogEntry{
		ID:         uuid.NewString(),
		CompanyID:  companyID,
		EmployeeID: employeeID,
		Date:       date,
		Field:      field,
		OldValue:   oldValue,
		NewValue:   newValue,
		Reason:     reason,
		ModifiedBy: actor,
		CreatedAt:  now,
	}
}

func parseTimes(req punch.CorrectionRequest) (*time.Time, *time.Time, error) {
	var checkIn, checkOut *time.Time
	if req.CheckIn != nil && *req.CheckIn != "" {
		t, err := time.Parse(time.RFC3339, *req.CheckIn)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse check_in: %w", err)
		}
		checkIn = &t
	}
	if req.CheckOut != nil && *req.CheckOut != "" {
		t, err := time.Parse(time.RFC3339, *req.CheckOut)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse check_out: %w", err)
		}
		checkOut = &t
	}
	return checkIn, checkOut, nil
}

func strPtr(s string) *string {
	return &s
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// ListAuditLog implements Service.
func (s *ServiceImpl) ListAuditLog(ctx context.Context, filter audit.LogFilter) (audit.ListLogResponse, error) {
	if err := filter.Validate(); err != nil {
		return audit.ListLogResponse{}, err
	}

	companyID, _, err := claimsFromContext(ctx)
	if err != nil {
		return audit.ListLogResponse{}, err
	}

	entries, total, err := s.auditRepo.List(ctx, companyID, filter)
	if err != nil {
		return audit.ListLogResponse{}, fmt.Errorf("failed to list audit log: %w", err)
	}

	responses := make([]audit.LogEntryResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, audit.LogEntryResponse{
			ID:         e.ID,
			EmployeeID: e.EmployeeID,
			Date:       e.Date.Format("2006-01-02"),
			Field:      e.Field,
			OldValue:   e.OldValue,
			NewValue:   e.NewValue,
			Reason:     e.Reason,
			ModifiedBy: e.ModifiedBy,
			CreatedAt:  e.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return audit.ListLogResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		Entries:    responses,
	}, nil
}
