package derivation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/policy"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSettingsRepo struct {
	policy policy.TimePolicy
	err    error
}

func (f *fakeSettingsRepo) GetTimePolicy(ctx context.Context, companyID string) (policy.TimePolicy, error) {
	if f.err != nil {
		return policy.TimePolicy{}, f.err
	}
	return f.policy, nil
}

type fakeHolidayRepo struct {
	holidays []policy.Holiday
	err      error
}

func (f *fakeHolidayRepo) ListByMonth(ctx context.Context, companyID string, month int, year int) ([]policy.Holiday, error) {
	return f.holidays, f.err
}

type fakePunchRepo struct {
	punches []punch.Punch
	listErr error
}

func (f *fakePunchRepo) ListByMonth(ctx context.Context, companyID string, month int, year int) ([]punch.Punch, error) {
	return f.punches, f.listErr
}

func (f *fakePunchRepo) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (*punch.Punch, error) {
	for i := range f.punches {
		if f.punches[i].EmployeeID == employeeID && f.punches[i].Date.Format("2006-01-02") == date.Format("2006-01-02") {
			return &f.punches[i], nil
		}
	}
	return nil, nil
}

func (f *fakePunchRepo) Create(ctx context.Context, p punch.Punch) (punch.Punch, error) {
	f.punches = append(f.punches, p)
	return p, nil
}

func (f *fakePunchRepo) UpdateChecked(ctx context.Context, p punch.Punch, expectedUpdatedAt time.Time) (punch.Punch, error) {
	return p, nil
}

type fakeLeaveRepo struct {
	leaves []punch.LeaveInterval
	err    error
}

func (f *fakeLeaveRepo) ListApprovedByMonth(ctx context.Context, companyID string, month int, year int) ([]punch.LeaveInterval, error) {
	return f.leaves, f.err
}

func authedContext(t *testing.T, claims map[string]interface{}) context.Context {
	t.Helper()
	ta := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := ta.Encode(claims)
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

func testService(punchRepo *fakePunchRepo, leaveRepo *fakeLeaveRepo, now time.Time) *ServiceImpl {
	settings := &fakeSettingsRepo{policy: policy.TimePolicy{
		CompanyID:            "company-1",
		OfficialStartHour:    8,
		LateToleranceMinutes: 0,
		WorkDays:             []int{1, 2, 3, 4, 5},
		CompanyCreatedAt:     time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		Location:             time.UTC,
	}}
	svc := NewService(settings, &fakeHolidayRepo{}, punchRepo, leaveRepo)
	return svc.WithClock(func() time.Time { return now })
}

func TestDerivationService_DeriveMonth_Success(t *testing.T) {
	checkIn := time.Date(2025, 6, 16, 7, 45, 0, 0, time.UTC)
	punchRepo := &fakePunchRepo{punches: []punch.Punch{
		{ID: "p1", EmployeeID: "emp-1", CompanyID: "company-1", Date: time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), CheckIn: &checkIn},
	}}
	svc := testService(punchRepo, &fakeLeaveRepo{}, time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC))

	ctx := authedContext(t, map[string]interface{}{
		"user_id": "user-1", "employee_id": "emp-1", "company_id": "company-1", "role": "admin",
	})

	result, err := svc.DeriveMonth(ctx, punch.MonthRequest{Month: 6, Year: 2025})
	require.NoError(t, err)

	assert.Equal(t, "emp-1", result.EmployeeID)
	assert.Len(t, result.Days, 30)
	assert.Equal(t, punch.StatusPresent, result.Days["2025-06-16"])
	assert.Equal(t, 1, result.Summary[punch.StatusPresent])
	// 9 weekend days in June 2025, weekends stay OFF_DAY even past the clock.
	assert.Equal(t, 9, result.Summary[punch.StatusOffDay])
}

func TestDerivationService_DeriveMonth_EmployeeFromRequestWinsOverClaim(t *testing.T) {
	svc := testService(&fakePunchRepo{}, &fakeLeaveRepo{}, time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC))

	ctx := authedContext(t, map[string]interface{}{
		"user_id": "user-1", "employee_id": "emp-1", "company_id": "company-1", "role": "admin",
	})

	other := "emp-2"
	result, err := svc.DeriveMonth(ctx, punch.MonthRequest{EmployeeID: &other, Month: 6, Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, "emp-2", result.EmployeeID)
}

func TestDerivationService_DeriveMonth_InvalidMonth(t *testing.T) {
	svc := testService(&fakePunchRepo{}, &fakeLeaveRepo{}, time.Now())

	ctx := authedContext(t, map[string]interface{}{
		"user_id": "user-1", "employee_id": "emp-1", "company_id": "company-1", "role": "admin",
	})

	_, err := svc.DeriveMonth(ctx, punch.MonthRequest{Month: 13, Year: 2025})
	require.Error(t, err)

	var validationErrs validator.ValidationErrors
	assert.ErrorAs(t, err, &validationErrs)
}

func TestDerivationService_LoadSnapshot_ReadFailureIsUnavailable(t *testing.T) {
	punchRepo := &fakePunchRepo{listErr: errors.New("connection refused")}
	svc := testService(punchRepo, &fakeLeaveRepo{}, time.Now())

	_, err := svc.LoadSnapshot(context.Background(), "company-1", 6, 2025)
	require.Error(t, err)
	assert.ErrorIs(t, err, punch.ErrDataUnavailable)
}

func TestDerivationService_LoadSnapshot_PolicyNotFound(t *testing.T) {
	svc := NewService(&fakeSettingsRepo{err: policy.ErrPolicyNotFound}, &fakeHolidayRepo{}, &fakePunchRepo{}, &fakeLeaveRepo{})

	_, err := svc.LoadSnapshot(context.Background(), "company-1", 6, 2025)
	assert.ErrorIs(t, err, policy.ErrPolicyNotFound)
}
