package correction

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/policy"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeSettingsRepo struct{ policy policy.TimePolicy }

func (f *fakeSettingsRepo) GetTimePolicy(ctx context.Context, companyID string) (policy.TimePolicy, error) {
	return f.policy, nil
}

type fakeHolidayRepo struct{ holidays []policy.Holiday }

func (f *fakeHolidayRepo) ListByMonth(ctx context.Context, companyID string, month int, year int) ([]policy.Holiday, error) {
	return f.holidays, nil
}

type fakeLeaveRepo struct{ leaves []punch.LeaveInterval }

func (f *fakeLeaveRepo) ListApprovedByMonth(ctx context.Context, companyID string, month int, year int) ([]punch.LeaveInterval, error) {
	return f.leaves, nil
}

// fakePunchStore keys rows by employee-date and enforces the updated_at
// check the way the real store does.
type fakePunchStore struct {
	rows      map[string]*punch.Punch
	conflicts bool
	creates   int
	updates   int
}

func newFakePunchStore() *fakePunchStore {
	return &fakePunchStore{rows: make(map[string]*punch.Punch)}
}

func storeKey(employeeID string, date time.Time) string {
	return employeeID + "/" + date.Format("2006-01-02")
}

func (f *fakePunchStore) ListByMonth(ctx context.Context, companyID string, month int, year int) ([]punch.Punch, error) {
	var punches []punch.Punch
	for _, p := range f.rows {
		punches = append(punches, *p)
	}
	return punches, nil
}

func (f *fakePunchStore) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (*punch.Punch, error) {
	if p, ok := f.rows[storeKey(employeeID, date)]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (f *fakePunchStore) Create(ctx context.Context, p punch.Punch) (punch.Punch, error) {
	f.creates++
	p.CreatedAt = time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
	p.UpdatedAt = p.CreatedAt
	stored := p
	f.rows[storeKey(p.EmployeeID, p.Date)] = &stored
	return p, nil
}

func (f *fakePunchStore) UpdateChecked(ctx context.Context, p punch.Punch, expectedUpdatedAt time.Time) (punch.Punch, error) {
	existing, ok := f.rows[storeKey(p.EmployeeID, p.Date)]
	if !ok {
		return punch.Punch{}, punch.ErrPunchNotFound
	}
	if f.conflicts || !existing.UpdatedAt.Equal(expectedUpdatedAt) {
		return punch.Punch{}, punch.ErrConcurrentModification
	}
	f.updates++
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = existing.UpdatedAt.Add(time.Second)
	stored := p
	f.rows[storeKey(p.EmployeeID, p.Date)] = &stored
	return p, nil
}

type fakeAuditLog struct {
	entries []audit.CorrectionLogEntry
}

func (f *fakeAuditLog) Append(ctx context.Context, entries []audit.CorrectionLogEntry) error {
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeAuditLog) List(ctx context.Context, companyID string, filter audit.LogFilter) ([]audit.CorrectionLogEntry, int64, error) {
	return f.entries, int64(len(f.entries)), nil
}

func adminContext(t *testing.T) context.Context {
	t.Helper()
	ta := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := ta.Encode(map[string]interface{}{
		"user_id": "admin-1", "employee_id": "emp-admin", "company_id": "company-1", "role": "admin",
	})
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

func testCorrection(t *testing.T) (*ServiceImpl, *fakePunchStore, *fakeAuditLog) {
	t.Helper()

	pol := policy.TimePolicy{
		CompanyID:            "company-1",
		OfficialStartHour:    8,
		LateToleranceMinutes: 0,
		WorkDays:             []int{1, 2, 3, 4, 5},
		CompanyCreatedAt:     time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		Location:             time.UTC,
	}

	store := newFakePunchStore()
	log := &fakeAuditLog{}

	svc := NewService(passthroughTx{}, store, log, &fakeSettingsRepo{policy: pol}, &fakeHolidayRepo{}, &fakeLeaveRepo{}).
		WithClock(func() time.Time { return time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC) })

	return svc, store, log
}

func validRequest() punch.CorrectionRequest {
	return punch.CorrectionRequest{
		EmployeeID: "emp-1",
		Date:       "2025-06-18",
		NewStatus:  "ABSENT_PAID",
		Reason:     "Approved sick day, doctor's note on file",
	}
}

func TestCorrectionService_ApplyCorrection_MissingReason(t *testing.T) {
	svc, _, _ := testCorrection(t)

	req := validRequest()
	req.Reason = "   "

	_, err := svc.ApplyCorrection(adminContext(t), req)
	assert.ErrorIs(t, err, punch.ErrMissingReason)
}

func TestCorrectionService_ApplyCorrection_InvalidStatus(t *testing.T) {
	svc, _, _ := testCorrection(t)

	for _, status := range []string{"HOLIDAY", "OFF_DAY", "FUTURE", "BEFORE_COMPANY", "NONSENSE"} {
		req := validRequest()
		req.NewStatus = status

		_, err := svc.ApplyCorrection(adminContext(t), req)
		assert.ErrorIs(t, err, punch.ErrInvalidStatus, "status %s", status)
	}
}

func TestCorrectionService_ApplyCorrection_TooEarlyToday(t *testing.T) {
	svc, _, _ := testCorrection(t)
	svc.WithClock(func() time.Time { return time.Date(2025, 6, 20, 7, 30, 0, 0, time.UTC) })

	req := validRequest()
	req.Date = "2025-06-20"

	_, err := svc.ApplyCorrection(adminContext(t), req)
	assert.ErrorIs(t, err, punch.ErrTooEarly)
}

func TestCorrectionService_ApplyCorrection_TodayAfterThreshold(t *testing.T) {
	svc, store, _ := testCorrection(t)

	req := validRequest()
	req.Date = "2025-06-20"

	_, err := svc.ApplyCorrection(adminContext(t), req)
	require.NoError(t, err)
	assert.Equal(t, 1, store.creates)
}

func TestCorrectionService_ApplyCorrection_FutureDate(t *testing.T) {
	svc, _, _ := testCorrection(t)

	req := validRequest()
	req.Date = "2025-06-23"

	_, err := svc.ApplyCorrection(adminContext(t), req)
	assert.ErrorIs(t, err, punch.ErrTooEarly)
}

func TestCorrectionService_ApplyCorrection_BeforeCompany(t *testing.T) {
	svc, _, _ := testCorrection(t)

	req := validRequest()
	req.Date = "2023-11-15"

	_, err := svc.ApplyCorrection(adminContext(t), req)
	assert.ErrorIs(t, err, punch.ErrNotCorrectable)
}

// Correcting a day with no stored row materializes exactly one punch and one
// audit entry carrying the derived pre-correction status.
func TestCorrectionService_ApplyCorrection_MaterializesVirtualDay(t *testing.T) {
	svc, store, log := testCorrection(t)

	result, err := svc.ApplyCorrection(adminContext(t), validRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, store.creates)
	assert.Equal(t, 0, store.updates)
	assert.False(t, result.IsVirtual)
	assert.Equal(t, "ABSENT_PAID", result.Status)
	assert.NotEmpty(t, result.ID)

	require.Len(t, log.entries, 1)
	entry := log.entries[0]
	assert.Equal(t, audit.FieldStatus, entry.Field)
	require.NotNil(t, entry.OldValue)
	assert.Equal(t, "ABSENT_UNPAID", *entry.OldValue)
	require.NotNil(t, entry.NewValue)
	assert.Equal(t, "ABSENT_PAID", *entry.NewValue)
	assert.Equal(t, "admin-1", entry.ModifiedBy)
	assert.Equal(t, validRequest().Reason, entry.Reason)
}

// A second correction lands on the materialized row instead of creating
// another one, and the log keeps both changes.
func TestCorrectionService_ApplyCorrection_SecondCorrectionUpdates(t *testing.T) {
	svc, store, log := testCorrection(t)
	ctx := adminContext(t)

	_, err := svc.ApplyCorrection(ctx, validRequest())
	require.NoError(t, err)

	second := validRequest()
	second.NewStatus = "REMOTE"
	result, err := svc.ApplyCorrection(ctx, second)
	require.NoError(t, err)

	assert.Equal(t, 1, store.creates)
	assert.Equal(t, "REMOTE", result.Status)
	require.Len(t, log.entries, 2)
	assert.Equal(t, "ABSENT_PAID", *log.entries[1].OldValue)
	assert.Equal(t, "REMOTE", *log.entries[1].NewValue)
}

// Applying the identical correction twice converges: the derived status after
// each call is the corrected one, and each call appends its own log entry.
func TestCorrectionService_ApplyCorrection_Idempotent(t *testing.T) {
	svc, store, log := testCorrection(t)
	ctx := adminContext(t)

	first, err := svc.ApplyCorrection(ctx, validRequest())
	require.NoError(t, err)
	second, err := svc.ApplyCorrection(ctx, validRequest())
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, 1, store.creates)
	assert.Len(t, log.entries, 2)

	stored := store.rows[storeKey("emp-1", time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC))]
	require.NotNil(t, stored)
	assert.Equal(t, punch.StatusAbsentPaid, stored.SourceStatus)
}

func TestCorrectionService_ApplyCorrection_CheckInChangeIsLogged(t *testing.T) {
	svc, _, log := testCorrection(t)
	ctx := adminContext(t)

	req := validRequest()
	req.NewStatus = "LATE"
	checkIn := "2025-06-18T08:40:00Z"
	req.CheckIn = &checkIn

	_, err := svc.ApplyCorrection(ctx, req)
	require.NoError(t, err)

	require.Len(t, log.entries, 2)
	assert.Equal(t, audit.FieldStatus, log.entries[0].Field)
	assert.Equal(t, audit.FieldCheckIn, log.entries[1].Field)
	assert.Nil(t, log.entries[1].OldValue)
	require.NotNil(t, log.entries[1].NewValue)
	assert.Equal(t, "2025-06-18 08:40:00", *log.entries[1].NewValue)
}

// Resubmitting the stored check-in is not a change; only the status entry is
// appended.
func TestCorrectionService_ApplyCorrection_UnchangedCheckInNotLogged(t *testing.T) {
	svc, _, log := testCorrection(t)
	ctx := adminContext(t)

	checkIn := "2025-06-18T08:40:00Z"

	first := validRequest()
	first.NewStatus = "LATE"
	first.CheckIn = &checkIn
	_, err := svc.ApplyCorrection(ctx, first)
	require.NoError(t, err)
	require.Len(t, log.entries, 2)

	second := validRequest()
	second.NewStatus = "REMOTE"
	second.CheckIn = &checkIn
	_, err = svc.ApplyCorrection(ctx, second)
	require.NoError(t, err)

	require.Len(t, log.entries, 3)
	assert.Equal(t, audit.FieldStatus, log.entries[2].Field)
}

func TestCorrectionService_ApplyCorrection_ConcurrentModification(t *testing.T) {
	svc, store, _ := testCorrection(t)
	ctx := adminContext(t)

	_, err := svc.ApplyCorrection(ctx, validRequest())
	require.NoError(t, err)

	store.conflicts = true
	_, err = svc.ApplyCorrection(ctx, validRequest())
	assert.ErrorIs(t, err, punch.ErrConcurrentModification)
}

func TestCorrectionService_ListAuditLog(t *testing.T) {
	svc, _, _ := testCorrection(t)
	ctx := adminContext(t)

	_, err := svc.ApplyCorrection(ctx, validRequest())
	require.NoError(t, err)

	result, err := svc.ListAuditLog(ctx, audit.LogFilter{})
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.TotalCount)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 20, result.Limit)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "2025-06-18", result.Entries[0].Date)
}
