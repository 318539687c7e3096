package policy

import (
	"context"
)

// SettingsRepository reads company time policies. Settings are owned by the
// company-settings collaborator; this service never writes them.
type SettingsRepository interface {
	GetTimePolicy(ctx context.Context, companyID string) (TimePolicy, error)
}

// HolidayRepository reads registered holidays for one company and month.
type HolidayRepository interface {
	ListByMonth(ctx context.Context, companyID string, month int, year int) ([]Holiday, error)
}
