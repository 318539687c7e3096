package employee

import "context"

// DirectoryRepository exposes the read-only slice of the employee directory
// this service needs. Results are ordered by insertion sequence ascending so
// aggregation output is stable across runs.
type DirectoryRepository interface {
	ListActiveByCompany(ctx context.Context, companyID string, filter Filter) ([]Employee, error)
}
