package audit

import "context"

// LogRepository is the append-only ledger boundary. Append is called inside
// the correction transaction so punch writes and their audit rows commit
// together; there is no update or delete.
type LogRepository interface {
	Append(ctx context.Context, entries []CorrectionLogEntry) error
	List(ctx context.Context, companyID string, filter LogFilter) ([]CorrectionLogEntry, int64, error)
}
