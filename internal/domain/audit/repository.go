// internal/domain/audit/repository.go
package audit

import "context"

type Repository interface {
	Create(ctx context.Context, l *UsageLog) error
	// List orders newest first.
	List(ctx context.Context, filters *ListFilters) ([]UsageLog, int64, error)
}
