package audit

import (
	"context"
	"fmt"

	"billing-service/internal/domain/audit"
	"billing-service/internal/pkg/metrics"
	"billing-service/internal/pkg/pagination"

	"go.uber.org/zap"
)

// Broadcaster fans committed usage logs out to live listeners.
type Broadcaster interface {
	BroadcastUsageLog(log *audit.UsageLog)
}

// Writer turns domain events into usage log rows. Record runs inside the
// caller's transaction; Publish is called once that transaction commits.
type Writer struct {
	repo        audit.Repository
	broadcaster Broadcaster
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewWriter(repo audit.Repository, m *metrics.Metrics, logger *zap.Logger) *Writer {
	return &Writer{
		repo:    repo,
		metrics: m,
		logger:  logger,
	}
}

// SetBroadcaster attaches the live feed. Without one Publish only counts.
func (w *Writer) SetBroadcaster(b Broadcaster) {
	w.broadcaster = b
}

// Record appends one usage log per event.
func (w *Writer) Record(ctx context.Context, events ...audit.Event) ([]audit.UsageLog, error) {
	logs := make([]audit.UsageLog, 0, len(events))
	for _, e := range events {
		l := e.UsageLog()
		if err := w.repo.Create(ctx, l); err != nil {
			return nil, fmt.Errorf("failed to write usage log: %w", err)
		}
		logs = append(logs, *l)

		if e.Feature == audit.FeatureStatusChange {
			w.metrics.RecordTransition(e.From, e.To)
		}
	}
	return logs, nil
}

// Publish announces committed logs.
func (w *Writer) Publish(logs []audit.UsageLog) {
	for i := range logs {
		w.metrics.RecordUsageLog(string(logs[i].Feature))
		if w.broadcaster != nil {
			w.broadcaster.BroadcastUsageLog(&logs[i])
		}
	}
	if len(logs) > 0 {
		w.logger.Debug("usage logs published", zap.Int("count", len(logs)))
	}
}

// List returns usage logs, newest first.
func (w *Writer) List(ctx context.Context, filters *audit.ListFilters) (*audit.ListResponse, error) {
	filters.Page, filters.PageSize = pagination.Normalize(filters.Page, filters.PageSize)

	logs, total, err := w.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage logs: %w", err)
	}

	return &audit.ListResponse{
		Logs:       logs,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: pagination.TotalPages(total, filters.PageSize),
	}, nil
}
