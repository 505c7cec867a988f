// internal/websocket/handler/usage_logs.go
package handler

import (
	"context"
	"fmt"

	"billing-service/internal/domain/audit"
	wstypes "billing-service/internal/domain/websocket"
	ws "billing-service/internal/websocket"
)

const defaultRecentLimit = 20

type UsageLogLister interface {
	List(ctx context.Context, filters *audit.ListFilters) (*audit.ListResponse, error)
}

// UsageLogHandler answers audit:recent so a freshly connected feed can
// backfill before live events arrive.
type UsageLogHandler struct {
	lister UsageLogLister
}

func NewUsageLogHandler(lister UsageLogLister) *UsageLogHandler {
	return &UsageLogHandler{lister: lister}
}

func (h *UsageLogHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{wstypes.EventTypeUsageLogRecent}
}

func (h *UsageLogHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	var req wstypes.RecentUsageLogsRequest
	if msg.Data != nil {
		if err := msg.DecodeData(&req); err != nil {
			return fmt.Errorf("invalid request: %w", err)
		}
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = defaultRecentLimit
	}

	res, err := h.lister.List(ctx, &audit.ListFilters{
		CustomerID: req.CustomerID,
		Page:       1,
		PageSize:   req.Limit,
	})
	if err != nil {
		return err
	}

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeUsageLogRecent, map[string]interface{}{
		"logs":  res.Logs,
		"total": res.Total,
	}))
	return nil
}
