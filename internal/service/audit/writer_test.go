package audit

import (
	"context"
	"testing"
	"time"

	"billing-service/internal/domain/audit"
	"billing-service/internal/pkg/clock"
	"billing-service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingBroadcaster struct {
	got []audit.UsageLog
}

func (r *recordingBroadcaster) BroadcastUsageLog(l *audit.UsageLog) {
	r.got = append(r.got, *l)
}

func TestWriter_RecordAndPublish(t *testing.T) {
	store := testutil.NewStore(&clock.Fixed{T: time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)})
	w := NewWriter(store.UsageLogs(), nil, zap.NewNop())
	b := &recordingBroadcaster{}
	w.SetBroadcaster(b)

	logs, err := w.Record(context.Background(),
		audit.Event{Feature: audit.FeatureStatusChange, CustomerID: 1, SubscriptionID: 2, To: "active", Details: "Status changed to active"},
		audit.Event{Feature: audit.FeaturePlanChange, CustomerID: 1, SubscriptionID: 2, Details: "Changed from Free to Pro"},
	)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.True(t, logs[0].SubscriptionID.Valid)
	assert.Empty(t, b.got, "nothing is broadcast before publish")

	w.Publish(logs)
	assert.Len(t, b.got, 2)

	customerID := int64(1)
	res, err := w.List(context.Background(), &audit.ListFilters{CustomerID: &customerID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)
	assert.Equal(t, audit.FeaturePlanChange, res.Logs[0].Feature, "newest first")
	assert.Equal(t, 1, res.TotalPages)
}
