package payment

import (
	"testing"

	xerrors "billing-service/internal/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, ValidateAmount(decimal.RequireFromString("0.01")))
	assert.ErrorIs(t, ValidateAmount(decimal.Zero), xerrors.ErrValidation)
	assert.ErrorIs(t, ValidateAmount(decimal.NewFromInt(-5)), xerrors.ErrValidation)
}

func TestComplete(t *testing.T) {
	p := &Payment{Status: StatusPending, Amount: decimal.NewFromInt(10)}
	require.NoError(t, p.Complete())
	assert.Equal(t, StatusCompleted, p.Status)

	assert.ErrorIs(t, p.Complete(), xerrors.ErrConflict)

	failed := &Payment{Status: StatusFailed, Amount: decimal.NewFromInt(10)}
	assert.ErrorIs(t, failed.Complete(), xerrors.ErrValidation)
	assert.Equal(t, StatusFailed, failed.Status)
}

func TestMethodValid(t *testing.T) {
	assert.True(t, MethodCard.Valid())
	assert.False(t, Method("barter").Valid())
}
