package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavapop/outreach-api/internal/config"
	"github.com/lavapop/outreach-api/internal/model"
	"github.com/lavapop/outreach-api/internal/repository/memory"
	"github.com/lavapop/outreach-api/pkg/logger"
)

var testBusiness = config.BusinessConfig{
	CashbackPercent:     7.5,
	CashbackStartDate:   "2024-06-01",
	SettingsCacheTTLSec: 300,
}

func TestGetFallsBackToDefaults(t *testing.T) {
	repo := memory.NewSettingsRepository(nil)
	svc := NewService(repo, testBusiness, logger.NewLogger(nil))

	st := svc.Get(context.Background())
	require.NotNil(t, st)
	assert.InDelta(t, 7.5, st.CashbackPercent, 0.001)
	assert.Equal(t, "2024-06-01", st.CashbackStartDate)
}

func TestGetCachesStoredRow(t *testing.T) {
	repo := memory.NewSettingsRepository(&model.AppSettings{
		ID:                model.AppSettingsDefaultID,
		CashbackPercent:   10,
		CashbackStartDate: "2024-01-01",
	})
	svc := NewService(repo, testBusiness, logger.NewLogger(nil))

	st := svc.Get(context.Background())
	assert.InDelta(t, 10, st.CashbackPercent, 0.001)

	// Cached copy survives until invalidated
	again := svc.Get(context.Background())
	assert.InDelta(t, 10, again.CashbackPercent, 0.001)

	svc.Invalidate()
	afterInvalidate := svc.Get(context.Background())
	assert.InDelta(t, 10, afterInvalidate.CashbackPercent, 0.001)
}
