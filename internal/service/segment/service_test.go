package segment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavapop/outreach-api/internal/model"
	"github.com/lavapop/outreach-api/internal/repository/memory"
	"github.com/lavapop/outreach-api/pkg/logger"
)

func newTestService(t *testing.T) (*Service, *memory.CustomerRepository, *memory.TransactionRepository) {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	customers := memory.NewCustomerRepository()
	transactions := memory.NewTransactionRepository()
	svc := NewService(customers, transactions, loc, logger.NewLogger(nil))
	return svc, customers, transactions
}

func TestRefreshRecomputesFromTransactions(t *testing.T) {
	svc, customers, transactions := newTestService(t)
	ctx := context.Background()

	now := time.Now()
	registered := now.AddDate(0, 0, -90)
	require.NoError(t, customers.Update(ctx, &model.Customer{
		Doc:          "11122233344",
		RegisteredAt: &registered,
	}))

	// Four purchases spread over 60 days, last one 20 days ago
	for _, daysAgo := range []int{80, 60, 40, 20} {
		require.NoError(t, transactions.Create(ctx, &model.Transaction{
			Doc:        "11122233344",
			OccurredAt: now.AddDate(0, 0, -daysAgo),
			GrossValue: 50,
			Type:       model.TransactionPurchase,
			ImportHash: fmt.Sprintf("tx-%d", daysAgo),
		}))
	}

	require.NoError(t, svc.Refresh(ctx, "11122233344"))

	c, err := customers.Get(ctx, "11122233344")
	require.NoError(t, err)
	assert.Equal(t, 4, c.TransactionCount)
	assert.InDelta(t, 200, c.TotalSpent, 0.001)
	require.NotNil(t, c.AvgDaysBetween)
	assert.InDelta(t, 20, *c.AvgDaysBetween, 0.5)
	assert.NotEmpty(t, c.Segment)
	assert.NotEmpty(t, c.RiskTier)
}

func TestRefreshIgnoresWalletRecharges(t *testing.T) {
	svc, customers, transactions := newTestService(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, customers.Update(ctx, &model.Customer{Doc: "22233344455"}))
	require.NoError(t, transactions.Create(ctx, &model.Transaction{
		Doc:        "22233344455",
		OccurredAt: now.AddDate(0, 0, -5),
		PaidValue:  100,
		Type:       model.TransactionWalletRecharge,
		ImportHash: "recharge-hash",
	}))

	require.NoError(t, svc.Refresh(ctx, "22233344455"))

	c, err := customers.Get(ctx, "22233344455")
	require.NoError(t, err)
	assert.Equal(t, 0, c.TransactionCount)
}

func TestRefreshUnknownCustomer(t *testing.T) {
	svc, _, _ := newTestService(t)
	err := svc.Refresh(context.Background(), "00000000000")
	assert.Error(t, err)
}

func TestRefreshAllCountsUpdates(t *testing.T) {
	svc, customers, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, customers.Update(ctx, &model.Customer{Doc: "10000000001"}))
	require.NoError(t, customers.Update(ctx, &model.Customer{Doc: "10000000002"}))

	updated, err := svc.RefreshAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)
}
