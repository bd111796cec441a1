package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavapop/outreach-api/internal/config"
	"github.com/lavapop/outreach-api/internal/model"
	"github.com/lavapop/outreach-api/internal/repository/memory"
	"github.com/lavapop/outreach-api/internal/service/settings"
	"github.com/lavapop/outreach-api/pkg/logger"
)

type fixture struct {
	svc          *Service
	customers    *memory.CustomerRepository
	transactions *memory.TransactionRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	customers := memory.NewCustomerRepository()
	transactions := memory.NewTransactionRepository()
	settingsSvc := settings.NewService(memory.NewSettingsRepository(nil), config.BusinessConfig{
		CashbackPercent:     7.5,
		CashbackStartDate:   "2024-06-01",
		SettingsCacheTTLSec: 300,
	}, logger.NewLogger(nil))

	svc := NewService(
		memory.NewLedgerRepository(transactions, customers),
		transactions, customers, settingsSvc, loc, logger.NewLogger(nil),
	)
	return &fixture{svc: svc, customers: customers, transactions: transactions}
}

func purchaseReq(doc string, occurredAt time.Time, gross float64) *model.IngestTransactionRequest {
	return &model.IngestTransactionRequest{
		Doc:        doc,
		OccurredAt: occurredAt,
		GrossValue: gross,
		PaidValue:  gross,
		Machines:   "Lavadora 01",
	}
}

func TestIngestNormalizesAndClassifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.svc.IngestTransaction(ctx, &model.IngestTransactionRequest{
		Doc:        "123.456.789-01",
		OccurredAt: time.Now(),
		GrossValue: 40,
		PaidValue:  40,
		Machines:   "Lavadora 01, Secadora 02",
		CouponCode: "volta10",
	})
	require.NoError(t, err)
	require.NotNil(t, tx)

	assert.Equal(t, "12345678901", tx.Doc)
	assert.Equal(t, model.TransactionPurchase, tx.Type)
	assert.Equal(t, 1, tx.WashCount)
	assert.Equal(t, 1, tx.DryCount)
	require.NotNil(t, tx.CouponCode)
	assert.Equal(t, "VOLTA10", *tx.CouponCode)
	assert.Len(t, tx.ImportHash, 32)

	customer, err := f.customers.Get(ctx, "12345678901")
	require.NoError(t, err)
	require.NotNil(t, customer)
	assert.Equal(t, 1, customer.TransactionCount)
	assert.InDelta(t, 40, customer.TotalSpent, 0.001)
	assert.NotEmpty(t, customer.RiskTier)
}

func TestIngestShortCPFIsZeroPadded(t *testing.T) {
	f := newFixture(t)

	tx, err := f.svc.IngestTransaction(context.Background(), purchaseReq("123456789", time.Now(), 25))
	require.NoError(t, err)
	assert.Equal(t, "00123456789", tx.Doc)
}

func TestIngestDeduplicatesByHash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	at := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	first, err := f.svc.IngestTransaction(ctx, purchaseReq("12345678901", at, 40))
	require.NoError(t, err)
	require.NotNil(t, first)

	dup, err := f.svc.IngestTransaction(ctx, purchaseReq("12345678901", at, 40))
	require.NoError(t, err)
	assert.Nil(t, dup)

	customer, err := f.customers.Get(ctx, "12345678901")
	require.NoError(t, err)
	assert.Equal(t, 1, customer.TransactionCount)
}

func TestCashbackStartDateGating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before, err := f.svc.IngestTransaction(ctx, purchaseReq("12345678901", time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC), 100))
	require.NoError(t, err)
	assert.InDelta(t, 0, before.CashbackAmount, 0.001)
	assert.InDelta(t, 100, before.NetValue, 0.001)

	after, err := f.svc.IngestTransaction(ctx, purchaseReq("12345678901", time.Date(2024, 7, 20, 12, 0, 0, 0, time.UTC), 100))
	require.NoError(t, err)
	assert.InDelta(t, 7.5, after.CashbackAmount, 0.001)
	assert.InDelta(t, 92.5, after.NetValue, 0.001)
}

func TestRechargeMovesBalanceNotVisits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.svc.IngestTransaction(ctx, &model.IngestTransactionRequest{
		Doc:        "12345678901",
		OccurredAt: time.Now(),
		GrossValue: 50,
		PaidValue:  50,
		Machines:   "Recarga",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TransactionWalletRecharge, tx.Type)

	customer, err := f.customers.Get(ctx, "12345678901")
	require.NoError(t, err)
	assert.Equal(t, 0, customer.TransactionCount)
	// Paid plus 7.5% cashback
	assert.InDelta(t, 53.75, customer.WalletBalance, 0.001)
}

func TestWalletPurchaseDebitsBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.customers.Update(ctx, &model.Customer{Doc: "12345678901", WalletBalance: 100}))

	tx, err := f.svc.IngestTransaction(ctx, &model.IngestTransactionRequest{
		Doc:           "12345678901",
		OccurredAt:    time.Now(),
		GrossValue:    30,
		PaidValue:     0,
		Machines:      "Lavadora 01",
		PaymentMethod: "Saldo da Carteira",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TransactionWalletPurchase, tx.Type)

	customer, err := f.customers.Get(ctx, "12345678901")
	require.NoError(t, err)
	assert.InDelta(t, 70, customer.WalletBalance, 0.001)
	assert.Equal(t, 1, customer.TransactionCount)
}

func TestVisitClearsPostVisitMarker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sent := time.Now().AddDate(0, 0, -10)
	require.NoError(t, f.customers.Update(ctx, &model.Customer{
		Doc:             "12345678901",
		PostVisitSentAt: &sent,
	}))

	_, err := f.svc.IngestTransaction(ctx, purchaseReq("12345678901", time.Now(), 40))
	require.NoError(t, err)

	customer, err := f.customers.Get(ctx, "12345678901")
	require.NoError(t, err)
	assert.Nil(t, customer.PostVisitSentAt)
}

func TestIngestBatchCountsOutcomes(t *testing.T) {
	f := newFixture(t)
	at := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	result, err := f.svc.IngestBatch(context.Background(), []*model.IngestTransactionRequest{
		purchaseReq("12345678901", at, 40),
		purchaseReq("12345678901", at, 40),
		{Doc: "---", OccurredAt: at, GrossValue: 10},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, result.Errors, 1)
	assert.Len(t, result.IDs, 1)
}

func TestImportHashIsStable(t *testing.T) {
	at := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	h1 := ImportHash(at, "12345678901", 40, "Lavadora 01")
	h2 := ImportHash(at, "12345678901", 40, "Lavadora 01")
	h3 := ImportHash(at, "12345678901", 41, "Lavadora 01")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 32)
}

func TestClassifyType(t *testing.T) {
	tests := []struct {
		name     string
		machines string
		payment  string
		gross    float64
		want     model.TransactionType
	}{
		{"recharge wins over payment", "Recarga", "Pix", 50, model.TransactionWalletRecharge},
		{"wallet payment", "Lavadora 01", "Saldo da Carteira", 30, model.TransactionWalletPurchase},
		{"zero gross with machines", "Secadora 02", "Pix", 0, model.TransactionWalletPurchase},
		{"plain purchase", "Lavadora 01", "Cartão", 40, model.TransactionPurchase},
		{"nothing to go on", "", "Pix", 0, model.TransactionUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyType(tt.machines, tt.payment, tt.gross))
		})
	}
}

func TestNormalizeCoupon(t *testing.T) {
	assert.Nil(t, NormalizeCoupon(""))
	assert.Nil(t, NormalizeCoupon("N/D"))
	assert.Nil(t, NormalizeCoupon("n/d"))

	got := NormalizeCoupon(" volta10 ")
	require.NotNil(t, got)
	assert.Equal(t, "VOLTA10", *got)
}
