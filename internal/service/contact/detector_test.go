package contact

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavapop/outreach-api/internal/model"
)

func (f *fixture) addPendingContact(t *testing.T, doc string, contactedAt, expiresAt time.Time, campaignID *uuid.UUID, couponCode *string) *model.Contact {
	t.Helper()
	c := &model.Contact{
		Base:        model.Base{ID: uuid.New(), CreatedAt: contactedAt},
		Doc:         doc,
		CampaignID:  campaignID,
		ContactedAt: contactedAt,
		ExpiresAt:   &expiresAt,
		Status:      model.ContactPending,
		CouponCode:  couponCode,
	}
	require.NoError(t, f.contacts.Create(context.Background(), c))
	return c
}

func (f *fixture) addTransaction(t *testing.T, doc string, occurredAt time.Time, paid float64, coupon *string) {
	t.Helper()
	require.NoError(t, f.transactions.Create(context.Background(), &model.Transaction{
		Base:       model.Base{ID: uuid.New()},
		Doc:        doc,
		OccurredAt: occurredAt,
		GrossValue: paid,
		PaidValue:  paid,
		Type:       model.TransactionPurchase,
		CouponCode: coupon,
		ImportHash: uuid.NewString(),
	}))
}

func TestDetectReturnsStrictlyAfter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	contactedAt := time.Now().AddDate(0, 0, -5)
	c := f.addPendingContact(t, "11122233344", contactedAt, contactedAt.AddDate(0, 0, 33), nil, nil)

	// A transaction at the exact contact instant must not count as a return
	f.addTransaction(t, "11122233344", contactedAt, 40, nil)

	n, err := f.svc.DetectReturns(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// One three days later does
	returnAt := contactedAt.AddDate(0, 0, 3)
	f.addTransaction(t, "11122233344", returnAt, 55, nil)

	n, err = f.svc.DetectReturns(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	resolved, err := f.contacts.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContactReturned, resolved.Status)
	require.NotNil(t, resolved.ReturnedAt)
	assert.True(t, resolved.ReturnedAt.Equal(returnAt))
	require.NotNil(t, resolved.DaysToReturn)
	assert.Equal(t, 3, *resolved.DaysToReturn)
}

func TestDetectReturnsRevenueWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	contactedAt := time.Now().AddDate(0, 0, -20)
	c := f.addPendingContact(t, "11122233344", contactedAt, contactedAt.AddDate(0, 0, 33), nil, nil)

	// Two inside the 7-day window, one outside
	f.addTransaction(t, "11122233344", contactedAt.AddDate(0, 0, 2), 30, nil)
	f.addTransaction(t, "11122233344", contactedAt.AddDate(0, 0, 6), 20, nil)
	f.addTransaction(t, "11122233344", contactedAt.AddDate(0, 0, 10), 100, nil)

	_, err := f.svc.DetectReturns(ctx, 0)
	require.NoError(t, err)

	resolved, err := f.contacts.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.InDelta(t, 50, resolved.AttributedRevenue, 0.001)
}

func TestDetectReturnsBumpsCampaignCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cmp := &model.Campaign{Base: model.Base{ID: uuid.New()}, Name: "Winback", Status: model.CampaignActive}
	require.NoError(t, f.campaigns.Create(ctx, cmp))

	contactedAt := time.Now().AddDate(0, 0, -4)
	f.addPendingContact(t, "11122233344", contactedAt, contactedAt.AddDate(0, 0, 33), &cmp.ID, nil)
	f.addTransaction(t, "11122233344", contactedAt.AddDate(0, 0, 1), 45, nil)

	_, err := f.svc.DetectReturns(ctx, 0)
	require.NoError(t, err)

	stored, err := f.campaigns.Get(ctx, cmp.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ReturnedCount)
	assert.InDelta(t, 45, stored.AttributedRevenue, 0.001)
}

func TestDetectReturnsIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	contactedAt := time.Now().AddDate(0, 0, -4)
	f.addPendingContact(t, "11122233344", contactedAt, contactedAt.AddDate(0, 0, 33), nil, nil)
	f.addTransaction(t, "11122233344", contactedAt.AddDate(0, 0, 1), 45, nil)

	n, err := f.svc.DetectReturns(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Resolved contacts are no longer pending, a second pass finds nothing
	n, err = f.svc.DetectReturns(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestExpireStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	old := time.Now().AddDate(0, 0, -40)
	stale := f.addPendingContact(t, "11122233344", old, old.AddDate(0, 0, 33), nil, nil)
	fresh := f.addPendingContact(t, "55566677788", time.Now().AddDate(0, 0, -1), time.Now().AddDate(0, 0, 32), nil, nil)

	n, err := f.svc.ExpireStale(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	c, err := f.contacts.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContactExpired, c.Status)

	c, err = f.contacts.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContactPending, c.Status)
}

func TestLinkCouponRedemptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	coupon := "VOLTA10"
	contactedAt := time.Now().AddDate(0, 0, -5)
	c := f.addPendingContact(t, "11122233344", contactedAt, contactedAt.AddDate(0, 0, 33), nil, &coupon)

	// Redemption of a different code does not link
	other := "OUTRO20"
	f.addTransaction(t, "11122233344", contactedAt.AddDate(0, 0, 2), 35, &other)

	n, err := f.svc.LinkCouponRedemptions(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	f.addTransaction(t, "11122233344", contactedAt.AddDate(0, 0, 3), 60, &coupon)

	n, err = f.svc.LinkCouponRedemptions(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	resolved, err := f.contacts.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContactReturned, resolved.Status)
	require.NotNil(t, resolved.DaysToReturn)
	assert.Equal(t, 3, *resolved.DaysToReturn)
}
