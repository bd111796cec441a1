package contact

import (
	"context"
	"fmt"
	"time"

	"github.com/lavapop/outreach-api/internal/model"
	"github.com/lavapop/outreach-api/pkg/dateutil"
	"github.com/lavapop/outreach-api/pkg/messaging"
)

// The detector resolves pending contacts. All three passes filter on
// status=pending, so re-running them over the same rows is harmless.

// DetectReturns resolves every pending contact whose customer transacted
// strictly after the contact time. Revenue is the sum of paid values within
// the attribution window after the contact.
func (s *Service) DetectReturns(ctx context.Context, limit int) (int, error) {
	pending, err := s.contacts.ListPending(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending contacts: %w", err)
	}

	resolved := 0
	for _, c := range pending {
		tx, err := s.transactions.FirstAfter(ctx, c.Doc, c.ContactedAt)
		if err != nil {
			return resolved, fmt.Errorf("failed to find return for %s: %w", c.Doc, err)
		}
		if tx == nil {
			continue
		}
		if err := s.markReturned(ctx, c, tx.OccurredAt); err != nil {
			return resolved, err
		}
		resolved++
		if s.metrics != nil {
			s.metrics.ReturnsDetected.Inc()
		}
	}
	return resolved, nil
}

// ExpireStale closes pending contacts whose attribution window has lapsed
// with no return.
func (s *Service) ExpireStale(ctx context.Context, limit int) (int, error) {
	stale, err := s.contacts.ListPendingExpired(ctx, time.Now(), limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired contacts: %w", err)
	}

	expired := 0
	for _, c := range stale {
		c.Status = model.ContactExpired
		if err := s.contacts.Update(ctx, c); err != nil {
			return expired, fmt.Errorf("failed to expire contact %s: %w", c.ID, err)
		}
		expired++
		if s.metrics != nil {
			s.metrics.ContactsExpired.Inc()
		}
	}
	return expired, nil
}

// LinkCouponRedemptions resolves pending contacts whose campaign coupon was
// redeemed after the contact. Catches returns DetectReturns cannot see when
// the redeeming transaction arrives before the plain return scan runs on a
// fresher import batch.
func (s *Service) LinkCouponRedemptions(ctx context.Context, limit int) (int, error) {
	pending, err := s.contacts.ListPending(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending contacts: %w", err)
	}

	linked := 0
	for _, c := range pending {
		if c.CouponCode == nil || *c.CouponCode == "" {
			continue
		}
		tx, err := s.transactions.FirstCouponUseAfter(ctx, c.Doc, *c.CouponCode, c.ContactedAt)
		if err != nil {
			return linked, fmt.Errorf("failed to find redemption for %s: %w", c.Doc, err)
		}
		if tx == nil {
			continue
		}
		if err := s.markReturned(ctx, c, tx.OccurredAt); err != nil {
			return linked, err
		}
		linked++
		if s.metrics != nil {
			s.metrics.CouponsLinked.Inc()
		}
	}
	return linked, nil
}

func (s *Service) markReturned(ctx context.Context, c *model.Contact, returnedAt time.Time) error {
	windowEnd := c.ContactedAt.AddDate(0, 0, s.attribution.RevenueWindowDays)
	revenue, err := s.transactions.SumPaidBetween(ctx, c.Doc, c.ContactedAt, windowEnd)
	if err != nil {
		return fmt.Errorf("failed to sum attributed revenue: %w", err)
	}

	days := dateutil.DaysBetween(c.ContactedAt, returnedAt, s.loc)

	c.Status = model.ContactReturned
	c.ReturnedAt = &returnedAt
	c.DaysToReturn = &days
	c.AttributedRevenue = revenue
	if err := s.contacts.Update(ctx, c); err != nil {
		return fmt.Errorf("failed to resolve contact %s: %w", c.ID, err)
	}

	if c.CampaignID != nil {
		if err := s.campaigns.IncrementReturned(ctx, *c.CampaignID, revenue); err != nil {
			return fmt.Errorf("failed to bump campaign returns: %w", err)
		}
	}

	s.publish(ctx, messaging.EventContactReturned, c)
	return nil
}
