package segment

import (
	"context"
	"fmt"
	"time"

	"github.com/lavapop/outreach-api/internal/repository"
	"github.com/lavapop/outreach-api/pkg/dateutil"
	"github.com/lavapop/outreach-api/pkg/errors"
	"github.com/lavapop/outreach-api/pkg/logger"
)

const recentSpendWindowDays = 90

// Service recomputes customer facts and classifications. Both the bulk and
// the single-customer path run through Refresh, so the formulas cannot
// drift apart.
type Service struct {
	customers    repository.CustomerRepository
	transactions repository.TransactionRepository
	loc          *time.Location
	logger       *logger.Logger
}

func NewService(customers repository.CustomerRepository, transactions repository.TransactionRepository, loc *time.Location, logger *logger.Logger) *Service {
	return &Service{
		customers:    customers,
		transactions: transactions,
		loc:          loc,
		logger:       logger,
	}
}

// Refresh recomputes the visit facts from the transaction history, then
// reclassifies one customer.
func (s *Service) Refresh(ctx context.Context, doc string) error {
	customer, err := s.customers.Get(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to load customer: %w", err)
	}
	if customer == nil {
		return errors.NewNotFound("customer", nil)
	}

	now := time.Now()
	recentFloor := now.AddDate(0, 0, -recentSpendWindowDays)
	facts, err := s.transactions.AggregateFacts(ctx, doc, recentFloor)
	if err != nil {
		return fmt.Errorf("failed to aggregate facts: %w", err)
	}

	// Imported profile counts may be ahead of the transaction history
	// (partial exports), so facts only move forward.
	if facts.FirstVisit != nil {
		customer.FirstVisit = facts.FirstVisit
	}
	if facts.LastVisit != nil && (customer.LastVisit == nil || facts.LastVisit.After(*customer.LastVisit)) {
		customer.LastVisit = facts.LastVisit
	}
	if facts.TransactionCount > customer.TransactionCount {
		customer.TransactionCount = facts.TransactionCount
	}
	if facts.TotalSpent > customer.TotalSpent {
		customer.TotalSpent = facts.TotalSpent
	}
	customer.Spent90d = facts.Spent90d
	customer.AvgDaysBetween = cadence(customer.FirstVisit, customer.LastVisit, customer.TransactionCount, s.loc)

	Apply(customer, now, s.loc)

	if err := s.customers.Update(ctx, customer); err != nil {
		return fmt.Errorf("failed to save customer: %w", err)
	}
	return nil
}

// RefreshAll reclassifies every customer, returning how many were updated.
// Customers are independent, so a single failure is logged and skipped
// rather than aborting the sweep.
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	customers, err := s.customers.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list customers: %w", err)
	}

	updated := 0
	for _, c := range customers {
		if err := s.Refresh(ctx, c.Doc); err != nil {
			s.logger.Error(err, "failed to refresh customer metrics", "doc", c.Doc)
			continue
		}
		updated++
	}
	return updated, nil
}

// cadence derives average days between visits from the visit span. Needs at
// least two visits; otherwise there is no cadence to speak of.
func cadence(first, last *time.Time, count int, loc *time.Location) *float64 {
	if first == nil || last == nil || count < 2 {
		return nil
	}
	span := dateutil.DaysBetween(*first, *last, loc)
	if span <= 0 {
		return nil
	}
	avg := float64(span) / float64(count-1)
	return &avg
}
