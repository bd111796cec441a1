// Package ledger owns transaction ingest: normalization, dedup, type
// classification, cashback math and the atomic write that keeps the customer
// record in step with its transaction history.
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lavapop/outreach-api/internal/model"
	"github.com/lavapop/outreach-api/internal/repository"
	"github.com/lavapop/outreach-api/internal/service/segment"
	"github.com/lavapop/outreach-api/internal/service/settings"
	"github.com/lavapop/outreach-api/pkg/dateutil"
	"github.com/lavapop/outreach-api/pkg/errors"
	"github.com/lavapop/outreach-api/pkg/logger"
	"github.com/lavapop/outreach-api/pkg/validator"
)

// Coupon column value meaning "no coupon" in the POS export.
const couponAbsent = "n/d"

type Service struct {
	ledger       repository.LedgerRepository
	transactions repository.TransactionRepository
	customers    repository.CustomerRepository
	settings     *settings.Service
	loc          *time.Location
	logger       *logger.Logger
}

func NewService(
	ledgerRepo repository.LedgerRepository,
	transactions repository.TransactionRepository,
	customers repository.CustomerRepository,
	settingsSvc *settings.Service,
	loc *time.Location,
	log *logger.Logger,
) *Service {
	return &Service{
		ledger:       ledgerRepo,
		transactions: transactions,
		customers:    customers,
		settings:     settingsSvc,
		loc:          loc,
		logger:       log,
	}
}

// IngestTransaction normalizes, classifies and persists one transaction
// together with the refreshed customer record. Returns (nil, nil) when the
// row is a duplicate of an already-imported one.
func (s *Service) IngestTransaction(ctx context.Context, req *model.IngestTransactionRequest) (*model.Transaction, error) {
	doc := validator.NormalizeCPF(req.Doc)
	if doc == "" {
		return nil, errors.NewBadRequest("invalid customer document", nil)
	}

	hash := ImportHash(req.OccurredAt, doc, req.GrossValue, req.Machines)
	exists, err := s.transactions.ExistsByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to check import hash: %w", err)
	}
	if exists {
		return nil, nil
	}

	txType := ClassifyType(req.Machines, req.PaymentMethod, req.GrossValue)
	wash, dry := CountMachines(req.Machines)

	tx := &model.Transaction{
		Base:          model.Base{ID: uuid.New(), CreatedAt: time.Now()},
		Doc:           doc,
		OccurredAt:    req.OccurredAt,
		GrossValue:    req.GrossValue,
		PaidValue:     req.PaidValue,
		NetValue:      req.PaidValue,
		PaymentMethod: req.PaymentMethod,
		Machines:      req.Machines,
		WashCount:     wash,
		DryCount:      dry,
		Type:          txType,
		UsedCoupon:    req.UsedCoupon,
		CouponCode:    NormalizeCoupon(req.CouponCode),
		ImportHash:    hash,
		SourceFile:    req.SourceFile,
	}

	st := s.settings.Get(ctx)
	if s.cashbackApplies(st, req.OccurredAt) && req.GrossValue > 0 {
		tx.CashbackAmount = round2(req.GrossValue * st.CashbackPercent / 100)
		tx.NetValue = round2(req.PaidValue - tx.CashbackAmount)
	}

	customer, err := s.customers.Get(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if customer == nil {
		customer = &model.Customer{Doc: doc, CreatedAt: time.Now()}
	}
	s.applyToCustomer(customer, tx)

	if err := s.ledger.SaveIngest(ctx, tx, customer); err != nil {
		return nil, fmt.Errorf("failed to save ingest: %w", err)
	}
	return tx, nil
}

// IngestBatch processes importer rows independently; a bad row is reported
// in the result, never aborts the batch.
func (s *Service) IngestBatch(ctx context.Context, reqs []*model.IngestTransactionRequest) (*model.IngestResult, error) {
	result := &model.IngestResult{Total: len(reqs)}
	for i, req := range reqs {
		tx, err := s.IngestTransaction(ctx, req)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		if tx == nil {
			result.Skipped++
			continue
		}
		result.Inserted++
		result.IDs = append(result.IDs, tx.ID)
	}
	return result, nil
}

// applyToCustomer folds one new transaction into the customer's facts and
// reclassifies. Wallet recharges move balance but are not visits.
func (s *Service) applyToCustomer(c *model.Customer, tx *model.Transaction) {
	switch tx.Type {
	case model.TransactionWalletRecharge:
		c.WalletBalance = round2(c.WalletBalance + tx.PaidValue + tx.CashbackAmount)
	case model.TransactionWalletPurchase:
		c.WalletBalance = round2(c.WalletBalance - tx.GrossValue)
		s.applyVisit(c, tx)
	default:
		s.applyVisit(c, tx)
	}

	segment.Apply(c, time.Now(), s.loc)
}

func (s *Service) applyVisit(c *model.Customer, tx *model.Transaction) {
	occurred := tx.OccurredAt
	if c.FirstVisit == nil || occurred.Before(*c.FirstVisit) {
		v := occurred
		c.FirstVisit = &v
	}
	if c.LastVisit == nil || occurred.After(*c.LastVisit) {
		v := occurred
		c.LastVisit = &v
	}
	c.TransactionCount++
	c.TotalSpent = round2(c.TotalSpent + tx.GrossValue)
	if dateutil.DaysBetween(occurred, time.Now(), s.loc) <= 90 {
		c.Spent90d = round2(c.Spent90d + tx.GrossValue)
	}

	if c.FirstVisit != nil && c.LastVisit != nil && c.TransactionCount > 1 {
		span := dateutil.DaysBetween(*c.FirstVisit, *c.LastVisit, s.loc)
		if span > 0 {
			avg := float64(span) / float64(c.TransactionCount-1)
			c.AvgDaysBetween = &avg
		}
	}

	// A fresh visit re-arms the post-visit automation.
	c.PostVisitSentAt = nil
}

func (s *Service) cashbackApplies(st *model.AppSettings, occurredAt time.Time) bool {
	start, err := time.ParseInLocation("2006-01-02", st.CashbackStartDate, s.loc)
	if err != nil {
		s.logger.Warn("invalid cashback start date", "value", st.CashbackStartDate)
		return false
	}
	return !occurredAt.Before(start)
}

// ImportHash builds the dedup key for one export row: first 32 hex chars of
// a SHA-256 over the identifying columns.
func ImportHash(occurredAt time.Time, doc string, grossValue float64, machines string) string {
	content := fmt.Sprintf("%s|%s|%.2f|%s", occurredAt.UTC().Format(time.RFC3339), doc, grossValue, machines)
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:32]
}

// ClassifyType maps the export's machine and payment columns to a
// transaction type. The POS writes Portuguese labels.
func ClassifyType(machines, paymentMethod string, grossValue float64) model.TransactionType {
	m := strings.ToLower(machines)
	p := strings.ToLower(paymentMethod)

	if strings.Contains(m, "recarga") {
		return model.TransactionWalletRecharge
	}
	if strings.Contains(p, "saldo da carteira") {
		return model.TransactionWalletPurchase
	}
	if grossValue == 0 && m != "" {
		return model.TransactionWalletPurchase
	}
	if m != "" && grossValue > 0 {
		return model.TransactionPurchase
	}
	return model.TransactionUnknown
}

// CountMachines counts washers and dryers in the comma-separated machine list.
func CountMachines(machines string) (wash, dry int) {
	for _, m := range strings.Split(strings.ToLower(machines), ",") {
		if strings.Contains(m, "lavadora") {
			wash++
		}
		if strings.Contains(m, "secadora") {
			dry++
		}
	}
	return wash, dry
}

// NormalizeCoupon uppercases a coupon code; empty and the export's "N/D"
// placeholder mean no coupon.
func NormalizeCoupon(code string) *string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" || strings.ToLower(trimmed) == couponAbsent {
		return nil
	}
	upper := strings.ToUpper(trimmed)
	return &upper
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
