package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lavapop/outreach-api/internal/model"
	"github.com/lavapop/outreach-api/internal/repository"
)

type transactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

const insertTransactionQuery = `
	INSERT INTO transactions (
		id, doc, occurred_at, gross_value, paid_value, net_value,
		cashback_amount, payment_method, machines, wash_count, dry_count,
		type, used_coupon, coupon_code, import_hash, source_file,
		created_at, updated_at
	) VALUES (
		:id, :doc, :occurred_at, :gross_value, :paid_value, :net_value,
		:cashback_amount, :payment_method, :machines, :wash_count, :dry_count,
		:type, :used_coupon, :coupon_code, :import_hash, :source_file,
		:created_at, :updated_at
	)
	ON CONFLICT (import_hash) DO NOTHING
`

func (r *transactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	tx.CreatedAt = time.Now()
	tx.UpdatedAt = tx.CreatedAt
	if _, err := r.db.NamedExecContext(ctx, insertTransactionQuery, tx); err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM transactions WHERE import_hash = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, hash); err != nil {
		return false, fmt.Errorf("failed to check import hash: %w", err)
	}
	return exists, nil
}

func (r *transactionRepository) FirstAfter(ctx context.Context, doc string, after time.Time) (*model.Transaction, error) {
	query := `
		SELECT * FROM transactions
		WHERE doc = $1 AND occurred_at > $2
		ORDER BY occurred_at ASC
		LIMIT 1
	`
	var tx model.Transaction
	err := r.db.GetContext(ctx, &tx, query, doc, after)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find first transaction after: %w", err)
	}
	return &tx, nil
}

func (r *transactionRepository) SumPaidBetween(ctx context.Context, doc string, from, to time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(paid_value), 0) FROM transactions
		WHERE doc = $1 AND occurred_at > $2 AND occurred_at <= $3
	`
	var sum float64
	if err := r.db.GetContext(ctx, &sum, query, doc, from, to); err != nil {
		return 0, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return sum, nil
}

func (r *transactionRepository) FirstCouponUseAfter(ctx context.Context, doc, code string, after time.Time) (*model.Transaction, error) {
	query := `
		SELECT * FROM transactions
		WHERE doc = $1 AND coupon_code = $2 AND occurred_at > $3
		ORDER BY occurred_at ASC
		LIMIT 1
	`
	var tx model.Transaction
	err := r.db.GetContext(ctx, &tx, query, doc, code, after)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find coupon redemption: %w", err)
	}
	return &tx, nil
}

func (r *transactionRepository) AggregateFacts(ctx context.Context, doc string, recentFloor time.Time) (*model.VisitFacts, error) {
	query := `
		SELECT
			MIN(occurred_at) AS first_visit,
			MAX(occurred_at) AS last_visit,
			COUNT(*) AS transaction_count,
			COALESCE(SUM(gross_value), 0) AS total_spent,
			COALESCE(SUM(gross_value) FILTER (WHERE occurred_at >= $2), 0) AS spent_90d
		FROM transactions
		WHERE doc = $1 AND type <> 'wallet_recharge'
	`
	var facts model.VisitFacts
	if err := r.db.GetContext(ctx, &facts, query, doc, recentFloor); err != nil {
		return nil, fmt.Errorf("failed to aggregate transaction facts: %w", err)
	}
	return &facts, nil
}
