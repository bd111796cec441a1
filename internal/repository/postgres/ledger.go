package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lavapop/outreach-api/internal/model"
	"github.com/lavapop/outreach-api/internal/repository"
)

type ledgerRepository struct {
	BaseRepository
}

func NewLedgerRepository(base BaseRepository) repository.LedgerRepository {
	return &ledgerRepository{BaseRepository: base}
}

// SaveIngest writes the transaction and the recomputed customer row in one
// database transaction, so a crash between the two can never leave the
// ledger and the customer facts disagreeing.
func (r *ledgerRepository) SaveIngest(ctx context.Context, tx *model.Transaction, customer *model.Customer) error {
	return r.WithTx(ctx, func(dbTx *sqlx.Tx) error {
		now := time.Now()
		tx.CreatedAt = now
		tx.UpdatedAt = now
		if _, err := dbTx.NamedExecContext(ctx, insertTransactionQuery, tx); err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}

		customer.UpdatedAt = now
		customerQuery := `
			INSERT INTO customers (
				doc, name, phone, email, registered_at, wallet_balance,
				first_visit, last_visit, transaction_count, total_spent,
				spent_90d, avg_days_between, recency_score, frequency_score,
				monetary_score, segment, risk_tier, return_likelihood,
				welcome_sent_at, post_visit_sent_at, last_anniversary_year,
				opted_out_at, created_at, updated_at
			) VALUES (
				:doc, :name, :phone, :email, :registered_at, :wallet_balance,
				:first_visit, :last_visit, :transaction_count, :total_spent,
				:spent_90d, :avg_days_between, :recency_score, :frequency_score,
				:monetary_score, :segment, :risk_tier, :return_likelihood,
				:welcome_sent_at, :post_visit_sent_at, :last_anniversary_year,
				:opted_out_at, :updated_at, :updated_at
			)
			ON CONFLICT (doc) DO UPDATE SET
				name = EXCLUDED.name,
				phone = EXCLUDED.phone,
				wallet_balance = EXCLUDED.wallet_balance,
				first_visit = EXCLUDED.first_visit,
				last_visit = EXCLUDED.last_visit,
				transaction_count = EXCLUDED.transaction_count,
				total_spent = EXCLUDED.total_spent,
				spent_90d = EXCLUDED.spent_90d,
				avg_days_between = EXCLUDED.avg_days_between,
				recency_score = EXCLUDED.recency_score,
				frequency_score = EXCLUDED.frequency_score,
				monetary_score = EXCLUDED.monetary_score,
				segment = EXCLUDED.segment,
				risk_tier = EXCLUDED.risk_tier,
				return_likelihood = EXCLUDED.return_likelihood,
				post_visit_sent_at = EXCLUDED.post_visit_sent_at,
				updated_at = EXCLUDED.updated_at
		`
		if _, err := dbTx.NamedExecContext(ctx, customerQuery, customer); err != nil {
			return fmt.Errorf("failed to upsert customer facts: %w", err)
		}
		return nil
	})
}
