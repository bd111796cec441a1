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

type customerRepository struct {
	db *sqlx.DB
}

func NewCustomerRepository(db *sqlx.DB) repository.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Get(ctx context.Context, doc string) (*model.Customer, error) {
	query := `SELECT * FROM customers WHERE doc = $1`
	var customer model.Customer
	err := r.db.GetContext(ctx, &customer, query, doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &customer, nil
}

// Upsert keeps the "never regress computed metrics" rule in SQL: dates take
// GREATEST, counts take GREATEST, profile fields always update.
func (r *customerRepository) Upsert(ctx context.Context, customer *model.Customer) error {
	now := time.Now()
	customer.CreatedAt = now
	customer.UpdatedAt = now

	query := `
		INSERT INTO customers (
			doc, name, phone, email, registered_at, wallet_balance,
			first_visit, last_visit, transaction_count, total_spent, spent_90d,
			avg_days_between, recency_score, frequency_score, monetary_score,
			segment, risk_tier, return_likelihood, created_at, updated_at
		) VALUES (
			:doc, :name, :phone, :email, :registered_at, :wallet_balance,
			:first_visit, :last_visit, :transaction_count, :total_spent, :spent_90d,
			:avg_days_between, :recency_score, :frequency_score, :monetary_score,
			:segment, :risk_tier, :return_likelihood, :created_at, :updated_at
		)
		ON CONFLICT (doc) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			wallet_balance = EXCLUDED.wallet_balance,
			registered_at = LEAST(customers.registered_at, EXCLUDED.registered_at),
			first_visit = LEAST(customers.first_visit, EXCLUDED.first_visit),
			last_visit = GREATEST(customers.last_visit, EXCLUDED.last_visit),
			transaction_count = GREATEST(customers.transaction_count, EXCLUDED.transaction_count),
			total_spent = GREATEST(customers.total_spent, EXCLUDED.total_spent),
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.NamedExecContext(ctx, query, customer)
	if err != nil {
		return fmt.Errorf("failed to upsert customer: %w", err)
	}
	return nil
}

func (r *customerRepository) Update(ctx context.Context, customer *model.Customer) error {
	customer.UpdatedAt = time.Now()
	query := `
		UPDATE customers SET
			name = :name,
			phone = :phone,
			email = :email,
			registered_at = :registered_at,
			wallet_balance = :wallet_balance,
			first_visit = :first_visit,
			last_visit = :last_visit,
			transaction_count = :transaction_count,
			total_spent = :total_spent,
			spent_90d = :spent_90d,
			avg_days_between = :avg_days_between,
			recency_score = :recency_score,
			frequency_score = :frequency_score,
			monetary_score = :monetary_score,
			segment = :segment,
			risk_tier = :risk_tier,
			return_likelihood = :return_likelihood,
			welcome_sent_at = :welcome_sent_at,
			post_visit_sent_at = :post_visit_sent_at,
			last_anniversary_year = :last_anniversary_year,
			opted_out_at = :opted_out_at,
			updated_at = :updated_at
		WHERE doc = :doc
	`
	_, err := r.db.NamedExecContext(ctx, query, customer)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	return nil
}

func (r *customerRepository) List(ctx context.Context) ([]*model.Customer, error) {
	query := `SELECT * FROM customers ORDER BY doc`
	var customers []*model.Customer
	if err := r.db.SelectContext(ctx, &customers, query); err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

func (r *customerRepository) SetOptedOut(ctx context.Context, doc string, at time.Time) error {
	query := `UPDATE customers SET opted_out_at = $1, updated_at = $2 WHERE doc = $3`
	_, err := r.db.ExecContext(ctx, query, at, time.Now(), doc)
	if err != nil {
		return fmt.Errorf("failed to set opt-out: %w", err)
	}
	return nil
}
