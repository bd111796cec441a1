package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lavapop/outreach-api/internal/model"
	"github.com/lavapop/outreach-api/internal/repository"
)

type blacklistRepository struct {
	db *sqlx.DB
}

func NewBlacklistRepository(db *sqlx.DB) repository.BlacklistRepository {
	return &blacklistRepository{db: db}
}

func (r *blacklistRepository) Add(ctx context.Context, entry *model.BlacklistEntry) error {
	entry.CreatedAt = time.Now()
	query := `
		INSERT INTO blacklist (phone, reason, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone) DO UPDATE SET reason = EXCLUDED.reason
	`
	if _, err := r.db.ExecContext(ctx, query, entry.Phone, entry.Reason, entry.CreatedAt); err != nil {
		return fmt.Errorf("failed to add blacklist entry: %w", err)
	}
	return nil
}

func (r *blacklistRepository) Remove(ctx context.Context, phone string) error {
	query := `DELETE FROM blacklist WHERE phone = $1`
	if _, err := r.db.ExecContext(ctx, query, phone); err != nil {
		return fmt.Errorf("failed to remove blacklist entry: %w", err)
	}
	return nil
}

func (r *blacklistRepository) List(ctx context.Context) ([]*model.BlacklistEntry, error) {
	query := `SELECT * FROM blacklist ORDER BY created_at DESC`
	var entries []*model.BlacklistEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("failed to list blacklist: %w", err)
	}
	return entries, nil
}

func (r *blacklistRepository) Exists(ctx context.Context, phone string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM blacklist WHERE phone = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, phone); err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return exists, nil
}
