package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lavapop/outreach-api/internal/model"
	"github.com/lavapop/outreach-api/internal/repository"
)

type campaignRepository struct {
	db *sqlx.DB
}

func NewCampaignRepository(db *sqlx.DB) repository.CampaignRepository {
	return &campaignRepository{db: db}
}

func (r *campaignRepository) Create(ctx context.Context, campaign *model.Campaign) error {
	campaign.CreatedAt = time.Now()
	campaign.UpdatedAt = campaign.CreatedAt
	query := `
		INSERT INTO campaigns (
			id, name, type, status, audience, coupon_code, coupon_percent,
			coupon_validity_days, ab_variant, sent_count, returned_count,
			attributed_revenue, last_sent_at, source_rule_id,
			created_at, updated_at
		) VALUES (
			:id, :name, :type, :status, :audience, :coupon_code, :coupon_percent,
			:coupon_validity_days, :ab_variant, :sent_count, :returned_count,
			:attributed_revenue, :last_sent_at, :source_rule_id,
			:created_at, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, campaign); err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

func (r *campaignRepository) Update(ctx context.Context, campaign *model.Campaign) error {
	campaign.UpdatedAt = time.Now()
	query := `
		UPDATE campaigns SET
			name = :name,
			type = :type,
			status = :status,
			audience = :audience,
			coupon_code = :coupon_code,
			coupon_percent = :coupon_percent,
			coupon_validity_days = :coupon_validity_days,
			ab_variant = :ab_variant,
			updated_at = :updated_at
		WHERE id = :id
	`
	if _, err := r.db.NamedExecContext(ctx, query, campaign); err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}
	return nil
}

func (r *campaignRepository) Get(ctx context.Context, id uuid.UUID) (*model.Campaign, error) {
	query := `SELECT * FROM campaigns WHERE id = $1`
	var campaign model.Campaign
	err := r.db.GetContext(ctx, &campaign, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return &campaign, nil
}

func (r *campaignRepository) List(ctx context.Context) ([]*model.Campaign, error) {
	query := `SELECT * FROM campaigns ORDER BY created_at DESC`
	var campaigns []*model.Campaign
	if err := r.db.SelectContext(ctx, &campaigns, query); err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

func (r *campaignRepository) IncrementSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE campaigns SET
			sent_count = sent_count + 1,
			last_sent_at = GREATEST(COALESCE(last_sent_at, $1), $1),
			updated_at = $2
		WHERE id = $3
	`
	if _, err := r.db.ExecContext(ctx, query, at, time.Now(), id); err != nil {
		return fmt.Errorf("failed to increment campaign sends: %w", err)
	}
	return nil
}

func (r *campaignRepository) IncrementReturned(ctx context.Context, id uuid.UUID, revenue float64) error {
	query := `
		UPDATE campaigns SET
			returned_count = returned_count + 1,
			attributed_revenue = attributed_revenue + $1,
			updated_at = $2
		WHERE id = $3
	`
	if _, err := r.db.ExecContext(ctx, query, revenue, time.Now(), id); err != nil {
		return fmt.Errorf("failed to increment campaign returns: %w", err)
	}
	return nil
}
