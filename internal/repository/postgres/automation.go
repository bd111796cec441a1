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

type automationRuleRepository struct {
	db *sqlx.DB
}

func NewAutomationRuleRepository(db *sqlx.DB) repository.AutomationRuleRepository {
	return &automationRuleRepository{db: db}
}

func (r *automationRuleRepository) Create(ctx context.Context, rule *model.AutomationRule) error {
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = rule.CreatedAt
	query := `
		INSERT INTO automation_rules (
			id, name, kind, enabled, trigger_threshold, cooldown_days,
			send_hour_from, send_hour_to, daily_cap, lifetime_cap,
			coupon_code, coupon_percent, coupon_validity_days, campaign_id,
			created_at, updated_at
		) VALUES (
			:id, :name, :kind, :enabled, :trigger_threshold, :cooldown_days,
			:send_hour_from, :send_hour_to, :daily_cap, :lifetime_cap,
			:coupon_code, :coupon_percent, :coupon_validity_days, :campaign_id,
			:created_at, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("failed to create automation rule: %w", err)
	}
	return nil
}

func (r *automationRuleRepository) Update(ctx context.Context, rule *model.AutomationRule) error {
	rule.UpdatedAt = time.Now()
	query := `
		UPDATE automation_rules SET
			name = :name,
			kind = :kind,
			enabled = :enabled,
			trigger_threshold = :trigger_threshold,
			cooldown_days = :cooldown_days,
			send_hour_from = :send_hour_from,
			send_hour_to = :send_hour_to,
			daily_cap = :daily_cap,
			lifetime_cap = :lifetime_cap,
			coupon_code = :coupon_code,
			coupon_percent = :coupon_percent,
			coupon_validity_days = :coupon_validity_days,
			campaign_id = :campaign_id,
			updated_at = :updated_at
		WHERE id = :id
	`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("failed to update automation rule: %w", err)
	}
	return nil
}

func (r *automationRuleRepository) Get(ctx context.Context, id uuid.UUID) (*model.AutomationRule, error) {
	query := `SELECT * FROM automation_rules WHERE id = $1`
	var rule model.AutomationRule
	err := r.db.GetContext(ctx, &rule, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get automation rule: %w", err)
	}
	return &rule, nil
}

func (r *automationRuleRepository) List(ctx context.Context, enabledOnly bool) ([]*model.AutomationRule, error) {
	query := `SELECT * FROM automation_rules`
	if enabledOnly {
		query += ` WHERE enabled`
	}
	query += ` ORDER BY created_at`

	var rules []*model.AutomationRule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("failed to list automation rules: %w", err)
	}
	return rules, nil
}

func (r *automationRuleRepository) GetEnabledByKind(ctx context.Context, kind model.RuleKind) (*model.AutomationRule, error) {
	query := `
		SELECT * FROM automation_rules
		WHERE kind = $1 AND enabled
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var rule model.AutomationRule
	err := r.db.GetContext(ctx, &rule, query, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule by kind: %w", err)
	}
	return &rule, nil
}

func (r *automationRuleRepository) LinkCampaign(ctx context.Context, ruleID, campaignID uuid.UUID) error {
	query := `UPDATE automation_rules SET campaign_id = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, campaignID, time.Now(), ruleID); err != nil {
		return fmt.Errorf("failed to link campaign: %w", err)
	}
	return nil
}
