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

// Cap for unbounded list calls; workers pass their own batch size.
const defaultListLimit = 500

type contactRepository struct {
	db *sqlx.DB
}

func NewContactRepository(db *sqlx.DB) repository.ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, contact *model.Contact) error {
	contact.CreatedAt = time.Now()
	contact.UpdatedAt = contact.CreatedAt
	query := `
		INSERT INTO contacts (
			id, doc, campaign_id, campaign_type, customer_name, phone,
			contacted_at, expires_at, status, delivery_status,
			transport_msg_id, response_status, responded_at,
			risk_tier_at_contact, coupon_code, returned_at, days_to_return,
			attributed_revenue, created_at, updated_at
		) VALUES (
			:id, :doc, :campaign_id, :campaign_type, :customer_name, :phone,
			:contacted_at, :expires_at, :status, :delivery_status,
			:transport_msg_id, :response_status, :responded_at,
			:risk_tier_at_contact, :coupon_code, :returned_at, :days_to_return,
			:attributed_revenue, :created_at, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, contact); err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

func (r *contactRepository) Update(ctx context.Context, contact *model.Contact) error {
	contact.UpdatedAt = time.Now()
	query := `
		UPDATE contacts SET
			campaign_id = :campaign_id,
			campaign_type = :campaign_type,
			customer_name = :customer_name,
			phone = :phone,
			contacted_at = :contacted_at,
			expires_at = :expires_at,
			status = :status,
			delivery_status = :delivery_status,
			transport_msg_id = :transport_msg_id,
			response_status = :response_status,
			responded_at = :responded_at,
			risk_tier_at_contact = :risk_tier_at_contact,
			coupon_code = :coupon_code,
			returned_at = :returned_at,
			days_to_return = :days_to_return,
			attributed_revenue = :attributed_revenue,
			updated_at = :updated_at
		WHERE id = :id
	`
	if _, err := r.db.NamedExecContext(ctx, query, contact); err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	return nil
}

func (r *contactRepository) Get(ctx context.Context, id uuid.UUID) (*model.Contact, error) {
	query := `SELECT * FROM contacts WHERE id = $1`
	var contact model.Contact
	err := r.db.GetContext(ctx, &contact, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return &contact, nil
}

func (r *contactRepository) GetByTransportMsgID(ctx context.Context, msgID string) (*model.Contact, error) {
	query := `SELECT * FROM contacts WHERE transport_msg_id = $1`
	var contact model.Contact
	err := r.db.GetContext(ctx, &contact, query, msgID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact by transport id: %w", err)
	}
	return &contact, nil
}

func (r *contactRepository) FindQueued(ctx context.Context, doc string, campaignID uuid.UUID) (*model.Contact, error) {
	query := `
		SELECT * FROM contacts
		WHERE doc = $1 AND campaign_id = $2 AND status = 'queued'
		ORDER BY created_at ASC
		LIMIT 1
	`
	var contact model.Contact
	err := r.db.GetContext(ctx, &contact, query, doc, campaignID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find queued contact: %w", err)
	}
	return &contact, nil
}

func (r *contactRepository) LastContact(ctx context.Context, doc string) (*model.Contact, error) {
	query := `
		SELECT * FROM contacts
		WHERE doc = $1 AND status <> 'cancelled' AND status <> 'queued'
		ORDER BY contacted_at DESC
		LIMIT 1
	`
	var contact model.Contact
	err := r.db.GetContext(ctx, &contact, query, doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find last contact: %w", err)
	}
	return &contact, nil
}

func (r *contactRepository) LastContactOfType(ctx context.Context, doc, campaignType string) (*model.Contact, error) {
	query := `
		SELECT * FROM contacts
		WHERE doc = $1 AND campaign_type = $2
			AND status <> 'cancelled' AND status <> 'queued'
		ORDER BY contacted_at DESC
		LIMIT 1
	`
	var contact model.Contact
	err := r.db.GetContext(ctx, &contact, query, doc, campaignType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find last contact of type: %w", err)
	}
	return &contact, nil
}

func (r *contactRepository) LastOptOutAt(ctx context.Context, doc string) (*time.Time, error) {
	query := `
		SELECT responded_at FROM contacts
		WHERE doc = $1 AND response_status = $2 AND responded_at IS NOT NULL
		ORDER BY responded_at DESC
		LIMIT 1
	`
	var at time.Time
	err := r.db.GetContext(ctx, &at, query, doc, model.ResponseOptedOut)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find last opt-out: %w", err)
	}
	return &at, nil
}

func (r *contactRepository) ListPending(ctx context.Context, limit int) ([]*model.Contact, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := `
		SELECT * FROM contacts
		WHERE status = 'pending'
		ORDER BY contacted_at ASC
		LIMIT $1
	`
	var contacts []*model.Contact
	if err := r.db.SelectContext(ctx, &contacts, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list pending contacts: %w", err)
	}
	return contacts, nil
}

func (r *contactRepository) ListPendingExpired(ctx context.Context, asOf time.Time, limit int) ([]*model.Contact, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := `
		SELECT * FROM contacts
		WHERE status = 'pending' AND expires_at IS NOT NULL AND expires_at < $1
		ORDER BY expires_at ASC
		LIMIT $2
	`
	var contacts []*model.Contact
	if err := r.db.SelectContext(ctx, &contacts, query, asOf, limit); err != nil {
		return nil, fmt.Errorf("failed to list expired contacts: %w", err)
	}
	return contacts, nil
}

func (r *contactRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*model.Contact, error) {
	query := `SELECT * FROM contacts WHERE campaign_id = $1 ORDER BY contacted_at DESC`
	var contacts []*model.Contact
	if err := r.db.SelectContext(ctx, &contacts, query, campaignID); err != nil {
		return nil, fmt.Errorf("failed to list campaign contacts: %w", err)
	}
	return contacts, nil
}
