package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lavapop/outreach-api/internal/model"
)

// All repository interfaces in one file. Lookups that may legitimately find
// nothing (FindQueued, LastContact, FirstAfter...) return (nil, nil) instead
// of an error so callers can branch without unwrapping.
type (
	CustomerRepository interface {
		Get(ctx context.Context, doc string) (*model.Customer, error)
		// Upsert inserts or updates a customer profile. Computed metrics
		// never regress: date facts take the later value, count facts the
		// greater one; plain profile fields always update.
		Upsert(ctx context.Context, customer *model.Customer) error
		Update(ctx context.Context, customer *model.Customer) error
		List(ctx context.Context) ([]*model.Customer, error)
		SetOptedOut(ctx context.Context, doc string, at time.Time) error
	}

	TransactionRepository interface {
		Create(ctx context.Context, tx *model.Transaction) error
		ExistsByHash(ctx context.Context, hash string) (bool, error)
		// FirstAfter returns the earliest transaction strictly after the
		// given instant, or nil.
		FirstAfter(ctx context.Context, doc string, after time.Time) (*model.Transaction, error)
		SumPaidBetween(ctx context.Context, doc string, from, to time.Time) (float64, error)
		FirstCouponUseAfter(ctx context.Context, doc, code string, after time.Time) (*model.Transaction, error)
		AggregateFacts(ctx context.Context, doc string, recentFloor time.Time) (*model.VisitFacts, error)
	}

	ContactRepository interface {
		Create(ctx context.Context, contact *model.Contact) error
		Update(ctx context.Context, contact *model.Contact) error
		Get(ctx context.Context, id uuid.UUID) (*model.Contact, error)
		GetByTransportMsgID(ctx context.Context, msgID string) (*model.Contact, error)
		// FindQueued returns the placeholder row reserved for this
		// customer+campaign pair, or nil.
		FindQueued(ctx context.Context, doc string, campaignID uuid.UUID) (*model.Contact, error)
		// LastContact returns the most recent non-cancelled contact of any
		// type, or nil.
		LastContact(ctx context.Context, doc string) (*model.Contact, error)
		LastContactOfType(ctx context.Context, doc, campaignType string) (*model.Contact, error)
		// LastOptOutAt returns when the customer most recently answered a
		// contact with an opt-out, or nil.
		LastOptOutAt(ctx context.Context, doc string) (*time.Time, error)
		ListPending(ctx context.Context, limit int) ([]*model.Contact, error)
		ListPendingExpired(ctx context.Context, asOf time.Time, limit int) ([]*model.Contact, error)
		ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*model.Contact, error)
	}

	CampaignRepository interface {
		Create(ctx context.Context, campaign *model.Campaign) error
		Update(ctx context.Context, campaign *model.Campaign) error
		Get(ctx context.Context, id uuid.UUID) (*model.Campaign, error)
		List(ctx context.Context) ([]*model.Campaign, error)
		IncrementSent(ctx context.Context, id uuid.UUID, at time.Time) error
		IncrementReturned(ctx context.Context, id uuid.UUID, revenue float64) error
	}

	AutomationRuleRepository interface {
		Create(ctx context.Context, rule *model.AutomationRule) error
		Update(ctx context.Context, rule *model.AutomationRule) error
		Get(ctx context.Context, id uuid.UUID) (*model.AutomationRule, error)
		List(ctx context.Context, enabledOnly bool) ([]*model.AutomationRule, error)
		// GetEnabledByKind returns the enabled rule for a kind, or nil. The
		// rule's cooldown takes precedence over the configured per-type
		// default.
		GetEnabledByKind(ctx context.Context, kind model.RuleKind) (*model.AutomationRule, error)
		LinkCampaign(ctx context.Context, ruleID, campaignID uuid.UUID) error
	}

	BlacklistRepository interface {
		Add(ctx context.Context, entry *model.BlacklistEntry) error
		Remove(ctx context.Context, phone string) error
		List(ctx context.Context) ([]*model.BlacklistEntry, error)
		Exists(ctx context.Context, phone string) (bool, error)
	}

	SettingsRepository interface {
		Get(ctx context.Context) (*model.AppSettings, error)
	}

	// LedgerRepository persists one ingested transaction together with the
	// resulting customer state as a single atomic unit of work.
	LedgerRepository interface {
		SaveIngest(ctx context.Context, tx *model.Transaction, customer *model.Customer) error
	}
)
