// Package contact records outreach sends and resolves their outcomes. A
// contact row is the unit the whole engine reasons about: cooldowns read it,
// campaigns count it, the detector closes it.
package contact

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lavapop/outreach-api/internal/config"
	"github.com/lavapop/outreach-api/internal/model"
	"github.com/lavapop/outreach-api/internal/repository"
	"github.com/lavapop/outreach-api/internal/service/campaign"
	"github.com/lavapop/outreach-api/pkg/errors"
	"github.com/lavapop/outreach-api/pkg/logger"
	"github.com/lavapop/outreach-api/pkg/messaging"
	"github.com/lavapop/outreach-api/pkg/metrics"
	"github.com/lavapop/outreach-api/pkg/validator"
)

type Service struct {
	contacts     repository.ContactRepository
	customers    repository.CustomerRepository
	campaigns    repository.CampaignRepository
	rules        repository.AutomationRuleRepository
	transactions repository.TransactionRepository
	sync         *campaign.Service
	broker       messaging.Broker
	metrics      *metrics.Metrics
	attribution  config.AttributionConfig
	loc          *time.Location
	logger       *logger.Logger
}

func NewService(
	contacts repository.ContactRepository,
	customers repository.CustomerRepository,
	campaigns repository.CampaignRepository,
	rules repository.AutomationRuleRepository,
	transactions repository.TransactionRepository,
	sync *campaign.Service,
	broker messaging.Broker,
	m *metrics.Metrics,
	attribution config.AttributionConfig,
	loc *time.Location,
	log *logger.Logger,
) *Service {
	return &Service{
		contacts:     contacts,
		customers:    customers,
		campaigns:    campaigns,
		rules:        rules,
		transactions: transactions,
		sync:         sync,
		broker:       broker,
		metrics:      m,
		attribution:  attribution,
		loc:          loc,
		logger:       log,
	}
}

// RecordAutomation registers one automated send. If a queued placeholder row
// exists for this customer and campaign it is fulfilled in place; a second
// row is never created for the same reservation.
func (s *Service) RecordAutomation(ctx context.Context, req *model.RecordAutomationContactRequest) (*model.Contact, error) {
	if err := validator.Validate(req); err != nil {
		return nil, errors.NewBadRequest("invalid contact request", err)
	}
	ruleID, err := uuid.Parse(req.RuleID)
	if err != nil {
		return nil, errors.NewBadRequest("invalid rule id", err)
	}
	rule, err := s.rules.Get(ctx, ruleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rule: %w", err)
	}
	if rule == nil {
		return nil, errors.NewNotFound("automation rule", nil)
	}

	campaignID, err := s.sync.EnsureCampaign(ctx, rule.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	validity := rule.CouponValidityDays
	if validity <= 0 {
		validity = rule.CooldownDays
	}

	contact, err := s.record(ctx, recordParams{
		doc:            validator.NormalizeCPF(req.Doc),
		name:           req.Name,
		phone:          validator.NormalizePhone(req.Phone),
		campaignID:     campaignID,
		campaignType:   string(rule.Kind),
		couponCode:     rule.CouponCode,
		validityDays:   validity,
		transportMsgID: req.TransportMsgID,
		now:            now,
	})
	if err != nil {
		return nil, err
	}

	if err := s.markOneTime(ctx, contact.Doc, rule.Kind, now); err != nil {
		return nil, err
	}

	s.countRecorded("automation")
	s.publish(ctx, messaging.EventContactRecorded, contact)
	return contact, nil
}

// RecordManual registers a send made outside any automation rule, attributed
// to a campaign directly.
func (s *Service) RecordManual(ctx context.Context, req *model.RecordManualContactRequest) (*model.Contact, error) {
	if err := validator.Validate(req); err != nil {
		return nil, errors.NewBadRequest("invalid contact request", err)
	}
	campaignID, err := uuid.Parse(req.CampaignID)
	if err != nil {
		return nil, errors.NewBadRequest("invalid campaign id", err)
	}
	cmp, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	if cmp == nil {
		return nil, errors.NewNotFound("campaign", nil)
	}

	campaignType := req.CampaignType
	if campaignType == "" {
		campaignType = cmp.Type
	}
	validity := req.CouponValidityDays
	if validity <= 0 {
		validity = cmp.CouponValidityDays
	}
	if validity <= 0 {
		validity = s.attribution.ManualValidityDays
	}

	contact, err := s.record(ctx, recordParams{
		doc:            validator.NormalizeCPF(req.Doc),
		name:           req.Name,
		phone:          validator.NormalizePhone(req.Phone),
		campaignID:     campaignID,
		campaignType:   campaignType,
		couponCode:     cmp.CouponCode,
		validityDays:   validity,
		transportMsgID: req.TransportMsgID,
		now:            time.Now(),
	})
	if err != nil {
		return nil, err
	}

	s.countRecorded("manual")
	s.publish(ctx, messaging.EventContactRecorded, contact)
	return contact, nil
}

// HandleDeliveryCallback applies the transport's verdict for one message. An
// opted-out response starts the customer's hard block immediately.
func (s *Service) HandleDeliveryCallback(ctx context.Context, req *model.DeliveryCallbackRequest) error {
	contact, err := s.contacts.GetByTransportMsgID(ctx, req.TransportMsgID)
	if err != nil {
		return fmt.Errorf("failed to load contact: %w", err)
	}
	if contact == nil {
		return errors.NewNotFound("contact", nil)
	}

	contact.DeliveryStatus = model.DeliveryStatus(req.Status)
	if req.Response != "" {
		now := time.Now()
		response := req.Response
		contact.ResponseStatus = &response
		contact.RespondedAt = &now

		if response == model.ResponseOptedOut {
			if err := s.customers.SetOptedOut(ctx, contact.Doc, now); err != nil {
				return fmt.Errorf("failed to record opt-out: %w", err)
			}
		}
	}

	if err := s.contacts.Update(ctx, contact); err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	return nil
}

func (s *Service) GetContact(ctx context.Context, id uuid.UUID) (*model.Contact, error) {
	contact, err := s.contacts.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	if contact == nil {
		return nil, errors.NewNotFound("contact", nil)
	}
	return contact, nil
}

func (s *Service) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*model.Contact, error) {
	return s.contacts.ListByCampaign(ctx, campaignID)
}

type recordParams struct {
	doc            string
	name           string
	phone          string
	campaignID     uuid.UUID
	campaignType   string
	couponCode     *string
	validityDays   int
	transportMsgID string
	now            time.Time
}

func (s *Service) record(ctx context.Context, p recordParams) (*model.Contact, error) {
	// Expiry covers the coupon validity plus a grace buffer for transactions
	// that post late.
	expires := p.now.AddDate(0, 0, p.validityDays+s.attribution.ExpiryBufferDays)

	customer, err := s.customers.Get(ctx, p.doc)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}

	contact, err := s.contacts.FindQueued(ctx, p.doc, p.campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up queued contact: %w", err)
	}
	fulfilled := contact != nil
	if !fulfilled {
		contact = &model.Contact{
			Base: model.Base{ID: uuid.New(), CreatedAt: p.now},
			Doc:  p.doc,
		}
	}

	campaignID := p.campaignID
	contact.CampaignID = &campaignID
	contact.CampaignType = p.campaignType
	contact.CustomerName = p.name
	contact.Phone = p.phone
	contact.ContactedAt = p.now
	contact.ExpiresAt = &expires
	contact.Status = model.ContactPending
	contact.DeliveryStatus = model.DeliveryQueued
	contact.CouponCode = p.couponCode
	if p.transportMsgID != "" {
		msgID := p.transportMsgID
		contact.TransportMsgID = &msgID
		contact.DeliveryStatus = model.DeliverySent
	}
	if customer != nil {
		contact.RiskTierAtContact = customer.RiskTier
	}

	if fulfilled {
		err = s.contacts.Update(ctx, contact)
	} else {
		err = s.contacts.Create(ctx, contact)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save contact: %w", err)
	}

	if err := s.campaigns.IncrementSent(ctx, p.campaignID, p.now); err != nil {
		return nil, fmt.Errorf("failed to bump campaign counters: %w", err)
	}
	return contact, nil
}

// markOneTime stamps the per-customer marker that gates one-time automations.
func (s *Service) markOneTime(ctx context.Context, doc string, kind model.RuleKind, now time.Time) error {
	if !kind.IsOneTime() {
		return nil
	}
	customer, err := s.customers.Get(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to load customer: %w", err)
	}
	if customer == nil {
		return nil
	}

	switch kind {
	case model.RuleWelcome:
		customer.WelcomeSentAt = &now
	case model.RulePostVisit:
		customer.PostVisitSentAt = &now
	case model.RuleAnniversary:
		year := now.In(s.loc).Year()
		customer.LastAnniversaryYear = &year
	}
	if err := s.customers.Update(ctx, customer); err != nil {
		return fmt.Errorf("failed to save marker: %w", err)
	}
	return nil
}

func (s *Service) countRecorded(source string) {
	if s.metrics != nil {
		s.metrics.ContactsRecorded.WithLabelValues(source).Inc()
	}
}

// publish is best-effort; a broker outage must never block recording.
func (s *Service) publish(ctx context.Context, eventType string, contact *model.Contact) {
	if s.broker == nil {
		return
	}
	msg := messaging.Message{Type: eventType, Payload: contact}
	if err := s.broker.Publish(ctx, messaging.ChannelContacts, msg); err != nil {
		s.logger.Warn("failed to publish contact event", "event", eventType, "error", err.Error())
	}
}
