package campaign

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lavapop/outreach-api/internal/model"
	"github.com/lavapop/outreach-api/internal/repository"
	"github.com/lavapop/outreach-api/pkg/errors"
)

// Namespace for deriving a campaign id from a rule id. Deterministic ids
// mean re-syncing a rule can never mint a second campaign.
var campaignNamespace = uuid.MustParse("7c9a1e3b-5d42-4b8a-9f06-2e8c4a7d1b50")

// Service keeps each automation rule mirrored as exactly one campaign so
// manual and automated outreach share a single reporting surface.
type Service struct {
	rules     repository.AutomationRuleRepository
	campaigns repository.CampaignRepository
}

func NewService(rules repository.AutomationRuleRepository, campaigns repository.CampaignRepository) *Service {
	return &Service{rules: rules, campaigns: campaigns}
}

// EnsureCampaign guarantees the rule has a linked campaign with fresh
// mirrored fields and returns its id. An unknown rule id is a caller bug.
func (s *Service) EnsureCampaign(ctx context.Context, ruleID uuid.UUID) (uuid.UUID, error) {
	rule, err := s.rules.Get(ctx, ruleID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load rule: %w", err)
	}
	if rule == nil {
		return uuid.Nil, errors.NewNotFound("automation rule", nil)
	}

	if rule.CampaignID != nil {
		campaign, err := s.campaigns.Get(ctx, *rule.CampaignID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to load campaign: %w", err)
		}
		if campaign != nil {
			mirror(campaign, rule)
			if err := s.campaigns.Update(ctx, campaign); err != nil {
				return uuid.Nil, fmt.Errorf("failed to refresh campaign: %w", err)
			}
			return campaign.ID, nil
		}
		// Dangling reference: fall through and recreate.
	}

	campaignID := uuid.NewSHA1(campaignNamespace, ruleID[:])
	campaign := &model.Campaign{
		Base:         model.Base{ID: campaignID},
		SourceRuleID: &rule.ID,
	}
	mirror(campaign, rule)

	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	if err := s.rules.LinkCampaign(ctx, rule.ID, campaignID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to link campaign: %w", err)
	}
	return campaignID, nil
}

// CreateRule persists a new automation rule and immediately mirrors it.
func (s *Service) CreateRule(ctx context.Context, rule *model.AutomationRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	if err := s.rules.Create(ctx, rule); err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}
	if _, err := s.EnsureCampaign(ctx, rule.ID); err != nil {
		return fmt.Errorf("failed to mirror rule: %w", err)
	}
	return nil
}

// UpdateRule persists rule changes and refreshes the mirrored campaign.
func (s *Service) UpdateRule(ctx context.Context, rule *model.AutomationRule) error {
	existing, err := s.rules.Get(ctx, rule.ID)
	if err != nil {
		return fmt.Errorf("failed to load rule: %w", err)
	}
	if existing == nil {
		return errors.NewNotFound("automation rule", nil)
	}
	rule.CampaignID = existing.CampaignID

	if err := s.rules.Update(ctx, rule); err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}
	if _, err := s.EnsureCampaign(ctx, rule.ID); err != nil {
		return fmt.Errorf("failed to mirror rule: %w", err)
	}
	return nil
}

func (s *Service) GetCampaign(ctx context.Context, id uuid.UUID) (*model.Campaign, error) {
	campaign, err := s.campaigns.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	if campaign == nil {
		return nil, errors.NewNotFound("campaign", nil)
	}
	return campaign, nil
}

func (s *Service) ListCampaigns(ctx context.Context) ([]*model.Campaign, error) {
	return s.campaigns.List(ctx)
}

func (s *Service) ListRules(ctx context.Context, enabledOnly bool) ([]*model.AutomationRule, error) {
	return s.rules.List(ctx, enabledOnly)
}

func (s *Service) GetRule(ctx context.Context, id uuid.UUID) (*model.AutomationRule, error) {
	rule, err := s.rules.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	if rule == nil {
		return nil, errors.NewNotFound("automation rule", nil)
	}
	return rule, nil
}

func mirror(campaign *model.Campaign, rule *model.AutomationRule) {
	campaign.Name = rule.Name
	campaign.Type = string(rule.Kind)
	campaign.Audience = audienceFor(rule)
	campaign.CouponCode = rule.CouponCode
	campaign.CouponPercent = rule.CouponPercent
	campaign.CouponValidityDays = rule.CouponValidityDays
	if rule.Enabled {
		campaign.Status = model.CampaignActive
	} else {
		campaign.Status = model.CampaignPaused
	}
}

func audienceFor(rule *model.AutomationRule) string {
	switch rule.Kind {
	case model.RuleWelcome:
		return "first-visit customers"
	case model.RulePostVisit:
		return "customers after a visit"
	case model.RuleAnniversary:
		return "registration anniversary"
	case model.RuleChurnRisk:
		return fmt.Sprintf("return likelihood below %.0f", rule.TriggerThreshold)
	case model.RuleWinback:
		return fmt.Sprintf("inactive for %.0f+ days", rule.TriggerThreshold)
	case model.RuleVIP:
		return fmt.Sprintf("lifetime spend above %.0f", rule.TriggerThreshold)
	default:
		return "custom audience"
	}
}
