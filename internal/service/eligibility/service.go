package eligibility

import (
	"context"
	"fmt"
	"time"

	"github.com/lavapop/outreach-api/internal/config"
	"github.com/lavapop/outreach-api/internal/model"
	"github.com/lavapop/outreach-api/internal/repository"
	"github.com/lavapop/outreach-api/pkg/dateutil"
	"github.com/lavapop/outreach-api/pkg/errors"
	"github.com/lavapop/outreach-api/pkg/validator"
)

// Service answers "may this customer be contacted right now". Checks run in
// a fixed order and short-circuit: blacklist, opt-out, global cooldown,
// type cooldown. One-time automations (welcome, post-visit, anniversary) are
// gated by markers on the Customer before this service is consulted, so they
// never participate in type cooldowns here.
type Service struct {
	customers repository.CustomerRepository
	contacts  repository.ContactRepository
	blacklist repository.BlacklistRepository
	rules     repository.AutomationRuleRepository
	cooldowns config.CooldownConfig
	loc       *time.Location
}

func NewService(
	customers repository.CustomerRepository,
	contacts repository.ContactRepository,
	blacklist repository.BlacklistRepository,
	rules repository.AutomationRuleRepository,
	cooldowns config.CooldownConfig,
	loc *time.Location,
) *Service {
	return &Service{
		customers: customers,
		contacts:  contacts,
		blacklist: blacklist,
		rules:     rules,
		cooldowns: cooldowns,
		loc:       loc,
	}
}

func (s *Service) Check(ctx context.Context, doc, campaignType string, bypassGlobal bool) (*model.Verdict, error) {
	customer, err := s.customers.Get(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if customer == nil {
		return nil, errors.NewNotFound("customer", nil)
	}

	now := time.Now()
	verdict := &model.Verdict{Doc: doc}

	// 1. Blacklisted phone is a hard stop, bypass or not.
	if customer.Phone != "" {
		blocked, err := s.blacklist.Exists(ctx, validator.NormalizePhone(customer.Phone))
		if err != nil {
			return nil, fmt.Errorf("failed to check blacklist: %w", err)
		}
		if blocked {
			verdict.Reason = model.ReasonBlacklisted
			return verdict, nil
		}
	}

	// 2. An explicit opt-out response blocks for the configured window.
	optOutAt, err := s.lastOptOut(ctx, customer)
	if err != nil {
		return nil, err
	}
	if optOutAt != nil && dateutil.DaysBetween(*optOutAt, now, s.loc) < s.cooldowns.OptOutDays {
		verdict.Reason = model.ReasonOptedOut
		verdict.CooldownDays = s.cooldowns.OptOutDays
		return verdict, nil
	}

	// 3. Global cooldown over the most recent non-cancelled contact of any
	// type.
	last, err := s.contacts.LastContact(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to load last contact: %w", err)
	}
	if last != nil {
		days := dateutil.DaysBetween(last.ContactedAt, now, s.loc)
		verdict.LastContactAt = &last.ContactedAt
		verdict.DaysSinceContact = &days

		if !bypassGlobal && days < s.cooldowns.GlobalMinDays {
			verdict.Reason = model.ReasonGlobalCooldown
			verdict.CooldownDays = s.cooldowns.GlobalMinDays
			return verdict, nil
		}
	}

	// 4. Type-specific cooldown, independent of contacts of other types.
	if campaignType != "" && !model.RuleKind(campaignType).IsOneTime() {
		cooldownDays, err := s.typeCooldown(ctx, campaignType)
		if err != nil {
			return nil, err
		}
		if cooldownDays > 0 {
			lastOfType, err := s.contacts.LastContactOfType(ctx, doc, campaignType)
			if err != nil {
				return nil, fmt.Errorf("failed to load last contact of type: %w", err)
			}
			if lastOfType != nil {
				days := dateutil.DaysBetween(lastOfType.ContactedAt, now, s.loc)
				if days < cooldownDays {
					verdict.Reason = model.ReasonTypeCooldown
					verdict.CooldownDays = cooldownDays
					verdict.LastContactAt = &lastOfType.ContactedAt
					verdict.DaysSinceContact = &days
					return verdict, nil
				}
			}
		}
	}

	verdict.Eligible = true
	verdict.Reason = model.ReasonEligible
	return verdict, nil
}

// CheckBatch evaluates each customer independently; there is no
// cross-customer interaction, the batch form exists for throughput.
func (s *Service) CheckBatch(ctx context.Context, docs []string, campaignType string, bypassGlobal bool) ([]*model.Verdict, error) {
	verdicts := make([]*model.Verdict, 0, len(docs))
	for _, doc := range docs {
		v, err := s.Check(ctx, doc, campaignType, bypassGlobal)
		if err != nil {
			return nil, fmt.Errorf("check failed for %s: %w", doc, err)
		}
		verdicts = append(verdicts, v)
	}
	return verdicts, nil
}

// typeCooldown resolves the effective cooldown for a campaign type: a value
// configured on the enabling rule always wins, the per-type default from
// config is the fallback.
func (s *Service) typeCooldown(ctx context.Context, campaignType string) (int, error) {
	rule, err := s.rules.GetEnabledByKind(ctx, model.RuleKind(campaignType))
	if err != nil {
		return 0, fmt.Errorf("failed to load rule for type: %w", err)
	}
	if rule != nil && rule.CooldownDays > 0 {
		return rule.CooldownDays, nil
	}
	return s.cooldowns.TypeDefaults[campaignType], nil
}

func (s *Service) lastOptOut(ctx context.Context, customer *model.Customer) (*time.Time, error) {
	fromContacts, err := s.contacts.LastOptOutAt(ctx, customer.Doc)
	if err != nil {
		return nil, fmt.Errorf("failed to load opt-out: %w", err)
	}
	latest := customer.OptedOutAt
	if fromContacts != nil && (latest == nil || fromContacts.After(*latest)) {
		latest = fromContacts
	}
	return latest, nil
}
