package campaign

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavapop/outreach-api/internal/model"
	"github.com/lavapop/outreach-api/internal/repository/memory"
	apperrors "github.com/lavapop/outreach-api/pkg/errors"
)

func newTestService(t *testing.T) (*Service, *memory.AutomationRuleRepository, *memory.CampaignRepository) {
	t.Helper()
	rules := memory.NewAutomationRuleRepository()
	campaigns := memory.NewCampaignRepository()
	return NewService(rules, campaigns), rules, campaigns
}

func TestEnsureCampaignCreatesAndLinks(t *testing.T) {
	svc, rules, campaigns := newTestService(t)
	ctx := context.Background()

	rule := &model.AutomationRule{
		Base:    model.Base{ID: uuid.New()},
		Name:    "Winback 30d",
		Kind:    model.RuleWinback,
		Enabled: true,
	}
	require.NoError(t, rules.Create(ctx, rule))

	id, err := svc.EnsureCampaign(ctx, rule.ID)
	require.NoError(t, err)

	campaign, err := campaigns.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, campaign)
	assert.Equal(t, "Winback 30d", campaign.Name)
	assert.Equal(t, "winback", campaign.Type)
	assert.Equal(t, model.CampaignActive, campaign.Status)
	require.NotNil(t, campaign.SourceRuleID)
	assert.Equal(t, rule.ID, *campaign.SourceRuleID)

	linked, err := rules.Get(ctx, rule.ID)
	require.NoError(t, err)
	require.NotNil(t, linked.CampaignID)
	assert.Equal(t, id, *linked.CampaignID)
}

func TestEnsureCampaignIsIdempotent(t *testing.T) {
	svc, rules, campaigns := newTestService(t)
	ctx := context.Background()

	rule := &model.AutomationRule{
		Base:    model.Base{ID: uuid.New()},
		Name:    "VIP thanks",
		Kind:    model.RuleVIP,
		Enabled: true,
	}
	require.NoError(t, rules.Create(ctx, rule))

	first, err := svc.EnsureCampaign(ctx, rule.ID)
	require.NoError(t, err)
	second, err := svc.EnsureCampaign(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	all, err := campaigns.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEnsureCampaignRefreshesMirroredFields(t *testing.T) {
	svc, rules, campaigns := newTestService(t)
	ctx := context.Background()

	coupon := "VOLTA10"
	rule := &model.AutomationRule{
		Base:          model.Base{ID: uuid.New()},
		Name:          "Winback 30d",
		Kind:          model.RuleWinback,
		Enabled:       true,
		CouponCode:    &coupon,
		CouponPercent: 10,
	}
	require.NoError(t, rules.Create(ctx, rule))

	id, err := svc.EnsureCampaign(ctx, rule.ID)
	require.NoError(t, err)

	rule.Name = "Winback 45d"
	rule.Enabled = false
	require.NoError(t, rules.Update(ctx, rule))

	again, err := svc.EnsureCampaign(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	campaign, err := campaigns.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Winback 45d", campaign.Name)
	assert.Equal(t, model.CampaignPaused, campaign.Status)
	require.NotNil(t, campaign.CouponCode)
	assert.Equal(t, "VOLTA10", *campaign.CouponCode)
}

func TestEnsureCampaignUnknownRule(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.EnsureCampaign(context.Background(), uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateRuleMirrorsImmediately(t *testing.T) {
	svc, rules, campaigns := newTestService(t)
	ctx := context.Background()

	rule := &model.AutomationRule{
		Name:    "Welcome",
		Kind:    model.RuleWelcome,
		Enabled: true,
	}
	require.NoError(t, svc.CreateRule(ctx, rule))
	assert.NotEqual(t, uuid.Nil, rule.ID)

	stored, err := rules.Get(ctx, rule.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CampaignID)

	campaign, err := campaigns.Get(ctx, *stored.CampaignID)
	require.NoError(t, err)
	require.NotNil(t, campaign)
	assert.Equal(t, "Welcome", campaign.Name)
}

func TestUpdateRulePreservesCampaignLink(t *testing.T) {
	svc, rules, _ := newTestService(t)
	ctx := context.Background()

	rule := &model.AutomationRule{
		Name:    "Churn saver",
		Kind:    model.RuleChurnRisk,
		Enabled: true,
	}
	require.NoError(t, svc.CreateRule(ctx, rule))
	stored, err := rules.Get(ctx, rule.ID)
	require.NoError(t, err)
	originalCampaign := *stored.CampaignID

	edit := &model.AutomationRule{
		Base:         model.Base{ID: rule.ID},
		Name:         "Churn saver v2",
		Kind:         model.RuleChurnRisk,
		Enabled:      true,
		CooldownDays: 10,
	}
	require.NoError(t, svc.UpdateRule(ctx, edit))

	stored, err = rules.Get(ctx, rule.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CampaignID)
	assert.Equal(t, originalCampaign, *stored.CampaignID)
	assert.Equal(t, 10, stored.CooldownDays)
}
