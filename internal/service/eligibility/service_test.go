package eligibility

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavapop/outreach-api/internal/config"
	"github.com/lavapop/outreach-api/internal/model"
	"github.com/lavapop/outreach-api/internal/repository/memory"
)

type fixture struct {
	svc       *Service
	customers *memory.CustomerRepository
	contacts  *memory.ContactRepository
	blacklist *memory.BlacklistRepository
	rules     *memory.AutomationRuleRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	f := &fixture{
		customers: memory.NewCustomerRepository(),
		contacts:  memory.NewContactRepository(),
		blacklist: memory.NewBlacklistRepository(),
		rules:     memory.NewAutomationRuleRepository(),
	}
	f.svc = NewService(f.customers, f.contacts, f.blacklist, f.rules, config.CooldownConfig{
		GlobalMinDays: 5,
		OptOutDays:    90,
		TypeDefaults:  map[string]int{"winback": 30, "churn_risk": 14},
	}, loc)
	return f
}

func (f *fixture) addCustomer(t *testing.T, doc, phone string) {
	t.Helper()
	require.NoError(t, f.customers.Update(context.Background(), &model.Customer{
		Doc:   doc,
		Phone: phone,
	}))
}

func (f *fixture) addContact(t *testing.T, doc, campaignType string, contactedAt time.Time, status model.ContactStatus) *model.Contact {
	t.Helper()
	c := &model.Contact{
		Base:         model.Base{ID: uuid.New(), CreatedAt: contactedAt},
		Doc:          doc,
		CampaignType: campaignType,
		ContactedAt:  contactedAt,
		Status:       status,
	}
	require.NoError(t, f.contacts.Create(context.Background(), c))
	return c
}

func TestCheckEligibleWithNoHistory(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "11122233344", "11987654321")

	v, err := f.svc.Check(context.Background(), "11122233344", "", false)
	require.NoError(t, err)
	assert.True(t, v.Eligible)
	assert.Equal(t, model.ReasonEligible, v.Reason)
	assert.Nil(t, v.LastContactAt)
}

func TestCheckUnknownCustomer(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Check(context.Background(), "00000000000", "", false)
	assert.Error(t, err)
}

func TestBlacklistIsHardStop(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "11122233344", "11987654321")
	require.NoError(t, f.blacklist.Add(context.Background(), &model.BlacklistEntry{Phone: "5511987654321"}))

	// Blocked regardless of history or bypass flag
	for _, bypass := range []bool{false, true} {
		v, err := f.svc.Check(context.Background(), "11122233344", "winback", bypass)
		require.NoError(t, err)
		assert.False(t, v.Eligible)
		assert.Equal(t, model.ReasonBlacklisted, v.Reason)
	}
}

func TestOptOutBlocksFor90Days(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "11122233344", "11987654321")

	respondedAt := time.Now().AddDate(0, 0, -30)
	optedOut := model.ResponseOptedOut
	c := f.addContact(t, "11122233344", "winback", time.Now().AddDate(0, 0, -31), model.ContactReturned)
	c.ResponseStatus = &optedOut
	c.RespondedAt = &respondedAt
	require.NoError(t, f.contacts.Update(context.Background(), c))

	v, err := f.svc.Check(context.Background(), "11122233344", "", false)
	require.NoError(t, err)
	assert.False(t, v.Eligible)
	assert.Equal(t, model.ReasonOptedOut, v.Reason)
	assert.Equal(t, 90, v.CooldownDays)
}

func TestOptOutExpiresAfter90Days(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "11122233344", "11987654321")

	respondedAt := time.Now().AddDate(0, 0, -91)
	optedOut := model.ResponseOptedOut
	c := f.addContact(t, "11122233344", "winback", time.Now().AddDate(0, 0, -95), model.ContactReturned)
	c.ResponseStatus = &optedOut
	c.RespondedAt = &respondedAt
	require.NoError(t, f.contacts.Update(context.Background(), c))

	v, err := f.svc.Check(context.Background(), "11122233344", "", false)
	require.NoError(t, err)
	assert.True(t, v.Eligible)
}

func TestGlobalCooldownBlocksWithDayMath(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "11122233344", "11987654321")
	f.addContact(t, "11122233344", "winback", time.Now().AddDate(0, 0, -3), model.ContactPending)

	v, err := f.svc.Check(context.Background(), "11122233344", "", false)
	require.NoError(t, err)
	assert.False(t, v.Eligible)
	assert.Equal(t, model.ReasonGlobalCooldown, v.Reason)
	assert.Equal(t, 5, v.CooldownDays)
	require.NotNil(t, v.DaysSinceContact)
	assert.Equal(t, 3, *v.DaysSinceContact)
}

func TestGlobalCooldownBypass(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "11122233344", "11987654321")
	f.addContact(t, "11122233344", "winback", time.Now().AddDate(0, 0, -3), model.ContactPending)

	v, err := f.svc.Check(context.Background(), "11122233344", "", true)
	require.NoError(t, err)
	assert.True(t, v.Eligible)
}

func TestCancelledContactsDoNotCount(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "11122233344", "11987654321")
	f.addContact(t, "11122233344", "winback", time.Now().AddDate(0, 0, -1), model.ContactCancelled)

	v, err := f.svc.Check(context.Background(), "11122233344", "", false)
	require.NoError(t, err)
	assert.True(t, v.Eligible)
}

func TestTypeCooldownIgnoresOtherTypes(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "11122233344", "11987654321")
	// A churn_risk contact 20 days ago: past global cooldown, inside the
	// winback default (30d) but of a different type.
	f.addContact(t, "11122233344", "churn_risk", time.Now().AddDate(0, 0, -20), model.ContactReturned)

	v, err := f.svc.Check(context.Background(), "11122233344", "winback", false)
	require.NoError(t, err)
	assert.True(t, v.Eligible)
}

func TestTypeCooldownBlocksSameType(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "11122233344", "11987654321")
	f.addContact(t, "11122233344", "winback", time.Now().AddDate(0, 0, -20), model.ContactReturned)

	v, err := f.svc.Check(context.Background(), "11122233344", "winback", false)
	require.NoError(t, err)
	assert.False(t, v.Eligible)
	assert.Equal(t, model.ReasonTypeCooldown, v.Reason)
	assert.Equal(t, 30, v.CooldownDays)
}

func TestRuleCooldownWinsOverDefault(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "11122233344", "11987654321")
	f.addContact(t, "11122233344", "winback", time.Now().AddDate(0, 0, -20), model.ContactReturned)

	// Rule shortens the winback cooldown from the 30d default to 15d.
	require.NoError(t, f.rules.Create(context.Background(), &model.AutomationRule{
		Base:         model.Base{ID: uuid.New()},
		Kind:         model.RuleWinback,
		Enabled:      true,
		CooldownDays: 15,
	}))

	v, err := f.svc.Check(context.Background(), "11122233344", "winback", false)
	require.NoError(t, err)
	assert.True(t, v.Eligible)
}

func TestOneTimeTypesSkipTypeCooldown(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "11122233344", "11987654321")
	f.addContact(t, "11122233344", "welcome", time.Now().AddDate(0, 0, -10), model.ContactReturned)

	// Welcome is marker-gated, not cooldown-gated; past the global window
	// the old welcome contact must not block.
	v, err := f.svc.Check(context.Background(), "11122233344", "welcome", false)
	require.NoError(t, err)
	assert.True(t, v.Eligible)
}

func TestCheckBatchIndependentVerdicts(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "11122233344", "11987654321")
	f.addCustomer(t, "55566677788", "11912345678")
	f.addContact(t, "11122233344", "winback", time.Now().AddDate(0, 0, -2), model.ContactPending)

	verdicts, err := f.svc.CheckBatch(context.Background(), []string{"11122233344", "55566677788"}, "", false)
	require.NoError(t, err)
	require.Len(t, verdicts, 2)
	assert.False(t, verdicts[0].Eligible)
	assert.True(t, verdicts[1].Eligible)
}
