// Package memory holds in-memory repository implementations. The eligibility
// checker, recorder and detectors are tested against these instead of a live
// Postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lavapop/outreach-api/internal/model"
)

type CustomerRepository struct {
	mu        sync.RWMutex
	customers map[string]*model.Customer
}

func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{customers: make(map[string]*model.Customer)}
}

func (r *CustomerRepository) Get(_ context.Context, doc string) (*model.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.customers[doc]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *CustomerRepository) Upsert(_ context.Context, customer *model.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.customers[customer.Doc]
	if !ok {
		cp := *customer
		r.customers[customer.Doc] = &cp
		return nil
	}

	existing.Name = customer.Name
	existing.Phone = customer.Phone
	existing.Email = customer.Email
	existing.WalletBalance = customer.WalletBalance
	existing.FirstVisit = earlier(existing.FirstVisit, customer.FirstVisit)
	existing.LastVisit = later(existing.LastVisit, customer.LastVisit)
	if customer.TransactionCount > existing.TransactionCount {
		existing.TransactionCount = customer.TransactionCount
	}
	if customer.TotalSpent > existing.TotalSpent {
		existing.TotalSpent = customer.TotalSpent
	}
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *CustomerRepository) Update(_ context.Context, customer *model.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *customer
	cp.UpdatedAt = time.Now()
	r.customers[customer.Doc] = &cp
	return nil
}

func (r *CustomerRepository) List(_ context.Context) ([]*model.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Doc < out[j].Doc })
	return out, nil
}

func (r *CustomerRepository) SetOptedOut(_ context.Context, doc string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.customers[doc]; ok {
		c.OptedOutAt = &at
	}
	return nil
}

type TransactionRepository struct {
	mu  sync.RWMutex
	txs []*model.Transaction
}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{}
}

func (r *TransactionRepository) Create(_ context.Context, tx *model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.txs {
		if t.ImportHash != "" && t.ImportHash == tx.ImportHash {
			return nil
		}
	}
	cp := *tx
	r.txs = append(r.txs, &cp)
	return nil
}

func (r *TransactionRepository) ExistsByHash(_ context.Context, hash string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.txs {
		if t.ImportHash == hash {
			return true, nil
		}
	}
	return false, nil
}

func (r *TransactionRepository) FirstAfter(_ context.Context, doc string, after time.Time) (*model.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var first *model.Transaction
	for _, t := range r.txs {
		if t.Doc != doc || !t.OccurredAt.After(after) {
			continue
		}
		if first == nil || t.OccurredAt.Before(first.OccurredAt) {
			first = t
		}
	}
	if first == nil {
		return nil, nil
	}
	cp := *first
	return &cp, nil
}

func (r *TransactionRepository) SumPaidBetween(_ context.Context, doc string, from, to time.Time) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum float64
	for _, t := range r.txs {
		if t.Doc == doc && t.OccurredAt.After(from) && !t.OccurredAt.After(to) {
			sum += t.PaidValue
		}
	}
	return sum, nil
}

func (r *TransactionRepository) FirstCouponUseAfter(_ context.Context, doc, code string, after time.Time) (*model.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var first *model.Transaction
	for _, t := range r.txs {
		if t.Doc != doc || t.CouponCode == nil || *t.CouponCode != code || !t.OccurredAt.After(after) {
			continue
		}
		if first == nil || t.OccurredAt.Before(first.OccurredAt) {
			first = t
		}
	}
	if first == nil {
		return nil, nil
	}
	cp := *first
	return &cp, nil
}

func (r *TransactionRepository) AggregateFacts(_ context.Context, doc string, recentFloor time.Time) (*model.VisitFacts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	facts := &model.VisitFacts{}
	for _, t := range r.txs {
		if t.Doc != doc || t.Type == model.TransactionWalletRecharge {
			continue
		}
		occurred := t.OccurredAt
		if facts.FirstVisit == nil || occurred.Before(*facts.FirstVisit) {
			v := occurred
			facts.FirstVisit = &v
		}
		if facts.LastVisit == nil || occurred.After(*facts.LastVisit) {
			v := occurred
			facts.LastVisit = &v
		}
		facts.TransactionCount++
		facts.TotalSpent += t.GrossValue
		if !occurred.Before(recentFloor) {
			facts.Spent90d += t.GrossValue
		}
	}
	return facts, nil
}

type ContactRepository struct {
	mu       sync.RWMutex
	contacts map[uuid.UUID]*model.Contact
}

func NewContactRepository() *ContactRepository {
	return &ContactRepository{contacts: make(map[uuid.UUID]*model.Contact)}
}

func (r *ContactRepository) Create(_ context.Context, contact *model.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *contact
	r.contacts[contact.ID] = &cp
	return nil
}

func (r *ContactRepository) Update(_ context.Context, contact *model.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *contact
	cp.UpdatedAt = time.Now()
	r.contacts[contact.ID] = &cp
	return nil
}

func (r *ContactRepository) Get(_ context.Context, id uuid.UUID) (*model.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contacts[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *ContactRepository) GetByTransportMsgID(_ context.Context, msgID string) (*model.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.contacts {
		if c.TransportMsgID != nil && *c.TransportMsgID == msgID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *ContactRepository) FindQueued(_ context.Context, doc string, campaignID uuid.UUID) (*model.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found *model.Contact
	for _, c := range r.contacts {
		if c.Doc != doc || c.Status != model.ContactQueued {
			continue
		}
		if c.CampaignID == nil || *c.CampaignID != campaignID {
			continue
		}
		if found == nil || c.CreatedAt.Before(found.CreatedAt) {
			found = c
		}
	}
	if found == nil {
		return nil, nil
	}
	cp := *found
	return &cp, nil
}

func (r *ContactRepository) LastContact(_ context.Context, doc string) (*model.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var last *model.Contact
	for _, c := range r.contacts {
		if c.Doc != doc || c.Status == model.ContactCancelled || c.Status == model.ContactQueued {
			continue
		}
		if last == nil || c.ContactedAt.After(last.ContactedAt) {
			last = c
		}
	}
	if last == nil {
		return nil, nil
	}
	cp := *last
	return &cp, nil
}

func (r *ContactRepository) LastContactOfType(_ context.Context, doc, campaignType string) (*model.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var last *model.Contact
	for _, c := range r.contacts {
		if c.Doc != doc || c.CampaignType != campaignType {
			continue
		}
		if c.Status == model.ContactCancelled || c.Status == model.ContactQueued {
			continue
		}
		if last == nil || c.ContactedAt.After(last.ContactedAt) {
			last = c
		}
	}
	if last == nil {
		return nil, nil
	}
	cp := *last
	return &cp, nil
}

func (r *ContactRepository) LastOptOutAt(_ context.Context, doc string) (*time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var last *time.Time
	for _, c := range r.contacts {
		if c.Doc != doc || c.ResponseStatus == nil || *c.ResponseStatus != model.ResponseOptedOut {
			continue
		}
		if c.RespondedAt == nil {
			continue
		}
		if last == nil || c.RespondedAt.After(*last) {
			v := *c.RespondedAt
			last = &v
		}
	}
	return last, nil
}

func (r *ContactRepository) ListPending(_ context.Context, limit int) ([]*model.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Contact
	for _, c := range r.contacts {
		if c.Status == model.ContactPending {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ContactedAt.Before(out[j].ContactedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ContactRepository) ListPendingExpired(_ context.Context, asOf time.Time, limit int) ([]*model.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Contact
	for _, c := range r.contacts {
		if c.Status == model.ContactPending && c.ExpiresAt != nil && c.ExpiresAt.Before(asOf) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(*out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ContactRepository) ListByCampaign(_ context.Context, campaignID uuid.UUID) ([]*model.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Contact
	for _, c := range r.contacts {
		if c.CampaignID != nil && *c.CampaignID == campaignID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ContactedAt.After(out[j].ContactedAt) })
	return out, nil
}

// Count returns the number of stored contacts, for test assertions.
func (r *ContactRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.contacts)
}

type CampaignRepository struct {
	mu        sync.RWMutex
	campaigns map[uuid.UUID]*model.Campaign
}

func NewCampaignRepository() *CampaignRepository {
	return &CampaignRepository{campaigns: make(map[uuid.UUID]*model.Campaign)}
}

func (r *CampaignRepository) Create(_ context.Context, campaign *model.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *campaign
	r.campaigns[campaign.ID] = &cp
	return nil
}

func (r *CampaignRepository) Update(_ context.Context, campaign *model.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.campaigns[campaign.ID]
	if !ok {
		cp := *campaign
		r.campaigns[campaign.ID] = &cp
		return nil
	}
	existing.Name = campaign.Name
	existing.Type = campaign.Type
	existing.Status = campaign.Status
	existing.Audience = campaign.Audience
	existing.CouponCode = campaign.CouponCode
	existing.CouponPercent = campaign.CouponPercent
	existing.CouponValidityDays = campaign.CouponValidityDays
	existing.ABVariant = campaign.ABVariant
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *CampaignRepository) Get(_ context.Context, id uuid.UUID) (*model.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *CampaignRepository) List(_ context.Context) ([]*model.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Campaign, 0, len(r.campaigns))
	for _, c := range r.campaigns {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *CampaignRepository) IncrementSent(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.campaigns[id]; ok {
		c.SentCount++
		if c.LastSentAt == nil || at.After(*c.LastSentAt) {
			v := at
			c.LastSentAt = &v
		}
	}
	return nil
}

func (r *CampaignRepository) IncrementReturned(_ context.Context, id uuid.UUID, revenue float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.campaigns[id]; ok {
		c.ReturnedCount++
		c.AttributedRevenue += revenue
	}
	return nil
}

type AutomationRuleRepository struct {
	mu    sync.RWMutex
	rules map[uuid.UUID]*model.AutomationRule
}

func NewAutomationRuleRepository() *AutomationRuleRepository {
	return &AutomationRuleRepository{rules: make(map[uuid.UUID]*model.AutomationRule)}
}

func (r *AutomationRuleRepository) Create(_ context.Context, rule *model.AutomationRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rule
	r.rules[rule.ID] = &cp
	return nil
}

func (r *AutomationRuleRepository) Update(_ context.Context, rule *model.AutomationRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rule
	cp.UpdatedAt = time.Now()
	r.rules[rule.ID] = &cp
	return nil
}

func (r *AutomationRuleRepository) Get(_ context.Context, id uuid.UUID) (*model.AutomationRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	if !ok {
		return nil, nil
	}
	cp := *rule
	return &cp, nil
}

func (r *AutomationRuleRepository) List(_ context.Context, enabledOnly bool) ([]*model.AutomationRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.AutomationRule
	for _, rule := range r.rules {
		if enabledOnly && !rule.Enabled {
			continue
		}
		cp := *rule
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *AutomationRuleRepository) GetEnabledByKind(_ context.Context, kind model.RuleKind) (*model.AutomationRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *model.AutomationRule
	for _, rule := range r.rules {
		if rule.Kind != kind || !rule.Enabled {
			continue
		}
		if latest == nil || rule.UpdatedAt.After(latest.UpdatedAt) {
			latest = rule
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (r *AutomationRuleRepository) LinkCampaign(_ context.Context, ruleID, campaignID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rule, ok := r.rules[ruleID]; ok {
		id := campaignID
		rule.CampaignID = &id
	}
	return nil
}

type BlacklistRepository struct {
	mu      sync.RWMutex
	entries map[string]*model.BlacklistEntry
}

func NewBlacklistRepository() *BlacklistRepository {
	return &BlacklistRepository{entries: make(map[string]*model.BlacklistEntry)}
}

func (r *BlacklistRepository) Add(_ context.Context, entry *model.BlacklistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	r.entries[entry.Phone] = &cp
	return nil
}

func (r *BlacklistRepository) Remove(_ context.Context, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, phone)
	return nil
}

func (r *BlacklistRepository) List(_ context.Context) ([]*model.BlacklistEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.BlacklistEntry, 0, len(r.entries))
	for _, e := range r.entries {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (r *BlacklistRepository) Exists(_ context.Context, phone string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[phone]
	return ok, nil
}

type SettingsRepository struct {
	mu       sync.RWMutex
	settings *model.AppSettings
}

func NewSettingsRepository(settings *model.AppSettings) *SettingsRepository {
	return &SettingsRepository{settings: settings}
}

func (r *SettingsRepository) Get(_ context.Context) (*model.AppSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.settings == nil {
		return nil, nil
	}
	cp := *r.settings
	return &cp, nil
}

// LedgerRepository applies both writes against the underlying fakes. It is
// not atomic, which is fine for tests.
type LedgerRepository struct {
	Transactions *TransactionRepository
	Customers    *CustomerRepository
}

func NewLedgerRepository(txs *TransactionRepository, customers *CustomerRepository) *LedgerRepository {
	return &LedgerRepository{Transactions: txs, Customers: customers}
}

func (r *LedgerRepository) SaveIngest(ctx context.Context, tx *model.Transaction, customer *model.Customer) error {
	if err := r.Transactions.Create(ctx, tx); err != nil {
		return err
	}
	return r.Customers.Update(ctx, customer)
}

func earlier(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil || a.Before(*b) {
		return a
	}
	return b
}

func later(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil || a.After(*b) {
		return a
	}
	return b
}
