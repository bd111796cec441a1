package model

import "time"

// Verdict reasons, in check order.
const (
	ReasonBlacklisted    = "blacklisted"
	ReasonOptedOut       = "opted_out"
	ReasonGlobalCooldown = "global_cooldown"
	ReasonTypeCooldown   = "type_cooldown"
	ReasonEligible       = "eligible"
)

// Verdict is the outcome of one eligibility check.
type Verdict struct {
	Doc              string     `json:"doc"`
	Eligible         bool       `json:"eligible"`
	Reason           string     `json:"reason"`
	LastContactAt    *time.Time `json:"last_contact_at,omitempty"`
	DaysSinceContact *int       `json:"days_since_contact,omitempty"`
	CooldownDays     int        `json:"cooldown_days,omitempty"`
}

type CheckEligibilityRequest struct {
	Doc          string `json:"doc" binding:"required"`
	CampaignType string `json:"campaign_type"`
	BypassGlobal bool   `json:"bypass_global"`
}

type CheckEligibilityBatchRequest struct {
	Docs         []string `json:"docs" binding:"required,min=1"`
	CampaignType string   `json:"campaign_type"`
	BypassGlobal bool     `json:"bypass_global"`
}

// VisitFacts is the aggregate a metrics refresh derives from the transaction
// history.
type VisitFacts struct {
	FirstVisit       *time.Time `db:"first_visit"`
	LastVisit        *time.Time `db:"last_visit"`
	TransactionCount int        `db:"transaction_count"`
	TotalSpent       float64    `db:"total_spent"`
	Spent90d         float64    `db:"spent_90d"`
}
