package model

import "time"

// Churn-risk tiers derived from visit-cadence decay.
type RiskTier string

const (
	RiskHealthy  RiskTier = "healthy"
	RiskMonitor  RiskTier = "monitor"
	RiskAtRisk   RiskTier = "at_risk"
	RiskChurning RiskTier = "churning"
	RiskLost     RiskTier = "lost"
	RiskNew      RiskTier = "new_customer"
)

// RFM segments, first-match precedence. Champion is the VIP tier.
type Segment string

const (
	SegmentNewcomer  Segment = "newcomer"
	SegmentChampion  Segment = "champion"
	SegmentLoyal     Segment = "loyal"
	SegmentPotential Segment = "potential"
	SegmentCooling   Segment = "cooling"
	SegmentInactive  Segment = "inactive"
)

// Customer is the authoritative record of transaction-derived facts for one
// person, keyed by normalized CPF. The computed block (scores, segment, risk)
// is only ever written by the segment service; every other writer touches raw
// facts and lets reclassification follow.
type Customer struct {
	Doc          string     `db:"doc" json:"doc"`
	Name         string     `db:"name" json:"name"`
	Phone        string     `db:"phone" json:"phone"`
	Email        string     `db:"email" json:"email"`
	RegisteredAt *time.Time `db:"registered_at" json:"registered_at"`

	WalletBalance float64 `db:"wallet_balance" json:"wallet_balance"`

	// Visit summary
	FirstVisit       *time.Time `db:"first_visit" json:"first_visit"`
	LastVisit        *time.Time `db:"last_visit" json:"last_visit"`
	TransactionCount int        `db:"transaction_count" json:"transaction_count"`
	TotalSpent       float64    `db:"total_spent" json:"total_spent"`
	Spent90d         float64    `db:"spent_90d" json:"spent_90d"`
	AvgDaysBetween   *float64   `db:"avg_days_between" json:"avg_days_between"`

	// Computed by the classifier
	RecencyScore     int      `db:"recency_score" json:"recency_score"`
	FrequencyScore   int      `db:"frequency_score" json:"frequency_score"`
	MonetaryScore    int      `db:"monetary_score" json:"monetary_score"`
	Segment          Segment  `db:"segment" json:"segment"`
	RiskTier         RiskTier `db:"risk_tier" json:"risk_tier"`
	ReturnLikelihood float64  `db:"return_likelihood" json:"return_likelihood"`

	// One-time automation markers, checked by the driver before eligibility
	WelcomeSentAt       *time.Time `db:"welcome_sent_at" json:"welcome_sent_at"`
	PostVisitSentAt     *time.Time `db:"post_visit_sent_at" json:"post_visit_sent_at"`
	LastAnniversaryYear *int       `db:"last_anniversary_year" json:"last_anniversary_year"`

	OptedOutAt *time.Time `db:"opted_out_at" json:"opted_out_at"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
