package model

import (
	"github.com/google/uuid"
)

// Automation rule kinds. Welcome, post-visit and anniversary are one-time
// sends gated by markers on the Customer, not by contact-history cooldowns.
type RuleKind string

const (
	RuleWelcome     RuleKind = "welcome"
	RulePostVisit   RuleKind = "post_visit"
	RuleAnniversary RuleKind = "anniversary"
	RuleChurnRisk   RuleKind = "churn_risk"
	RuleWinback     RuleKind = "winback"
	RuleVIP         RuleKind = "vip"
	RuleCustom      RuleKind = "custom"
)

// IsOneTime reports whether the kind uses a per-customer marker instead of a
// cooldown.
func (k RuleKind) IsOneTime() bool {
	return k == RuleWelcome || k == RulePostVisit || k == RuleAnniversary
}

type AutomationRule struct {
	Base
	Name    string   `db:"name" json:"name"`
	Kind    RuleKind `db:"kind" json:"kind"`
	Enabled bool     `db:"enabled" json:"enabled"`

	// Trigger threshold, interpreted per kind (days inactive for winback,
	// risk likelihood floor for churn_risk, spend floor for vip)
	TriggerThreshold float64 `db:"trigger_threshold" json:"trigger_threshold"`

	CooldownDays int `db:"cooldown_days" json:"cooldown_days"`

	// Send-time window in business-local hours
	SendHourFrom int `db:"send_hour_from" json:"send_hour_from"`
	SendHourTo   int `db:"send_hour_to" json:"send_hour_to"`

	DailyCap    int `db:"daily_cap" json:"daily_cap"`
	LifetimeCap int `db:"lifetime_cap" json:"lifetime_cap"`

	CouponCode         *string `db:"coupon_code" json:"coupon_code"`
	CouponPercent      float64 `db:"coupon_percent" json:"coupon_percent"`
	CouponValidityDays int     `db:"coupon_validity_days" json:"coupon_validity_days"`

	// Mirrored campaign back-reference, set by the synchronizer
	CampaignID *uuid.UUID `db:"campaign_id" json:"campaign_id"`
}

type CreateAutomationRuleRequest struct {
	Name               string  `json:"name" binding:"required"`
	Kind               string  `json:"kind" binding:"required,oneof=welcome post_visit anniversary churn_risk winback vip custom"`
	Enabled            bool    `json:"enabled"`
	TriggerThreshold   float64 `json:"trigger_threshold"`
	CooldownDays       int     `json:"cooldown_days"`
	SendHourFrom       int     `json:"send_hour_from"`
	SendHourTo         int     `json:"send_hour_to"`
	DailyCap           int     `json:"daily_cap"`
	LifetimeCap        int     `json:"lifetime_cap"`
	CouponCode         string  `json:"coupon_code"`
	CouponPercent      float64 `json:"coupon_percent"`
	CouponValidityDays int     `json:"coupon_validity_days"`
}
