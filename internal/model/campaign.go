package model

import (
	"time"

	"github.com/google/uuid"
)

type CampaignStatus string

const (
	CampaignActive   CampaignStatus = "active"
	CampaignPaused   CampaignStatus = "paused"
	CampaignArchived CampaignStatus = "archived"
)

// Campaign is a named outreach definition. Manual campaigns are created
// directly; automation rules each mirror into exactly one campaign so manual
// and automated outreach share one reporting surface.
type Campaign struct {
	Base
	Name     string         `db:"name" json:"name"`
	Type     string         `db:"type" json:"type"`
	Status   CampaignStatus `db:"status" json:"status"`
	Audience string         `db:"audience" json:"audience"`

	CouponCode         *string `db:"coupon_code" json:"coupon_code"`
	CouponPercent      float64 `db:"coupon_percent" json:"coupon_percent"`
	CouponValidityDays int     `db:"coupon_validity_days" json:"coupon_validity_days"`

	ABVariant *string `db:"ab_variant" json:"ab_variant"`

	SentCount         int        `db:"sent_count" json:"sent_count"`
	ReturnedCount     int        `db:"returned_count" json:"returned_count"`
	AttributedRevenue float64    `db:"attributed_revenue" json:"attributed_revenue"`
	LastSentAt        *time.Time `db:"last_sent_at" json:"last_sent_at"`

	// Set when the campaign mirrors an automation rule
	SourceRuleID *uuid.UUID `db:"source_rule_id" json:"source_rule_id"`
}
