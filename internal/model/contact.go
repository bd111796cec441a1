package model

import (
	"time"

	"github.com/google/uuid"
)

// Contact lifecycle. A queued row is a placeholder reserved by manual
// queueing before any message exists; it must be fulfilled in place, never
// duplicated.
type ContactStatus string

const (
	ContactQueued    ContactStatus = "queued"
	ContactPending   ContactStatus = "pending"
	ContactReturned  ContactStatus = "returned"
	ContactExpired   ContactStatus = "expired"
	ContactCleared   ContactStatus = "cleared"
	ContactCancelled ContactStatus = "cancelled"
)

// Delivery status written by the transport callback; the engine only reads it.
type DeliveryStatus string

const (
	DeliveryQueued    DeliveryStatus = "queued"
	DeliverySent      DeliveryStatus = "sent"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryRead      DeliveryStatus = "read"
	DeliveryFailed    DeliveryStatus = "failed"
)

// ResponseOptedOut on a contact starts the 90-day hard block.
const ResponseOptedOut = "opted_out"

type Contact struct {
	Base
	Doc          string     `db:"doc" json:"doc"`
	CampaignID   *uuid.UUID `db:"campaign_id" json:"campaign_id"`
	CampaignType string     `db:"campaign_type" json:"campaign_type"`

	CustomerName string `db:"customer_name" json:"customer_name"`
	Phone        string `db:"phone" json:"phone"`

	ContactedAt time.Time  `db:"contacted_at" json:"contacted_at"`
	ExpiresAt   *time.Time `db:"expires_at" json:"expires_at"`

	Status         ContactStatus  `db:"status" json:"status"`
	DeliveryStatus DeliveryStatus `db:"delivery_status" json:"delivery_status"`
	TransportMsgID *string        `db:"transport_msg_id" json:"transport_msg_id"`
	ResponseStatus *string        `db:"response_status" json:"response_status"`
	RespondedAt    *time.Time     `db:"responded_at" json:"responded_at"`

	// Risk tier frozen at send time, for campaign reporting
	RiskTierAtContact RiskTier `db:"risk_tier_at_contact" json:"risk_tier_at_contact"`

	CouponCode *string `db:"coupon_code" json:"coupon_code"`

	// Resolution
	ReturnedAt        *time.Time `db:"returned_at" json:"returned_at"`
	DaysToReturn      *int       `db:"days_to_return" json:"days_to_return"`
	AttributedRevenue float64    `db:"attributed_revenue" json:"attributed_revenue"`
}

type RecordAutomationContactRequest struct {
	RuleID         string `json:"rule_id" binding:"required,uuid"`
	Doc            string `json:"doc" binding:"required" validate:"cpf"`
	Name           string `json:"name"`
	Phone          string `json:"phone" binding:"required" validate:"brphone"`
	TransportMsgID string `json:"transport_msg_id"`
}

type RecordManualContactRequest struct {
	CampaignID         string `json:"campaign_id" binding:"required,uuid"`
	Doc                string `json:"doc" binding:"required" validate:"cpf"`
	Name               string `json:"name"`
	Phone              string `json:"phone" binding:"required" validate:"brphone"`
	TransportMsgID     string `json:"transport_msg_id"`
	CampaignType       string `json:"campaign_type"`
	CouponValidityDays int    `json:"coupon_validity_days"`
}

// DeliveryCallbackRequest is posted by the transport with the fate of one
// message, matched to the contact by transport message id.
type DeliveryCallbackRequest struct {
	TransportMsgID string `json:"transport_msg_id" binding:"required"`
	Status         string `json:"status" binding:"required,oneof=queued sent delivered read failed"`
	Response       string `json:"response"`
}
