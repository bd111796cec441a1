package model

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionPurchase       TransactionType = "purchase"
	TransactionWalletPurchase TransactionType = "wallet_purchase"
	TransactionWalletRecharge TransactionType = "wallet_recharge"
	TransactionUnknown        TransactionType = "unknown"
)

type Transaction struct {
	Base
	Doc        string    `db:"doc" json:"doc"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`

	GrossValue     float64 `db:"gross_value" json:"gross_value"`
	PaidValue      float64 `db:"paid_value" json:"paid_value"`
	NetValue       float64 `db:"net_value" json:"net_value"`
	CashbackAmount float64 `db:"cashback_amount" json:"cashback_amount"`

	PaymentMethod string          `db:"payment_method" json:"payment_method"`
	Machines      string          `db:"machines" json:"machines"`
	WashCount     int             `db:"wash_count" json:"wash_count"`
	DryCount      int             `db:"dry_count" json:"dry_count"`
	Type          TransactionType `db:"type" json:"type"`

	UsedCoupon bool    `db:"used_coupon" json:"used_coupon"`
	CouponCode *string `db:"coupon_code" json:"coupon_code"`

	// First 32 hex chars of a SHA-256 over the raw export row, unique
	ImportHash string `db:"import_hash" json:"import_hash"`
	SourceFile string `db:"source_file" json:"source_file"`
}

// IngestTransactionRequest is the raw importer payload before normalization.
type IngestTransactionRequest struct {
	Doc           string    `json:"doc" binding:"required"`
	OccurredAt    time.Time `json:"occurred_at" binding:"required"`
	GrossValue    float64   `json:"gross_value"`
	PaidValue     float64   `json:"paid_value"`
	PaymentMethod string    `json:"payment_method"`
	Machines      string    `json:"machines"`
	UsedCoupon    bool      `json:"used_coupon"`
	CouponCode    string    `json:"coupon_code"`
	SourceFile    string    `json:"source_file"`
}

// IngestResult summarizes a batch ingest for the upload history log.
type IngestResult struct {
	Total    int         `json:"total"`
	Inserted int         `json:"inserted"`
	Skipped  int         `json:"skipped"`
	Errors   []string    `json:"errors,omitempty"`
	IDs      []uuid.UUID `json:"ids,omitempty"`
}
