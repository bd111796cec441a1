package model

import "time"

// AppSettings is the single-row operational knobs table. Only the default
// row exists.
type AppSettings struct {
	ID                string    `db:"id" json:"id"`
	CashbackPercent   float64   `db:"cashback_percent" json:"cashback_percent"`
	CashbackStartDate string    `db:"cashback_start_date" json:"cashback_start_date"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

const AppSettingsDefaultID = "default"
