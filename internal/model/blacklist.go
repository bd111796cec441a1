package model

import "time"

// BlacklistEntry is a hard stop: a blacklisted phone is never contacted,
// independent of any cooldown or bypass flag.
type BlacklistEntry struct {
	Phone     string    `db:"phone" json:"phone"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type AddBlacklistRequest struct {
	Phone  string `json:"phone" binding:"required"`
	Reason string `json:"reason"`
}
