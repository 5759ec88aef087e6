package models

import "time"

// ReferralTransaction is one token purchase event. TransactionHash is
// the on-chain reference and must be unique — replays of the same hash
// are rejected before any commission is written.
type ReferralTransaction struct {
	ID              string    `gorm:"primaryKey;type:uuid" json:"id"`
	BuyerAddress    string    `gorm:"index;not null" json:"buyer_address"`
	AmountIndy      float64   `gorm:"not null" json:"amount_indy"`
	EgldSpent       float64   `gorm:"not null" json:"egld_spent"`
	TransactionHash string    `gorm:"uniqueIndex;not null" json:"transaction_hash"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// ReferralCommission is one ancestor's cut of a purchase. A purchase
// produces at most five of these, one per referrer level found.
type ReferralCommission struct {
	ID                   string    `gorm:"primaryKey;type:uuid" json:"id"`
	TransactionID        string    `gorm:"index;not null" json:"transaction_id"`
	ReferrerAddress      string    `gorm:"index;not null" json:"referrer_address"`
	Level                int       `gorm:"not null" json:"level"`
	CommissionPercentage float64   `gorm:"not null" json:"commission_percentage"`
	CommissionIndy       float64   `gorm:"not null" json:"commission_indy"`
	CreatedAt            time.Time `json:"created_at" gorm:"autoCreateTime"`
}
