package models

import "time"

// SaleSnapshot caches the token sale figures read from the chain
// gateway so the sale-data endpoint does not hit the gateway on every
// request. A single row, upserted by the sale sync worker.
type SaleSnapshot struct {
	ID              string    `gorm:"primaryKey;type:uuid" json:"id"`
	TokenPrice      float64   `json:"token_price"`
	TokensAvailable float64   `json:"tokens_available"`
	TotalBought     float64   `json:"total_bought"`
	FetchedAt       time.Time `json:"fetched_at"`
}
