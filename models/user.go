package models

import "time"

// User is a registered wallet in the referral program.
// ReferrerAddress is set once at registration and never changes; the
// referrer must already exist when the user is created, so following
// referrer links upward can never loop.
type User struct {
	ID              string  `gorm:"primaryKey;type:uuid" json:"id"`
	Address         string  `gorm:"uniqueIndex;not null" json:"address"`
	Name            string  `gorm:"not null" json:"name"`
	ReferrerAddress *string `gorm:"index" json:"referrer_address,omitempty"`

	// Accumulated, not-yet-claimed INDY from completed tasks.
	PendingRewards float64 `gorm:"not null;default:0" json:"pending_rewards"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
