package models

import "time"

// NftReward marks a milestone NFT granted to a user. The composite
// unique index keeps each reward type at most once per user.
type NftReward struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserAddress string    `gorm:"uniqueIndex:idx_user_nft;not null" json:"user_address"`
	NftType     string    `gorm:"uniqueIndex:idx_user_nft;not null" json:"nft_type"`
	AwardedAt   time.Time `json:"awarded_at" gorm:"autoCreateTime"`
}
