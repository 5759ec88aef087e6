package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/KrampusTON/indyback/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NftReferralThreshold is the direct-referral count that unlocks the
// Level 2 milestone NFT.
const NftReferralThreshold = 50

// NftTypeLevel2 tags the milestone reward row.
const NftTypeLevel2 = "Level 2 Reward"

// MilestoneService owns NftReward rows. Nothing else writes them.
type MilestoneService struct {
	DB *gorm.DB
}

func NewMilestoneService(db *gorm.DB) *MilestoneService {
	return &MilestoneService{DB: db}
}

// CheckReferralMilestone awards the Level 2 NFT once a user's direct
// referral count reaches the threshold. At most one row per user and
// type; the composite unique index backs the check under concurrency.
func (s *MilestoneService) CheckReferralMilestone(tx *gorm.DB, userAddress string) error {
	var referralCount int64
	if err := tx.Model(&models.User{}).
		Where("referrer_address = ?", userAddress).
		Count(&referralCount).Error; err != nil {
		return fmt.Errorf("failed to count referrals for %s: %w", userAddress, err)
	}
	if referralCount < NftReferralThreshold {
		return nil
	}

	var existing int64
	if err := tx.Model(&models.NftReward{}).
		Where("user_address = ? AND nft_type = ?", userAddress, NftTypeLevel2).
		Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	reward := models.NftReward{
		ID:          uuid.NewString(),
		UserAddress: userAddress,
		NftType:     NftTypeLevel2,
	}
	if err := tx.Create(&reward).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("failed to award NFT to %s: %w", userAddress, err)
	}
	log.Printf("NFT milestone reached: %s awarded to %s (%d referrals)", NftTypeLevel2, userAddress, referralCount)
	return nil
}
