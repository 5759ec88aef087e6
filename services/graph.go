package services

import (
	"errors"
	"fmt"

	"github.com/KrampusTON/indyback/models"

	"gorm.io/gorm"
)

// MaxReferralDepth caps every walk of the referral graph. Cycles are
// precluded by construction (a referrer must already exist when a user
// registers), but the cap guarantees termination regardless.
const MaxReferralDepth = 5

// AncestorChain walks referrer links upward from address and returns
// the referrers in order (level 1 first). The walk stops at the first
// user without a referrer or at maxDepth. Read-only; pass an open
// transaction to read a consistent snapshot.
func AncestorChain(db *gorm.DB, address string, maxDepth int) ([]models.User, error) {
	if maxDepth <= 0 || maxDepth > MaxReferralDepth {
		maxDepth = MaxReferralDepth
	}

	var current models.User
	if err := db.Where("address = ?", address).First(&current).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", address, err)
	}

	chain := make([]models.User, 0, maxDepth)
	for level := 1; level <= maxDepth; level++ {
		if current.ReferrerAddress == nil {
			break
		}
		var referrer models.User
		if err := db.Where("address = ?", *current.ReferrerAddress).First(&referrer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Dangling link; treat as end of chain.
				break
			}
			return nil, fmt.Errorf("failed to load referrer at level %d: %w", level, err)
		}
		chain = append(chain, referrer)
		current = referrer
	}
	return chain, nil
}

// ReferralLevel is one layer of a user's downline.
type ReferralLevel struct {
	Level int           `json:"level"`
	Users []models.User `json:"users"`
}

// DescendantLevels expands the referral tree below address one level
// at a time: level 1 holds the direct referrals, level n+1 holds every
// user referred by someone in level n. Expansion stops at the first
// empty level or at maxDepth.
func DescendantLevels(db *gorm.DB, address string, maxDepth int) ([]ReferralLevel, error) {
	if maxDepth <= 0 || maxDepth > MaxReferralDepth {
		maxDepth = MaxReferralDepth
	}

	var levels []ReferralLevel
	frontier := []string{address}

	for level := 1; level <= maxDepth; level++ {
		var users []models.User
		if err := db.Where("referrer_address IN ?", frontier).Find(&users).Error; err != nil {
			return nil, fmt.Errorf("failed to expand referral level %d: %w", level, err)
		}
		if len(users) == 0 {
			break
		}

		levels = append(levels, ReferralLevel{Level: level, Users: users})

		frontier = make([]string, len(users))
		for i, u := range users {
			frontier[i] = u.Address
		}
	}
	return levels, nil
}
