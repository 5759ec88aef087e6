package services

import (
	"errors"
	"fmt"

	"github.com/KrampusTON/indyback/models"
	"github.com/KrampusTON/indyback/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReferralService owns user registration and the read side of the
// referral graph.
type ReferralService struct {
	DB    *gorm.DB
	Tasks *TaskService
}

func NewReferralService(db *gorm.DB, tasks *TaskService) *ReferralService {
	return &ReferralService{DB: db, Tasks: tasks}
}

// RegisterUser creates a user, seeds a UserTask row per existing task
// and, when a referrer is named, recomputes the referrer's
// referral-task progress — all in one transaction. referrerAddress may
// be empty. The unique index on address backs the duplicate check, so
// two concurrent registrations of the same address cannot both commit.
func (s *ReferralService) RegisterUser(address, name, referrerAddress string) (*models.User, error) {
	if !utils.IsValidAddress(address) {
		return nil, ErrInvalidAddress
	}
	if referrerAddress != "" {
		if !utils.IsValidAddress(referrerAddress) {
			return nil, ErrInvalidAddress
		}
		if referrerAddress == address {
			return nil, ErrSelfReferral
		}
	}

	user := &models.User{
		ID:             uuid.NewString(),
		Address:        address,
		Name:           name,
		PendingRewards: 0,
	}
	if referrerAddress != "" {
		user.ReferrerAddress = &referrerAddress
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("address = ?", address).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyRegistered
		}

		if referrerAddress != "" {
			var referrer models.User
			if err := tx.Where("address = ?", referrerAddress).First(&referrer).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrReferrerNotFound
				}
				return fmt.Errorf("failed to load referrer: %w", err)
			}
		}

		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyRegistered
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		var tasks []models.Task
		if err := tx.Find(&tasks).Error; err != nil {
			return fmt.Errorf("failed to load tasks for seeding: %w", err)
		}
		if len(tasks) > 0 {
			userTasks := make([]models.UserTask, len(tasks))
			for i, task := range tasks {
				userTasks[i] = models.UserTask{
					ID:          uuid.NewString(),
					UserAddress: address,
					TaskID:      task.TaskID,
					Progress:    0,
					Status:      models.UserTaskStatusAvailable,
				}
			}
			if err := tx.CreateInBatches(userTasks, seedBatchSize).Error; err != nil {
				return fmt.Errorf("failed to seed user tasks: %w", err)
			}
		}

		if referrerAddress != "" {
			return s.Tasks.RefreshReferralProgress(tx, referrerAddress)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser loads a user by address.
func (s *ReferralService) GetUser(address string) (*models.User, error) {
	var user models.User
	if err := s.DB.Where("address = ?", address).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ReferralStats is the per-user summary served on the referral page.
type ReferralStats struct {
	Referrals      int64   `json:"referrals"`
	Rewards        float64 `json:"rewards"`
	Nfts           int64   `json:"nfts"`
	PendingRewards float64 `json:"pending_rewards"`
	NextGoal       int     `json:"next_goal"`
}

// GetReferralStats aggregates the direct-referral count, total earned
// commissions, NFT count and pending balance for one user.
func (s *ReferralService) GetReferralStats(address string) (*ReferralStats, error) {
	user, err := s.GetUser(address)
	if err != nil {
		return nil, err
	}

	stats := &ReferralStats{
		PendingRewards: user.PendingRewards,
		NextGoal:       NftReferralThreshold,
	}

	if err := s.DB.Model(&models.User{}).
		Where("referrer_address = ?", address).
		Count(&stats.Referrals).Error; err != nil {
		return nil, fmt.Errorf("failed to count referrals: %w", err)
	}

	if err := s.DB.Model(&models.ReferralCommission{}).
		Where("referrer_address = ?", address).
		Select("COALESCE(SUM(commission_indy), 0)").
		Scan(&stats.Rewards).Error; err != nil {
		return nil, fmt.Errorf("failed to sum commissions: %w", err)
	}

	if err := s.DB.Model(&models.NftReward{}).
		Where("user_address = ?", address).
		Count(&stats.Nfts).Error; err != nil {
		return nil, fmt.Errorf("failed to count NFT rewards: %w", err)
	}

	return stats, nil
}

// GetReferralTree returns the user's downline grouped by level.
func (s *ReferralService) GetReferralTree(address string) ([]ReferralLevel, error) {
	if _, err := s.GetUser(address); err != nil {
		return nil, err
	}
	return DescendantLevels(s.DB, address, MaxReferralDepth)
}
