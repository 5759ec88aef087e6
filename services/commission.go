package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/KrampusTON/indyback/models"
	"github.com/KrampusTON/indyback/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommissionRates is the fixed per-level percentage schedule. Index 0
// is the direct referrer.
var CommissionRates = [MaxReferralDepth]float64{4, 0.3, 0.1, 0.05, 0.01}

// CommissionService records purchases and fans commissions out along
// the buyer's referrer chain.
type CommissionService struct {
	DB         *gorm.DB
	Tasks      *TaskService
	Milestones *MilestoneService
}

func NewCommissionService(db *gorm.DB, tasks *TaskService, milestones *MilestoneService) *CommissionService {
	return &CommissionService{DB: db, Tasks: tasks, Milestones: milestones}
}

// ProcessPurchase records a purchase and, in the same transaction,
// creates one commission row per ancestor level (up to 5), advances
// the buyer's purchase tasks, and runs the referral milestone check.
// A transaction hash that was seen before fails the whole call with
// no new rows.
func (s *CommissionService) ProcessPurchase(buyerAddress string, amountIndy, egldSpent float64, transactionHash string) error {
	if !utils.IsValidAddress(buyerAddress) {
		return ErrInvalidAddress
	}
	if transactionHash == "" {
		return ErrInvalidTransaction
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		var buyer models.User
		if err := tx.Where("address = ?", buyerAddress).First(&buyer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to load buyer: %w", err)
		}

		var seen int64
		if err := tx.Model(&models.ReferralTransaction{}).
			Where("transaction_hash = ?", transactionHash).
			Count(&seen).Error; err != nil {
			return err
		}
		if seen > 0 {
			return ErrDuplicateTransaction
		}

		txn := models.ReferralTransaction{
			ID:              uuid.NewString(),
			BuyerAddress:    buyerAddress,
			AmountIndy:      amountIndy,
			EgldSpent:       egldSpent,
			TransactionHash: transactionHash,
		}
		if err := tx.Create(&txn).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateTransaction
			}
			return fmt.Errorf("failed to record transaction: %w", err)
		}

		chain, err := AncestorChain(tx, buyerAddress, MaxReferralDepth)
		if err != nil {
			return err
		}

		if len(chain) > 0 {
			commissions := make([]models.ReferralCommission, len(chain))
			for i, referrer := range chain {
				rate := CommissionRates[i]
				commissions[i] = models.ReferralCommission{
					ID:                   uuid.NewString(),
					TransactionID:        txn.ID,
					ReferrerAddress:      referrer.Address,
					Level:                i + 1,
					CommissionPercentage: rate,
					CommissionIndy:       amountIndy * rate / 100,
				}
			}
			if err := tx.Create(&commissions).Error; err != nil {
				return fmt.Errorf("failed to record commissions: %w", err)
			}
			log.Printf("Purchase %s: %d commission level(s) recorded for buyer %s", transactionHash, len(chain), buyerAddress)
		}

		if err := s.Tasks.RecordPurchaseProgress(tx, buyerAddress, amountIndy); err != nil {
			return err
		}

		return s.Milestones.CheckReferralMilestone(tx, buyerAddress)
	})
}

// GetCommissions lists the commissions earned by one referrer, newest
// first.
func (s *CommissionService) GetCommissions(referrerAddress string) ([]models.ReferralCommission, error) {
	var commissions []models.ReferralCommission
	err := s.DB.Where("referrer_address = ?", referrerAddress).
		Order("created_at DESC").
		Find(&commissions).Error
	return commissions, err
}
