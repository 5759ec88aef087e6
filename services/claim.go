package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/KrampusTON/indyback/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PayoutSubmitter broadcasts a reward claim. Success means the claim
// was accepted for submission; settlement is not guaranteed. The
// submitter must deduplicate on attemptID.
type PayoutSubmitter interface {
	SubmitClaim(ctx context.Context, userAddress string, amount float64, attemptID string) error
}

// ClaimService converts pending rewards into a submitted payout and
// settles the contributing tasks. No lock is held across the payout
// call: the sequence is a short transaction to open a ClaimAttempt,
// the external submission, then a short transaction to mark claimed.
type ClaimService struct {
	DB     *gorm.DB
	Payout PayoutSubmitter

	// UpstreamTimeout bounds the payout round trip.
	UpstreamTimeout time.Duration
	// AttemptTTL is how long a pending attempt blocks new claims
	// before the sweeper writes it off as failed.
	AttemptTTL time.Duration
}

func NewClaimService(db *gorm.DB, payout PayoutSubmitter) *ClaimService {
	return &ClaimService{
		DB:              db,
		Payout:          payout,
		UpstreamTimeout: 20 * time.Second,
		AttemptTTL:      10 * time.Minute,
	}
}

// ClaimRewards submits the user's pending balance for payout and, only
// after the submission succeeds, marks every completed task claimed
// and zeroes the balance. On submission failure nothing local changes
// apart from the attempt row flipping to failed.
func (s *ClaimService) ClaimRewards(ctx context.Context, userAddress string) error {
	attempt := models.ClaimAttempt{
		ID:          uuid.NewString(),
		UserAddress: userAddress,
		Status:      models.ClaimAttemptPending,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("address = ?", userAddress).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to load user: %w", err)
		}
		if user.PendingRewards <= 0 {
			return ErrNothingToClaim
		}

		var pending int64
		if err := tx.Model(&models.ClaimAttempt{}).
			Where("user_address = ? AND status = ?", userAddress, models.ClaimAttemptPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return ErrClaimInProgress
		}

		attempt.Amount = user.PendingRewards
		if err := tx.Create(&attempt).Error; err != nil {
			// Partial unique index on (user_address) WHERE pending:
			// a concurrent claim that won the race leaves its row
			// behind and ours is refused.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrClaimInProgress
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	sctx, cancel := context.WithTimeout(ctx, s.UpstreamTimeout)
	defer cancel()

	if err := s.Payout.SubmitClaim(sctx, userAddress, attempt.Amount, attempt.ID); err != nil {
		if markErr := s.DB.Model(&models.ClaimAttempt{}).
			Where("id = ?", attempt.ID).
			Update("status", models.ClaimAttemptFailed).Error; markErr != nil {
			log.Printf("Failed to mark claim attempt %s failed: %v", attempt.ID, markErr)
		}
		if errors.Is(err, ErrUpstreamTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return ErrUpstreamTimeout
		}
		if errors.Is(err, ErrPayoutSubmission) || errors.Is(err, ErrUpstreamUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPayoutSubmission, err)
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&models.UserTask{}).
			Where("user_address = ? AND status = ?", userAddress, models.UserTaskStatusCompleted).
			Updates(map[string]interface{}{
				"status":     models.UserTaskStatusClaimed,
				"claimed_at": now,
			}).Error; err != nil {
			return fmt.Errorf("failed to mark tasks claimed: %w", err)
		}

		if err := tx.Model(&models.User{}).
			Where("address = ?", userAddress).
			Update("pending_rewards", 0).Error; err != nil {
			return fmt.Errorf("failed to reset pending rewards: %w", err)
		}

		return tx.Model(&models.ClaimAttempt{}).
			Where("id = ?", attempt.ID).
			Update("status", models.ClaimAttemptSubmitted).Error
	})
}

// SweepStaleAttempts fails pending attempts older than the TTL so a
// crash between submission and mark-claimed does not wedge the user
// forever. The submitter's idempotency key makes the follow-up claim
// safe.
func (s *ClaimService) SweepStaleAttempts() error {
	cutoff := time.Now().Add(-s.AttemptTTL)
	res := s.DB.Model(&models.ClaimAttempt{}).
		Where("status = ? AND created_at < ?", models.ClaimAttemptPending, cutoff).
		Update("status", models.ClaimAttemptFailed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		log.Printf("Swept %d stale claim attempt(s)", res.RowsAffected)
	}
	return nil
}
