package models

import "time"

// ClaimAttemptStatus tracks a payout submission's lifecycle.
type ClaimAttemptStatus string

const (
	ClaimAttemptPending   ClaimAttemptStatus = "pending"
	ClaimAttemptSubmitted ClaimAttemptStatus = "submitted"
	ClaimAttemptFailed    ClaimAttemptStatus = "failed"
)

// ClaimAttempt records one attempt to pay out a user's pending
// rewards. The row is created before the payout call and its ID is
// passed to the submitter as an idempotency key, so a crash between
// submission and the local mark-claimed step cannot double-submit: a
// retried claim reuses a fresh attempt only after the stale one is
// swept to failed, and the submitter dedupes on the key.
type ClaimAttempt struct {
	ID string `gorm:"primaryKey;type:uuid" json:"id"`
	// The partial unique index allows at most one pending attempt per
	// user, so concurrent claims cannot both open one.
	UserAddress string             `gorm:"index;uniqueIndex:idx_claim_pending,where:status = 'pending';not null" json:"user_address"`
	Amount      float64            `gorm:"not null" json:"amount"`
	Status      ClaimAttemptStatus `gorm:"not null;default:'pending';index" json:"status"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
