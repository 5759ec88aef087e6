package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/KrampusTON/indyback/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A pooled second connection would see a different in-memory DB.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.UserTask{},
		&models.ReferralTransaction{},
		&models.ReferralCommission{},
		&models.NftReward{},
		&models.ClaimAttempt{},
		&models.SaleSnapshot{},
	))
	return db
}

// testAddr builds a syntactically valid wallet address from a number.
func testAddr(n int) string {
	return fmt.Sprintf("erd1%058d", n)
}

type fakeVerifier struct {
	ok  bool
	err error
}

func (f *fakeVerifier) VerifyProof(ctx context.Context, proofURL string) (bool, error) {
	return f.ok, f.err
}

type fakeSubmitter struct {
	err      error
	calls    int
	lastAddr string
	lastAmt  float64
	lastID   string
}

func (f *fakeSubmitter) SubmitClaim(ctx context.Context, userAddress string, amount float64, attemptID string) error {
	f.calls++
	f.lastAddr = userAddress
	f.lastAmt = amount
	f.lastID = attemptID
	return f.err
}

// newTestStack wires the services the way main does, with fakes for
// the external collaborators.
func newTestStack(t *testing.T) (*gorm.DB, *ReferralService, *CommissionService, *TaskService, *fakeVerifier) {
	t.Helper()
	db := newTestDB(t)
	verifier := &fakeVerifier{ok: true}
	tasks := NewTaskService(db, verifier)
	milestones := NewMilestoneService(db)
	referrals := NewReferralService(db, tasks)
	commissions := NewCommissionService(db, tasks, milestones)
	return db, referrals, commissions, tasks, verifier
}

func mustRegister(t *testing.T, s *ReferralService, addr, name, referrer string) *models.User {
	t.Helper()
	u, err := s.RegisterUser(addr, name, referrer)
	require.NoError(t, err)
	return u
}
