package services

import (
	"fmt"
	"testing"

	"github.com/KrampusTON/indyback/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessPurchaseCommissionFanOut(t *testing.T) {
	db, referrals, commissions, _, _ := newTestStack(t)

	a := testAddr(1)
	b := testAddr(2)
	c := testAddr(3)
	mustRegister(t, referrals, a, "A", "")
	mustRegister(t, referrals, b, "B", a)
	mustRegister(t, referrals, c, "C", b)

	require.NoError(t, commissions.ProcessPurchase(c, 1000, 0.25, "hash-1"))

	var rows []models.ReferralCommission
	require.NoError(t, db.Order("level ASC").Find(&rows).Error)
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[0].Level)
	assert.Equal(t, b, rows[0].ReferrerAddress)
	assert.InDelta(t, 4, rows[0].CommissionPercentage, 1e-9)
	assert.InDelta(t, 40, rows[0].CommissionIndy, 1e-9)

	assert.Equal(t, 2, rows[1].Level)
	assert.Equal(t, a, rows[1].ReferrerAddress)
	assert.InDelta(t, 0.3, rows[1].CommissionPercentage, 1e-9)
	assert.InDelta(t, 3, rows[1].CommissionIndy, 1e-9)

	var txn models.ReferralTransaction
	require.NoError(t, db.Where("transaction_hash = ?", "hash-1").First(&txn).Error)
	assert.Equal(t, c, txn.BuyerAddress)
	assert.InDelta(t, 1000, txn.AmountIndy, 1e-9)
	assert.InDelta(t, 0.25, txn.EgldSpent, 1e-9)

	for _, row := range rows {
		assert.Equal(t, txn.ID, row.TransactionID)
	}
}

func TestProcessPurchaseChainLongerThanFive(t *testing.T) {
	db, referrals, commissions, _, _ := newTestStack(t)

	prev := ""
	for i := 0; i < 7; i++ {
		mustRegister(t, referrals, testAddr(i), "u", prev)
		prev = testAddr(i)
	}

	require.NoError(t, commissions.ProcessPurchase(testAddr(6), 10000, 1, "hash-deep"))

	var rows []models.ReferralCommission
	require.NoError(t, db.Order("level ASC").Find(&rows).Error)
	require.Len(t, rows, 5, "no level-6 commission may exist")

	wantPct := []float64{4, 0.3, 0.1, 0.05, 0.01}
	for i, row := range rows {
		assert.Equal(t, i+1, row.Level)
		assert.InDelta(t, wantPct[i], row.CommissionPercentage, 1e-9)
		assert.InDelta(t, 10000*wantPct[i]/100, row.CommissionIndy, 1e-9)
		assert.Equal(t, testAddr(5-i), row.ReferrerAddress)
	}
}

func TestProcessPurchaseNoReferrer(t *testing.T) {
	db, referrals, commissions, _, _ := newTestStack(t)

	mustRegister(t, referrals, testAddr(1), "solo", "")
	require.NoError(t, commissions.ProcessPurchase(testAddr(1), 500, 0.1, "hash-solo"))

	var count int64
	require.NoError(t, db.Model(&models.ReferralCommission{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProcessPurchaseDuplicateHash(t *testing.T) {
	db, referrals, commissions, _, _ := newTestStack(t)

	a := testAddr(1)
	b := testAddr(2)
	mustRegister(t, referrals, a, "A", "")
	mustRegister(t, referrals, b, "B", a)

	require.NoError(t, commissions.ProcessPurchase(b, 1000, 0.5, "hash-dup"))

	err := commissions.ProcessPurchase(b, 2000, 1.0, "hash-dup")
	assert.ErrorIs(t, err, ErrDuplicateTransaction)

	var txCount, comCount int64
	require.NoError(t, db.Model(&models.ReferralTransaction{}).Count(&txCount).Error)
	require.NoError(t, db.Model(&models.ReferralCommission{}).Count(&comCount).Error)
	assert.EqualValues(t, 1, txCount)
	assert.EqualValues(t, 1, comCount)
}

func TestProcessPurchaseUnknownBuyer(t *testing.T) {
	_, _, commissions, _, _ := newTestStack(t)

	err := commissions.ProcessPurchase(testAddr(9), 100, 0.1, "hash-x")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestProcessPurchaseAdvancesPurchaseTask(t *testing.T) {
	db, referrals, commissions, tasks, _ := newTestStack(t)

	_, err := tasks.CreateTask(TaskInput{
		TaskID:     "buy-1000",
		Title:      "Purchase 1000 INDY",
		RewardIndy: 5000,
		Type:       models.TaskTypePurchase,
		Target:     1000,
		Category:   models.TaskCategoryHard,
	})
	require.NoError(t, err)

	buyer := testAddr(1)
	mustRegister(t, referrals, buyer, "buyer", "")

	require.NoError(t, commissions.ProcessPurchase(buyer, 400, 0.1, "hash-1"))

	var ut models.UserTask
	require.NoError(t, db.Where("user_address = ? AND task_id = ?", buyer, "buy-1000").First(&ut).Error)
	assert.InDelta(t, 400, ut.Progress, 1e-9)
	assert.Equal(t, models.UserTaskStatusInProgress, ut.Status)

	// Cumulative: second purchase crosses the target.
	require.NoError(t, commissions.ProcessPurchase(buyer, 700, 0.2, "hash-2"))

	require.NoError(t, db.Where("user_address = ? AND task_id = ?", buyer, "buy-1000").First(&ut).Error)
	assert.InDelta(t, 1100, ut.Progress, 1e-9)
	assert.Equal(t, models.UserTaskStatusCompleted, ut.Status)

	user, err := referrals.GetUser(buyer)
	require.NoError(t, err)
	assert.EqualValues(t, 5000, user.PendingRewards)

	// Further purchases leave the completed task alone.
	require.NoError(t, commissions.ProcessPurchase(buyer, 500, 0.2, "hash-3"))

	require.NoError(t, db.Where("user_address = ? AND task_id = ?", buyer, "buy-1000").First(&ut).Error)
	assert.InDelta(t, 1100, ut.Progress, 1e-9)

	user, err = referrals.GetUser(buyer)
	require.NoError(t, err)
	assert.EqualValues(t, 5000, user.PendingRewards)
}

func TestReferralMilestoneNft(t *testing.T) {
	db, referrals, commissions, _, _ := newTestStack(t)

	x := testAddr(0)
	mustRegister(t, referrals, x, "X", "")

	for i := 1; i < NftReferralThreshold; i++ {
		mustRegister(t, referrals, testAddr(i), fmt.Sprintf("r%d", i), x)
	}

	// 49 referrals: no NFT yet.
	require.NoError(t, commissions.ProcessPurchase(x, 100, 0.1, "hash-a"))
	var count int64
	require.NoError(t, db.Model(&models.NftReward{}).Count(&count).Error)
	assert.Zero(t, count)

	mustRegister(t, referrals, testAddr(NftReferralThreshold), "r50", x)

	require.NoError(t, commissions.ProcessPurchase(x, 100, 0.1, "hash-b"))
	var reward models.NftReward
	require.NoError(t, db.Where("user_address = ?", x).First(&reward).Error)
	assert.Equal(t, NftTypeLevel2, reward.NftType)

	// Re-running the check must not award a second NFT.
	require.NoError(t, commissions.ProcessPurchase(x, 100, 0.1, "hash-c"))
	require.NoError(t, db.Model(&models.NftReward{}).Where("user_address = ?", x).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
