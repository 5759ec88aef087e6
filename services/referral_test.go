package services

import (
	"testing"

	"github.com/KrampusTON/indyback/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUserValidation(t *testing.T) {
	_, referrals, _, _, _ := newTestStack(t)

	_, err := referrals.RegisterUser("not-an-address", "x", "")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = referrals.RegisterUser(testAddr(1), "x", "bad-referrer")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = referrals.RegisterUser(testAddr(1), "x", testAddr(1))
	assert.ErrorIs(t, err, ErrSelfReferral)

	_, err = referrals.RegisterUser(testAddr(1), "x", testAddr(2))
	assert.ErrorIs(t, err, ErrReferrerNotFound)
}

func TestRegisterUserDuplicate(t *testing.T) {
	db, referrals, _, _, _ := newTestStack(t)

	mustRegister(t, referrals, testAddr(1), "first", "")
	_, err := referrals.RegisterUser(testAddr(1), "second", "")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRegisterUserSeedsTasks(t *testing.T) {
	db, referrals, _, tasks, _ := newTestStack(t)
	require.NoError(t, tasks.EnsureDefaultTasks())

	mustRegister(t, referrals, testAddr(1), "seeded", "")

	var userTasks []models.UserTask
	require.NoError(t, db.Where("user_address = ?", testAddr(1)).Find(&userTasks).Error)
	require.Len(t, userTasks, 3)
	for _, ut := range userTasks {
		assert.Zero(t, ut.Progress)
		assert.Equal(t, models.UserTaskStatusAvailable, ut.Status)
	}
}

func TestReferralTaskCompletion(t *testing.T) {
	db, referrals, _, tasks, _ := newTestStack(t)

	_, err := tasks.CreateTask(TaskInput{
		TaskID:     "invite-3",
		Title:      "Invite 3 Friends",
		RewardIndy: 10000,
		Type:       models.TaskTypeReferral,
		Target:     3,
		Category:   models.TaskCategoryEasy,
	})
	require.NoError(t, err)

	x := testAddr(0)
	mustRegister(t, referrals, x, "X", "")

	// Two referrals: in progress, no credit yet.
	mustRegister(t, referrals, testAddr(1), "r1", x)
	mustRegister(t, referrals, testAddr(2), "r2", x)

	var ut models.UserTask
	require.NoError(t, db.Where("user_address = ? AND task_id = ?", x, "invite-3").First(&ut).Error)
	assert.EqualValues(t, 2, ut.Progress)
	assert.Equal(t, models.UserTaskStatusInProgress, ut.Status)
	assert.Nil(t, ut.CompletedAt)

	user, err := referrals.GetUser(x)
	require.NoError(t, err)
	assert.Zero(t, user.PendingRewards)

	// Third referral flips the task to completed and credits once.
	mustRegister(t, referrals, testAddr(3), "r3", x)

	require.NoError(t, db.Where("user_address = ? AND task_id = ?", x, "invite-3").First(&ut).Error)
	assert.EqualValues(t, 3, ut.Progress)
	assert.Equal(t, models.UserTaskStatusCompleted, ut.Status)
	require.NotNil(t, ut.CompletedAt)

	user, err = referrals.GetUser(x)
	require.NoError(t, err)
	assert.EqualValues(t, 10000, user.PendingRewards)

	// A fourth referral must not re-credit the completed task.
	mustRegister(t, referrals, testAddr(4), "r4", x)

	user, err = referrals.GetUser(x)
	require.NoError(t, err)
	assert.EqualValues(t, 10000, user.PendingRewards)

	require.NoError(t, db.Where("user_address = ? AND task_id = ?", x, "invite-3").First(&ut).Error)
	assert.EqualValues(t, 3, ut.Progress, "terminal task must not keep counting")
}

func TestGetReferralStats(t *testing.T) {
	_, referrals, commissions, _, _ := newTestStack(t)

	a := testAddr(1)
	b := testAddr(2)
	mustRegister(t, referrals, a, "A", "")
	mustRegister(t, referrals, b, "B", a)

	require.NoError(t, commissions.ProcessPurchase(b, 1000, 0.5, "hash-1"))

	stats, err := referrals.GetReferralStats(a)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Referrals)
	assert.InDelta(t, 40, stats.Rewards, 1e-9) // 4% of 1000
	assert.EqualValues(t, 0, stats.Nfts)
	assert.Equal(t, NftReferralThreshold, stats.NextGoal)
}

func TestGetReferralStatsUnknownUser(t *testing.T) {
	_, referrals, _, _, _ := newTestStack(t)

	_, err := referrals.GetReferralStats(testAddr(42))
	assert.ErrorIs(t, err, ErrUserNotFound)
}
