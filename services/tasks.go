package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/KrampusTON/indyback/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// seedBatchSize bounds the fan-out inserts when a registration seeds a
// row per task or a new task seeds a row per user.
const seedBatchSize = 200

// ProofVerifier checks a social-proof URL against the external
// platform. A transport failure must surface as an error — it is never
// the same thing as "verified".
type ProofVerifier interface {
	VerifyProof(ctx context.Context, proofURL string) (bool, error)
}

type TaskService struct {
	DB       *gorm.DB
	Verifier ProofVerifier

	// UpstreamTimeout bounds the proof-verification round trip.
	UpstreamTimeout time.Duration
}

func NewTaskService(db *gorm.DB, verifier ProofVerifier) *TaskService {
	return &TaskService{DB: db, Verifier: verifier, UpstreamTimeout: 15 * time.Second}
}

// nextProgress returns the new progress value for a task given the
// current value and the trigger's payload, and whether the task's type
// accepts updates at all. Exhaustive over models.TaskType.
func nextProgress(task *models.Task, current, payload float64) (float64, bool) {
	switch task.Type {
	case models.TaskTypeReferral:
		// Recomputed count, not an increment.
		return payload, true
	case models.TaskTypePurchase:
		// Cumulative volume.
		return current + payload, true
	case models.TaskTypeSocial:
		// One verified proof settles the task whatever its target.
		return task.Target, true
	case models.TaskTypeOther:
		return current, false
	}
	return current, false
}

// applyProgress moves one UserTask forward. Terminal rows are left
// untouched and progress never decreases. Crossing the target stamps
// CompletedAt and credits the task reward to the user's pending
// balance — only on the transition, so re-evaluating a completed task
// cannot credit twice.
func applyProgress(tx *gorm.DB, task *models.Task, ut *models.UserTask, progress float64) error {
	if ut.Status.Terminal() {
		return nil
	}
	if progress < ut.Progress {
		progress = ut.Progress
	}
	ut.Progress = progress

	if progress >= task.Target {
		now := time.Now()
		ut.Status = models.UserTaskStatusCompleted
		ut.CompletedAt = &now
		if err := tx.Model(&models.User{}).
			Where("address = ?", ut.UserAddress).
			UpdateColumn("pending_rewards", gorm.Expr("pending_rewards + ?", task.RewardIndy)).Error; err != nil {
			return fmt.Errorf("failed to credit reward for task %s: %w", task.TaskID, err)
		}
	} else if progress > 0 {
		ut.Status = models.UserTaskStatusInProgress
	}

	return tx.Save(ut).Error
}

// updateTasksOfType runs the progress rule for every task of the given
// type that the user has a non-terminal row for.
func (s *TaskService) updateTasksOfType(tx *gorm.DB, userAddress string, taskType models.TaskType, payload float64) error {
	var tasks []models.Task
	if err := tx.Where("type = ?", taskType).Find(&tasks).Error; err != nil {
		return fmt.Errorf("failed to load %s tasks: %w", taskType, err)
	}

	for i := range tasks {
		task := &tasks[i]
		var ut models.UserTask
		err := tx.Where("user_address = ? AND task_id = ?", userAddress, task.TaskID).First(&ut).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load user task %s/%s: %w", userAddress, task.TaskID, err)
		}

		progress, ok := nextProgress(task, ut.Progress, payload)
		if !ok {
			continue
		}
		if err := applyProgress(tx, task, &ut, progress); err != nil {
			return err
		}
	}
	return nil
}

// RefreshReferralProgress recomputes referral-type progress for a user
// from the live count of their direct referrals. Called inside the
// registration transaction whenever someone registers under them.
func (s *TaskService) RefreshReferralProgress(tx *gorm.DB, userAddress string) error {
	var referralCount int64
	if err := tx.Model(&models.User{}).
		Where("referrer_address = ?", userAddress).
		Count(&referralCount).Error; err != nil {
		return fmt.Errorf("failed to count referrals for %s: %w", userAddress, err)
	}
	return s.updateTasksOfType(tx, userAddress, models.TaskTypeReferral, float64(referralCount))
}

// RecordPurchaseProgress adds a purchase amount to the buyer's
// purchase-type tasks. Called inside the purchase transaction.
func (s *TaskService) RecordPurchaseProgress(tx *gorm.DB, userAddress string, amountIndy float64) error {
	return s.updateTasksOfType(tx, userAddress, models.TaskTypePurchase, amountIndy)
}

// SubmitSocialProof verifies the proof URL with the external platform
// and, only on a positive verdict, completes the user's social tasks.
// A verifier that cannot be reached is an upstream failure, not a
// pass.
func (s *TaskService) SubmitSocialProof(ctx context.Context, userAddress, proofURL string) error {
	if proofURL == "" {
		return ErrInvalidProof
	}

	var user models.User
	if err := s.DB.Where("address = ?", userAddress).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user %s: %w", userAddress, err)
	}

	vctx, cancel := context.WithTimeout(ctx, s.UpstreamTimeout)
	defer cancel()

	ok, err := s.Verifier.VerifyProof(vctx, proofURL)
	if err != nil {
		if errors.Is(err, ErrInvalidProof) {
			return err
		}
		return classifyUpstream(err)
	}
	if !ok {
		return ErrUnverifiableProof
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.updateTasksOfType(tx, userAddress, models.TaskTypeSocial, 1)
	})
}

// --- Admin task management ---

type TaskInput struct {
	TaskID      string              `json:"task_id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	RewardIndy  float64             `json:"reward_indy"`
	Type        models.TaskType     `json:"type"`
	Target      float64             `json:"target"`
	Category    models.TaskCategory `json:"category"`
}

// CreateTask inserts a task and seeds a UserTask row for every
// existing user. TaskID defaults to a slug of the title.
func (s *TaskService) CreateTask(in TaskInput) (*models.Task, error) {
	if in.TaskID == "" {
		in.TaskID = slug.Make(in.Title)
	}

	task := &models.Task{
		ID:          uuid.NewString(),
		TaskID:      in.TaskID,
		Title:       in.Title,
		Description: in.Description,
		RewardIndy:  in.RewardIndy,
		Type:        in.Type,
		Target:      in.Target,
		Category:    in.Category,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Task{}).Where("task_id = ?", in.TaskID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrTaskExists
		}
		if err := tx.Create(task).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrTaskExists
			}
			return err
		}

		var users []models.User
		if err := tx.Find(&users).Error; err != nil {
			return fmt.Errorf("failed to load users for task seeding: %w", err)
		}
		if len(users) == 0 {
			return nil
		}

		userTasks := make([]models.UserTask, len(users))
		for i, u := range users {
			userTasks[i] = models.UserTask{
				ID:          uuid.NewString(),
				UserAddress: u.Address,
				TaskID:      task.TaskID,
				Progress:    0,
				Status:      models.UserTaskStatusAvailable,
			}
		}
		return tx.CreateInBatches(userTasks, seedBatchSize).Error
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

type TaskUpdate struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	RewardIndy  *float64             `json:"reward_indy"`
	Type        *models.TaskType     `json:"type"`
	Target      *float64             `json:"target"`
	Category    *models.TaskCategory `json:"category"`
}

// UpdateTask applies the provided fields to an existing task.
func (s *TaskService) UpdateTask(taskID string, updates TaskUpdate) (*models.Task, error) {
	var task models.Task
	if err := s.DB.Where("task_id = ?", taskID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	if updates.Title != nil {
		task.Title = *updates.Title
	}
	if updates.Description != nil {
		task.Description = *updates.Description
	}
	if updates.RewardIndy != nil {
		task.RewardIndy = *updates.RewardIndy
	}
	if updates.Type != nil {
		task.Type = *updates.Type
	}
	if updates.Target != nil {
		task.Target = *updates.Target
	}
	if updates.Category != nil {
		task.Category = *updates.Category
	}

	if err := s.DB.Save(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask removes a task and every UserTask row for it in one
// transaction.
func (s *TaskService) DeleteTask(taskID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("task_id = ?", taskID).Delete(&models.Task{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTaskNotFound
		}
		return tx.Where("task_id = ?", taskID).Delete(&models.UserTask{}).Error
	})
}

func (s *TaskService) GetAllTasks() ([]models.Task, error) {
	var tasks []models.Task
	if err := s.DB.Order("created_at ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// UserTaskView is the joined task + progress shape served to clients.
type UserTaskView struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Reward      string                `json:"reward"`
	Difficulty  models.TaskCategory   `json:"difficulty"`
	Progress    float64               `json:"progress"`
	Status      models.UserTaskStatus `json:"status"`
	Target      float64               `json:"target"`
}

// GetUserTasks returns every task with the user's progress folded in.
// Tasks the user has no row for yet show as available with progress 0.
func (s *TaskService) GetUserTasks(userAddress string) ([]UserTaskView, error) {
	var tasks []models.Task
	if err := s.DB.Order("created_at ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}

	var userTasks []models.UserTask
	if err := s.DB.Where("user_address = ?", userAddress).Find(&userTasks).Error; err != nil {
		return nil, err
	}
	byTaskID := make(map[string]models.UserTask, len(userTasks))
	for _, ut := range userTasks {
		byTaskID[ut.TaskID] = ut
	}

	views := make([]UserTaskView, len(tasks))
	for i, task := range tasks {
		view := UserTaskView{
			ID:          task.TaskID,
			Title:       task.Title,
			Description: task.Description,
			Reward:      fmt.Sprintf("%.0f INDY", task.RewardIndy),
			Difficulty:  task.Category,
			Status:      models.UserTaskStatusAvailable,
			Target:      task.Target,
		}
		if ut, ok := byTaskID[task.TaskID]; ok {
			view.Progress = ut.Progress
			view.Status = ut.Status
		}
		views[i] = view
	}
	return views, nil
}

// EnsureDefaultTasks seeds the stock tasks on first boot. Idempotent —
// existing task IDs are left alone.
func (s *TaskService) EnsureDefaultTasks() error {
	defaults := []models.Task{
		{
			TaskID:      "referral_invite_3",
			Title:       "Invite 3 Friends",
			Description: "Invite 3 friends to join the INDY adventure using your referral link.",
			RewardIndy:  10000,
			Type:        models.TaskTypeReferral,
			Target:      3,
			Category:    models.TaskCategoryEasy,
		},
		{
			TaskID:      "social_twitter_post",
			Title:       "Tweet About INDY",
			Description: "Write a tweet about INDY and share your referral link.",
			RewardIndy:  10000,
			Type:        models.TaskTypeSocial,
			Target:      1,
			Category:    models.TaskCategoryMedium,
		},
		{
			TaskID:      "purchase_1000_indy",
			Title:       "Purchase 1000 INDY",
			Description: "Buy at least 1000 INDY tokens to unlock this reward.",
			RewardIndy:  5000,
			Type:        models.TaskTypePurchase,
			Target:      1000,
			Category:    models.TaskCategoryHard,
		},
	}

	for _, task := range defaults {
		// Lookup by task_id only; a pre-set primary key would join the
		// query conditions and miss the existing row on restart.
		res := s.DB.Where("task_id = ?", task.TaskID).
			Attrs(models.Task{ID: uuid.NewString()}).
			FirstOrCreate(&task)
		if res.Error != nil {
			return fmt.Errorf("failed to seed task %s: %w", task.TaskID, res.Error)
		}
		if res.RowsAffected > 0 {
			log.Printf("Seeded default task: %s", task.TaskID)
		}
	}
	return nil
}
