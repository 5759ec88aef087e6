package models

import "time"

// TaskType selects which progress rule applies to a task.
type TaskType string

const (
	TaskTypeReferral TaskType = "referral"
	TaskTypeSocial   TaskType = "social"
	TaskTypePurchase TaskType = "purchase"
	TaskTypeOther    TaskType = "other"
)

// TaskCategory is the difficulty label shown to the user.
type TaskCategory string

const (
	TaskCategoryEasy     TaskCategory = "Easy"
	TaskCategoryMedium   TaskCategory = "Medium"
	TaskCategoryHard     TaskCategory = "Hard"
	TaskCategoryVeryHard TaskCategory = "Very Hard"
)

// Task is an admin-defined goal. Deleting a task removes every
// UserTask row that references it.
type Task struct {
	ID          string       `gorm:"primaryKey;type:uuid" json:"id"`
	TaskID      string       `gorm:"uniqueIndex;not null" json:"task_id"`
	Title       string       `gorm:"not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	RewardIndy  float64      `gorm:"not null" json:"reward_indy"`
	Type        TaskType     `gorm:"not null" json:"type"`
	Target      float64      `gorm:"not null" json:"target"`
	Category    TaskCategory `gorm:"not null" json:"category"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// UserTaskStatus is the per-user task state machine. Transitions only
// move forward: available -> in-progress -> completed -> claimed.
type UserTaskStatus string

const (
	UserTaskStatusAvailable  UserTaskStatus = "available"
	UserTaskStatusInProgress UserTaskStatus = "in-progress"
	UserTaskStatusCompleted  UserTaskStatus = "completed"
	UserTaskStatusClaimed    UserTaskStatus = "claimed"
)

// Terminal reports whether no further progress updates apply.
func (s UserTaskStatus) Terminal() bool {
	return s == UserTaskStatusCompleted || s == UserTaskStatusClaimed
}

// UserTask tracks one user's progress on one task. Seeded for every
// existing task at registration and for every existing user at task
// creation.
type UserTask struct {
	ID          string         `gorm:"primaryKey;type:uuid" json:"id"`
	UserAddress string         `gorm:"uniqueIndex:idx_user_task;not null" json:"user_address"`
	TaskID      string         `gorm:"uniqueIndex:idx_user_task;index;not null" json:"task_id"`
	Progress    float64        `gorm:"not null;default:0" json:"progress"`
	Status      UserTaskStatus `gorm:"not null;default:'available'" json:"status"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	ClaimedAt   *time.Time     `json:"claimed_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
