package model

import (
	"time"

	"github.com/samber/lo"

	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

const TaskTableName = "tasks"

// 任务状态
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusReview     = "review"
	TaskStatusDone       = "done"
)

// 任务优先级
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
	TaskPriorityUrgent = "urgent"
)

var (
	taskStatuses   = []string{TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusDone}
	taskPriorities = []string{TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent}
)

// 状态对应的进度
var statusProgress = map[string]int{
	TaskStatusTodo:       0,
	TaskStatusInProgress: 50,
	TaskStatusReview:     75,
	TaskStatusDone:       100,
}

// Task 任务
type Task struct {
	BaseModel
	Title          string     `gorm:"size:255;not null" json:"title"`
	Description    *string    `gorm:"type:text" json:"description"`
	Status         string     `gorm:"size:50;not null;default:todo;index" json:"status"`
	Priority       string     `gorm:"size:50;not null;default:medium;index" json:"priority"`
	EstimatedHours *int       `json:"estimated_hours"`
	ActualHours    *int       `json:"actual_hours"`
	DueDate        *time.Time `gorm:"index" json:"due_date"`
	ProjectID      string     `gorm:"type:varchar(36);not null;index" json:"project_id"`
	AssigneeID     *string    `gorm:"type:varchar(36);index" json:"assignee_id"`
	SprintID       *string    `gorm:"type:varchar(36);index" json:"sprint_id"`

	Project  *Project `gorm:"foreignKey:ProjectID" json:"-"`
	Assignee *User    `gorm:"foreignKey:AssigneeID" json:"-"`
	Sprint   *Sprint  `gorm:"foreignKey:SprintID" json:"-"`
}

func (Task) TableName() string {
	return TaskTableName
}

// IsValidTaskStatus 状态是否合法
func IsValidTaskStatus(status string) bool {
	return lo.Contains(taskStatuses, status)
}

// IsValidTaskPriority 优先级是否合法
func IsValidTaskPriority(priority string) bool {
	return lo.Contains(taskPriorities, priority)
}

// IsOverdue 设置了截止时间, 已过期且未完成
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	return t.DueDate.Before(now) && t.Status != TaskStatusDone
}

// ProgressPercentage 按状态映射的进度
func (t *Task) ProgressPercentage() int {
	return statusProgress[t.Status]
}

// Validate 写入前校验, 截止时间另由 ValidateDueDate 在赋值时检查
func (t *Task) Validate() error {
	if t.Title == "" {
		return pkgErrors.NewValidation("title", "required", "Title is required")
	}
	if !IsValidTaskStatus(t.Status) {
		return pkgErrors.NewValidation("status", "task_status", "Invalid status")
	}
	if !IsValidTaskPriority(t.Priority) {
		return pkgErrors.NewValidation("priority", "task_priority", "Invalid priority level")
	}
	if t.EstimatedHours != nil && *t.EstimatedHours < 0 {
		return pkgErrors.NewValidation("estimated_hours", "gte", "Estimated hours must be non-negative")
	}
	if t.ActualHours != nil && *t.ActualHours < 0 {
		return pkgErrors.NewValidation("actual_hours", "gte", "Actual hours must be non-negative")
	}
	return nil
}

// ValidateDueDate 截止时间不能早于当前时间
func ValidateDueDate(due *time.Time, now time.Time) error {
	if due != nil && due.Before(now) {
		return pkgErrors.NewValidation("due_date", "not_past", "Due date cannot be in the past")
	}
	return nil
}
