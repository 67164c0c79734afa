package dto

import "time"

// CreateTaskRequest 创建任务请求
type CreateTaskRequest struct {
	Title          string     `json:"title" binding:"required,max=255"`
	Description    *string    `json:"description"`
	Status         string     `json:"status" binding:"omitempty,task_status"`
	Priority       string     `json:"priority" binding:"omitempty,task_priority"`
	EstimatedHours *int       `json:"estimated_hours" binding:"omitempty,min=0"`
	ActualHours    *int       `json:"actual_hours" binding:"omitempty,min=0"`
	DueDate        *time.Time `json:"due_date"`
	ProjectID      string     `json:"project_id" binding:"required,uuid"`
	AssigneeID     *string    `json:"assignee_id" binding:"omitempty,uuid_or_empty"`
	SprintID       *string    `json:"sprint_id" binding:"omitempty,uuid_or_empty"`
}

// UpdateTaskRequest 更新任务请求; assignee_id/sprint_id 传空字符串表示清除
type UpdateTaskRequest struct {
	Title          *string    `json:"title" binding:"omitempty,min=1,max=255"`
	Description    *string    `json:"description"`
	Status         *string    `json:"status" binding:"omitempty,task_status"`
	Priority       *string    `json:"priority" binding:"omitempty,task_priority"`
	EstimatedHours *int       `json:"estimated_hours" binding:"omitempty,min=0"`
	ActualHours    *int       `json:"actual_hours" binding:"omitempty,min=0"`
	DueDate        *time.Time `json:"due_date"`
	AssigneeID     *string    `json:"assignee_id" binding:"omitempty,uuid_or_empty"`
	SprintID       *string    `json:"sprint_id" binding:"omitempty,uuid_or_empty"`
}

// TaskListQuery 任务列表查询参数
type TaskListQuery struct {
	ListQuery
	ProjectID  string `form:"project_id" binding:"omitempty,uuid"`
	AssigneeID string `form:"assignee_id" binding:"omitempty,uuid"`
	SprintID   string `form:"sprint_id" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,task_status"`
	Priority   string `form:"priority" binding:"omitempty,task_priority"`
}

// TaskResponse 任务响应
type TaskResponse struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        *string    `json:"description"`
	Status             string     `json:"status"`
	Priority           string     `json:"priority"`
	EstimatedHours     *int       `json:"estimated_hours"`
	ActualHours        *int       `json:"actual_hours"`
	DueDate            *time.Time `json:"due_date"`
	ProjectID          string     `json:"project_id"`
	AssigneeID         *string    `json:"assignee_id"`
	SprintID           *string    `json:"sprint_id"`
	IsOverdue          bool       `json:"is_overdue"`
	ProgressPercentage int        `json:"progress_percentage"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
