package dto

import "time"

// CreateSprintRequest 创建冲刺请求
type CreateSprintRequest struct {
	Name      string    `json:"name" binding:"required,max=255"`
	Goal      *string   `json:"goal"`
	Status    string    `json:"status" binding:"omitempty,sprint_status"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
	ProjectID string    `json:"project_id" binding:"required,uuid"`
}

// UpdateSprintRequest 更新冲刺请求
type UpdateSprintRequest struct {
	Name      *string    `json:"name" binding:"omitempty,min=1,max=255"`
	Goal      *string    `json:"goal"`
	Status    *string    `json:"status" binding:"omitempty,sprint_status"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// SprintListQuery 冲刺列表查询参数
type SprintListQuery struct {
	ListQuery
	ProjectID string `form:"project_id" binding:"omitempty,uuid"`
	Status    string `form:"status" binding:"omitempty,sprint_status"`
}

// SprintResponse 冲刺响应
type SprintResponse struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Goal                 *string   `json:"goal"`
	Status               string    `json:"status"`
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`
	ProjectID            string    `json:"project_id"`
	IsActive             bool      `json:"is_active"`
	IsCompleted          bool      `json:"is_completed"`
	DurationDays         int       `json:"duration_days"`
	TaskCount            int64     `json:"task_count"`
	CompletionPercentage float64   `json:"completion_percentage"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
