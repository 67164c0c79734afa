package dto

import (
	"encoding/json"
	"time"
)

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Name        string          `json:"name" binding:"required,max=255"`
	Description *string         `json:"description"`
	Status      string          `json:"status" binding:"omitempty,project_status"`
	Settings    json.RawMessage `json:"settings"`
	OwnerID     string          `json:"owner_id" binding:"omitempty,uuid"` // 默认当前用户
	TeamID      string          `json:"team_id" binding:"omitempty,uuid"`  // 默认当前用户所在团队
}

// UpdateProjectRequest 更新项目请求
type UpdateProjectRequest struct {
	Name        *string         `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string         `json:"description"`
	Status      *string         `json:"status" binding:"omitempty,project_status"`
	Settings    json.RawMessage `json:"settings"`
	OwnerID     *string         `json:"owner_id" binding:"omitempty,uuid"`
}

// ProjectListQuery 项目列表查询参数
type ProjectListQuery struct {
	ListQuery
	TeamID  string `form:"team_id" binding:"omitempty,uuid"`
	OwnerID string `form:"owner_id" binding:"omitempty,uuid"`
	Status  string `form:"status" binding:"omitempty,project_status"`
}

// ProjectResponse 项目响应
type ProjectResponse struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Description          *string         `json:"description"`
	Status               string          `json:"status"`
	Settings             json.RawMessage `json:"settings"`
	OwnerID              string          `json:"owner_id"`
	TeamID               string          `json:"team_id"`
	IsActive             bool            `json:"is_active"`
	TaskCount            int64           `json:"task_count"`
	CompletionPercentage float64         `json:"completion_percentage"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}
