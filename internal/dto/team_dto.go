package dto

import (
	"encoding/json"
	"time"
)

// CreateTeamRequest 创建团队请求
type CreateTeamRequest struct {
	Name        string          `json:"name" binding:"required,max=255"`
	Description *string         `json:"description"`
	Settings    json.RawMessage `json:"settings"`
}

// UpdateTeamRequest 更新团队请求
type UpdateTeamRequest struct {
	Name        *string         `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string         `json:"description"`
	Settings    json.RawMessage `json:"settings"`
}

// TeamListQuery 团队列表查询参数
type TeamListQuery struct {
	ListQuery
}

// TeamResponse 团队响应
type TeamResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Settings    json.RawMessage `json:"settings"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
