package dto

import "time"

// CreateUserRequest 创建用户请求
type CreateUserRequest struct {
	Email    string  `json:"email" binding:"required,email,max=255"`
	Name     string  `json:"name" binding:"required,max=255"`
	Password string  `json:"password" binding:"required,min=8,max=72"`
	Role     string  `json:"role" binding:"omitempty,user_role"`
	TeamID   string  `json:"team_id" binding:"required,uuid"`
	Avatar   *string `json:"avatar" binding:"omitempty,max=500"`
	IsActive *bool   `json:"is_active"`
}

// UpdateUserRequest 更新用户请求
type UpdateUserRequest struct {
	Email      *string `json:"email" binding:"omitempty,email,max=255"`
	Name       *string `json:"name" binding:"omitempty,min=1,max=255"`
	Password   *string `json:"password" binding:"omitempty,min=8,max=72"`
	Role       *string `json:"role" binding:"omitempty,user_role"`
	TeamID     *string `json:"team_id" binding:"omitempty,uuid"`
	Avatar     *string `json:"avatar" binding:"omitempty,max=500"`
	IsActive   *bool   `json:"is_active"`
	IsVerified *bool   `json:"is_verified"`
}

// UpdateMeRequest 修改个人资料, 不允许修改角色与团队
type UpdateMeRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=255"`
	Password *string `json:"password" binding:"omitempty,min=8,max=72"`
	Avatar   *string `json:"avatar" binding:"omitempty,max=500"`
}

// UserListQuery 用户列表查询参数
type UserListQuery struct {
	ListQuery
	TeamID   string `form:"team_id" binding:"omitempty,uuid"`
	Role     string `form:"role" binding:"omitempty,user_role"`
	IsActive *bool  `form:"is_active"`
}

// UserResponse 用户响应
type UserResponse struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Avatar           *string   `json:"avatar"`
	IsActive         bool      `json:"is_active"`
	IsVerified       bool      `json:"is_verified"`
	Role             string    `json:"role"`
	TeamID           string    `json:"team_id"`
	IsAdmin          bool      `json:"is_admin"`
	IsProjectManager bool      `json:"is_project_manager"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
