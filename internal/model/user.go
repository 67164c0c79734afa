package model

import (
	"strings"

	"github.com/samber/lo"

	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

const UserTableName = "users"

// 用户角色
const (
	UserRoleOwner       = "owner"
	UserRoleAdmin       = "admin"
	UserRolePM          = "pm"
	UserRoleContributor = "contributor"
	UserRoleViewer      = "viewer"
)

var userRoles = []string{UserRoleOwner, UserRoleAdmin, UserRolePM, UserRoleContributor, UserRoleViewer}

// User 用户
type User struct {
	BaseModel
	Email          string  `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Name           string  `gorm:"size:255;not null" json:"name"`
	Avatar         *string `gorm:"size:500" json:"avatar"`
	HashedPassword string  `gorm:"size:255;not null" json:"-"` // 不返回到前端
	IsActive       bool    `gorm:"not null" json:"is_active"`
	IsVerified     bool    `gorm:"not null" json:"is_verified"`
	Role           string  `gorm:"size:50;not null;default:contributor;index" json:"role"`
	TeamID         string  `gorm:"type:varchar(36);not null;index" json:"team_id"`

	Team *Team `gorm:"foreignKey:TeamID" json:"-"`
}

// TableName 指定表名
func (User) TableName() string {
	return UserTableName
}

// IsValidUserRole 角色是否合法
func IsValidUserRole(role string) bool {
	return lo.Contains(userRoles, role)
}

// IsAdmin owner 或 admin
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleOwner || u.Role == UserRoleAdmin
}

// IsProjectManager owner, admin 或 pm
func (u *User) IsProjectManager() bool {
	return u.IsAdmin() || u.Role == UserRolePM
}

// Validate 写入前校验
func (u *User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return pkgErrors.NewValidation("email", "required", "Email is required")
	}
	if strings.TrimSpace(u.Name) == "" {
		return pkgErrors.NewValidation("name", "required", "Name is required")
	}
	if !IsValidUserRole(u.Role) {
		return pkgErrors.NewValidation("role", "user_role", "Invalid role")
	}
	return nil
}
