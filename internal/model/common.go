package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel 基础模型, 主键为 UUID 字符串
type BaseModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// BeforeCreate 未指定主键时生成 UUIDv4
func (m *BaseModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// CompletionPercentage 完成百分比, 无任务时为 0
func CompletionPercentage(total, done int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(done) / float64(total) * 100
}

// Enums 自定义校验规则名到合法取值
func Enums() map[string][]string {
	return map[string][]string{
		"task_status":    append([]string(nil), taskStatuses...),
		"task_priority":  append([]string(nil), taskPriorities...),
		"sprint_status":  append([]string(nil), sprintStatuses...),
		"project_status": append([]string(nil), projectStatuses...),
		"user_role":      append([]string(nil), userRoles...),
	}
}
