package model

import (
	"time"

	"github.com/samber/lo"

	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

const SprintTableName = "sprints"

// 冲刺状态
const (
	SprintStatusPlanning  = "planning"
	SprintStatusActive    = "active"
	SprintStatusCompleted = "completed"
)

var sprintStatuses = []string{SprintStatusPlanning, SprintStatusActive, SprintStatusCompleted}

// Sprint 冲刺
type Sprint struct {
	BaseModel
	Name      string    `gorm:"size:255;not null" json:"name"`
	Goal      *string   `gorm:"type:text" json:"goal"`
	Status    string    `gorm:"size:50;not null;default:planning;index" json:"status"`
	StartDate time.Time `gorm:"not null;index" json:"start_date"`
	EndDate   time.Time `gorm:"not null;index" json:"end_date"`
	ProjectID string    `gorm:"type:varchar(36);not null;index" json:"project_id"`

	Project *Project `gorm:"foreignKey:ProjectID" json:"-"`
}

func (Sprint) TableName() string {
	return SprintTableName
}

// IsValidSprintStatus 状态是否合法
func IsValidSprintStatus(status string) bool {
	return lo.Contains(sprintStatuses, status)
}

func (s *Sprint) IsActive() bool {
	return s.Status == SprintStatusActive
}

func (s *Sprint) IsCompleted() bool {
	return s.Status == SprintStatusCompleted
}

// DurationDays 结束与开始之间的整天数
func (s *Sprint) DurationDays() int {
	return int(s.EndDate.Sub(s.StartDate) / (24 * time.Hour))
}

// Validate 写入前校验; 每次创建与更新都会执行
func (s *Sprint) Validate() error {
	if s.Name == "" {
		return pkgErrors.NewValidation("name", "required", "Name is required")
	}
	if !IsValidSprintStatus(s.Status) {
		return pkgErrors.NewValidation("status", "sprint_status", "Invalid sprint status")
	}
	if !s.EndDate.After(s.StartDate) {
		return pkgErrors.NewValidation("end_date", "gtfield", "End date must be after start date")
	}
	return nil
}
