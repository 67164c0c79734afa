package model

import (
	"github.com/samber/lo"
	"gorm.io/datatypes"

	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

const ProjectTableName = "projects"

// 项目状态
const (
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
	ProjectStatusArchived  = "archived"
)

var projectStatuses = []string{ProjectStatusActive, ProjectStatusCompleted, ProjectStatusArchived}

// Project 项目
type Project struct {
	BaseModel
	Name        string         `gorm:"size:255;not null" json:"name"`
	Description *string        `gorm:"type:text" json:"description"`
	Status      string         `gorm:"size:50;not null;default:active;index" json:"status"`
	Settings    datatypes.JSON `json:"settings"`
	OwnerID     string         `gorm:"type:varchar(36);not null;index" json:"owner_id"`
	TeamID      string         `gorm:"type:varchar(36);not null;index" json:"team_id"`

	Owner *User `gorm:"foreignKey:OwnerID" json:"-"`
	Team  *Team `gorm:"foreignKey:TeamID" json:"-"`
}

func (Project) TableName() string {
	return ProjectTableName
}

// IsValidProjectStatus 状态是否合法
func IsValidProjectStatus(status string) bool {
	return lo.Contains(projectStatuses, status)
}

// IsActive 是否进行中
func (p *Project) IsActive() bool {
	return p.Status == ProjectStatusActive
}

// Validate 写入前校验
func (p *Project) Validate() error {
	if p.Name == "" {
		return pkgErrors.NewValidation("name", "required", "Name is required")
	}
	if !IsValidProjectStatus(p.Status) {
		return pkgErrors.NewValidation("status", "project_status", "Invalid project status")
	}
	return nil
}
