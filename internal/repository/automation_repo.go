package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

// AutomationFilter 自动化规则过滤条件
type AutomationFilter struct {
	ProjectID   string
	Enabled     *bool
	TriggerType string
}

type AutomationRepository interface {
	Create(automation *model.Automation) error
	FindByID(id string) (*model.Automation, error)
	List(filter AutomationFilter, page Page) ([]*model.Automation, int64, error)
	// ListActive 启用的规则: 指定触发器, 全局或属于该项目
	ListActive(triggerType, projectID string) ([]*model.Automation, error)
	Update(automation *model.Automation) error
	Delete(id string) error
}

type automationRepository struct {
	db *gorm.DB
}

func NewAutomationRepository(db *gorm.DB) AutomationRepository {
	return &automationRepository{db: db}
}

func (r *automationRepository) Create(automation *model.Automation) error {
	if err := r.db.Omit(clause.Associations).Create(automation).Error; err != nil {
		return wrapError(err, "创建自动化规则失败")
	}
	return nil
}

func (r *automationRepository) FindByID(id string) (*model.Automation, error) {
	var automation model.Automation
	if err := r.db.Where("id = ?", id).First(&automation).Error; err != nil {
		return nil, wrapError(err, "查询自动化规则失败")
	}
	return &automation, nil
}

func (r *automationRepository) List(filter AutomationFilter, page Page) ([]*model.Automation, int64, error) {
	applyFilters := func(db *gorm.DB) *gorm.DB {
		if filter.ProjectID != "" {
			db = db.Where("project_id = ?", filter.ProjectID)
		}
		if filter.Enabled != nil {
			db = db.Where("enabled = ?", *filter.Enabled)
		}
		if filter.TriggerType != "" {
			db = db.Where("trigger_type = ?", filter.TriggerType)
		}
		return db
	}

	var total int64
	if err := r.db.Model(&model.Automation{}).Scopes(applyFilters).Count(&total).Error; err != nil {
		return nil, 0, wrapError(err, "统计自动化规则数量失败")
	}

	automations := make([]*model.Automation, 0)
	if err := paginate(r.db.Scopes(applyFilters), page).Find(&automations).Error; err != nil {
		return nil, 0, wrapError(err, "查询自动化规则列表失败")
	}
	return automations, total, nil
}

func (r *automationRepository) ListActive(triggerType, projectID string) ([]*model.Automation, error) {
	automations := make([]*model.Automation, 0)
	err := r.db.Where("enabled = ? AND trigger_type = ?", true, triggerType).
		Where("project_id IS NULL OR project_id = ?", projectID).
		Order("created_at ASC").Order("id ASC").
		Find(&automations).Error
	if err != nil {
		return nil, wrapError(err, "查询自动化规则失败")
	}
	return automations, nil
}

func (r *automationRepository) Update(automation *model.Automation) error {
	if err := r.db.Omit(clause.Associations).Save(automation).Error; err != nil {
		return wrapError(err, "更新自动化规则失败")
	}
	return nil
}

func (r *automationRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&model.Automation{})
	if result.Error != nil {
		return wrapError(result.Error, "删除自动化规则失败")
	}
	if result.RowsAffected == 0 {
		return pkgErrors.ErrRecordNotFound
	}
	return nil
}
