package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

// ProjectFilter 项目过滤条件
type ProjectFilter struct {
	TeamID  string
	OwnerID string
	Status  string
}

type ProjectRepository interface {
	Create(project *model.Project) error
	FindByID(id string) (*model.Project, error)
	List(filter ProjectFilter, page Page) ([]*model.Project, int64, error)
	Update(project *model.Project) error
	// Delete 级联删除项目下的任务, 冲刺与自动化规则, 整体在一个事务内完成
	Delete(id string) error
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(project *model.Project) error {
	if err := r.db.Omit(clause.Associations).Create(project).Error; err != nil {
		return wrapError(err, "创建项目失败")
	}
	return nil
}

func (r *projectRepository) FindByID(id string) (*model.Project, error) {
	var project model.Project
	if err := r.db.Where("id = ?", id).First(&project).Error; err != nil {
		return nil, wrapError(err, "查询项目失败")
	}
	return &project, nil
}

func (r *projectRepository) List(filter ProjectFilter, page Page) ([]*model.Project, int64, error) {
	applyFilters := func(db *gorm.DB) *gorm.DB {
		if filter.TeamID != "" {
			db = db.Where("team_id = ?", filter.TeamID)
		}
		if filter.OwnerID != "" {
			db = db.Where("owner_id = ?", filter.OwnerID)
		}
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		return db
	}

	var total int64
	if err := r.db.Model(&model.Project{}).Scopes(applyFilters).Count(&total).Error; err != nil {
		return nil, 0, wrapError(err, "统计项目数量失败")
	}

	projects := make([]*model.Project, 0)
	if err := paginate(r.db.Scopes(applyFilters), page).Find(&projects).Error; err != nil {
		return nil, 0, wrapError(err, "查询项目列表失败")
	}
	return projects, total, nil
}

func (r *projectRepository) Update(project *model.Project) error {
	if err := r.db.Omit(clause.Associations).Save(project).Error; err != nil {
		return wrapError(err, "更新项目失败")
	}
	return nil
}

func (r *projectRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Project{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return wrapError(err, "查询项目失败")
		}
		if count == 0 {
			return pkgErrors.ErrRecordNotFound
		}

		// 任务引用冲刺, 需先于冲刺删除
		if err := tx.Where("project_id = ?", id).Delete(&model.Task{}).Error; err != nil {
			return wrapError(err, "删除项目任务失败")
		}
		if err := tx.Where("project_id = ?", id).Delete(&model.Sprint{}).Error; err != nil {
			return wrapError(err, "删除项目冲刺失败")
		}
		if err := tx.Where("project_id = ?", id).Delete(&model.Automation{}).Error; err != nil {
			return wrapError(err, "删除项目自动化规则失败")
		}
		if err := tx.Where("id = ?", id).Delete(&model.Project{}).Error; err != nil {
			return wrapError(err, "删除项目失败")
		}
		return nil
	})
}
