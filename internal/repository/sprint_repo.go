package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

// SprintFilter 冲刺过滤条件
type SprintFilter struct {
	ProjectID string
	Status    string
}

type SprintRepository interface {
	Create(sprint *model.Sprint) error
	FindByID(id string) (*model.Sprint, error)
	List(filter SprintFilter, page Page) ([]*model.Sprint, int64, error)
	ListByProject(projectID string) ([]*model.Sprint, error)
	Update(sprint *model.Sprint) error
	// Delete 删除冲刺, 同一事务中清空其任务的 sprint_id
	Delete(id string) error
}

type sprintRepository struct {
	db *gorm.DB
}

func NewSprintRepository(db *gorm.DB) SprintRepository {
	return &sprintRepository{db: db}
}

func (r *sprintRepository) Create(sprint *model.Sprint) error {
	if err := r.db.Omit(clause.Associations).Create(sprint).Error; err != nil {
		return wrapError(err, "创建冲刺失败")
	}
	return nil
}

func (r *sprintRepository) FindByID(id string) (*model.Sprint, error) {
	var sprint model.Sprint
	if err := r.db.Where("id = ?", id).First(&sprint).Error; err != nil {
		return nil, wrapError(err, "查询冲刺失败")
	}
	return &sprint, nil
}

func (r *sprintRepository) List(filter SprintFilter, page Page) ([]*model.Sprint, int64, error) {
	applyFilters := func(db *gorm.DB) *gorm.DB {
		if filter.ProjectID != "" {
			db = db.Where("project_id = ?", filter.ProjectID)
		}
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		return db
	}

	var total int64
	if err := r.db.Model(&model.Sprint{}).Scopes(applyFilters).Count(&total).Error; err != nil {
		return nil, 0, wrapError(err, "统计冲刺数量失败")
	}

	sprints := make([]*model.Sprint, 0)
	if err := paginate(r.db.Scopes(applyFilters), page).Find(&sprints).Error; err != nil {
		return nil, 0, wrapError(err, "查询冲刺列表失败")
	}
	return sprints, total, nil
}

func (r *sprintRepository) ListByProject(projectID string) ([]*model.Sprint, error) {
	sprints := make([]*model.Sprint, 0)
	err := r.db.Where("project_id = ?", projectID).
		Order("start_date ASC").Order("id ASC").
		Find(&sprints).Error
	if err != nil {
		return nil, wrapError(err, "查询项目冲刺失败")
	}
	return sprints, nil
}

func (r *sprintRepository) Update(sprint *model.Sprint) error {
	if err := r.db.Omit(clause.Associations).Save(sprint).Error; err != nil {
		return wrapError(err, "更新冲刺失败")
	}
	return nil
}

func (r *sprintRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Task{}).
			Where("sprint_id = ?", id).
			Update("sprint_id", nil).Error; err != nil {
			return wrapError(err, "清除任务冲刺失败")
		}

		result := tx.Where("id = ?", id).Delete(&model.Sprint{})
		if result.Error != nil {
			return wrapError(result.Error, "删除冲刺失败")
		}
		if result.RowsAffected == 0 {
			return pkgErrors.ErrRecordNotFound
		}
		return nil
	})
}
