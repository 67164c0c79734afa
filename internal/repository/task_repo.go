package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

// TaskFilter 任务过滤条件
type TaskFilter struct {
	ProjectID  string
	AssigneeID string
	SprintID   string
	Status     string
	Priority   string
}

// TaskStats 任务统计
type TaskStats struct {
	Total int64
	Done  int64
}

type TaskRepository interface {
	Create(task *model.Task) error
	FindByID(id string) (*model.Task, error)
	List(filter TaskFilter, page Page) ([]*model.Task, int64, error)
	Update(task *model.Task) error
	Delete(id string) error
	// CountByStatus 按状态统计, filter 中只使用 ProjectID 与 SprintID
	CountByStatus(filter TaskFilter) ([]StatusCount, error)
	// Stats 总数与完成数
	Stats(filter TaskFilter) (*TaskStats, error)
	CountOverdue(projectID string, now time.Time) (int64, error)
}

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func taskFilters(filter TaskFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.ProjectID != "" {
			db = db.Where("project_id = ?", filter.ProjectID)
		}
		if filter.AssigneeID != "" {
			db = db.Where("assignee_id = ?", filter.AssigneeID)
		}
		if filter.SprintID != "" {
			db = db.Where("sprint_id = ?", filter.SprintID)
		}
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		if filter.Priority != "" {
			db = db.Where("priority = ?", filter.Priority)
		}
		return db
	}
}

func (r *taskRepository) Create(task *model.Task) error {
	if err := r.db.Omit(clause.Associations).Create(task).Error; err != nil {
		return wrapError(err, "创建任务失败")
	}
	return nil
}

func (r *taskRepository) FindByID(id string) (*model.Task, error) {
	var task model.Task
	if err := r.db.Where("id = ?", id).First(&task).Error; err != nil {
		return nil, wrapError(err, "查询任务失败")
	}
	return &task, nil
}

func (r *taskRepository) List(filter TaskFilter, page Page) ([]*model.Task, int64, error) {
	applyFilters := taskFilters(filter)

	var total int64
	if err := r.db.Model(&model.Task{}).Scopes(applyFilters).Count(&total).Error; err != nil {
		return nil, 0, wrapError(err, "统计任务数量失败")
	}

	tasks := make([]*model.Task, 0)
	if err := paginate(r.db.Scopes(applyFilters), page).Find(&tasks).Error; err != nil {
		return nil, 0, wrapError(err, "查询任务列表失败")
	}
	return tasks, total, nil
}

func (r *taskRepository) Update(task *model.Task) error {
	if err := r.db.Omit(clause.Associations).Save(task).Error; err != nil {
		return wrapError(err, "更新任务失败")
	}
	return nil
}

func (r *taskRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&model.Task{})
	if result.Error != nil {
		return wrapError(result.Error, "删除任务失败")
	}
	if result.RowsAffected == 0 {
		return pkgErrors.ErrRecordNotFound
	}
	return nil
}

func (r *taskRepository) CountByStatus(filter TaskFilter) ([]StatusCount, error) {
	counts := make([]StatusCount, 0)
	err := r.db.Model(&model.Task{}).
		Scopes(taskFilters(TaskFilter{ProjectID: filter.ProjectID, SprintID: filter.SprintID})).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, wrapError(err, "统计任务状态失败")
	}
	return counts, nil
}

func (r *taskRepository) Stats(filter TaskFilter) (*TaskStats, error) {
	counts, err := r.CountByStatus(filter)
	if err != nil {
		return nil, err
	}
	stats := &TaskStats{}
	for _, c := range counts {
		stats.Total += c.Count
		if c.Status == model.TaskStatusDone {
			stats.Done += c.Count
		}
	}
	return stats, nil
}

func (r *taskRepository) CountOverdue(projectID string, now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.Task{}).
		Where("project_id = ? AND due_date IS NOT NULL AND due_date < ? AND status <> ?",
			projectID, now, model.TaskStatusDone).
		Count(&count).Error
	if err != nil {
		return 0, wrapError(err, "统计逾期任务失败")
	}
	return count, nil
}
