package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

type TeamRepository interface {
	Create(team *model.Team) error
	FindByID(id string) (*model.Team, error)
	FindByName(name string) (*model.Team, error)
	List(page Page) ([]*model.Team, int64, error)
	Update(team *model.Team) error
	Delete(id string) error
	// CountReferences 统计引用该团队的用户与项目数量
	CountReferences(id string) (users int64, projects int64, err error)
}

type teamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) Create(team *model.Team) error {
	if err := r.db.Omit(clause.Associations).Create(team).Error; err != nil {
		return wrapError(err, "创建团队失败")
	}
	return nil
}

func (r *teamRepository) FindByID(id string) (*model.Team, error) {
	var team model.Team
	if err := r.db.Where("id = ?", id).First(&team).Error; err != nil {
		return nil, wrapError(err, "查询团队失败")
	}
	return &team, nil
}

func (r *teamRepository) FindByName(name string) (*model.Team, error) {
	var team model.Team
	if err := r.db.Where("name = ?", name).Order("created_at ASC").First(&team).Error; err != nil {
		return nil, wrapError(err, "查询团队失败")
	}
	return &team, nil
}

func (r *teamRepository) List(page Page) ([]*model.Team, int64, error) {
	var total int64
	if err := r.db.Model(&model.Team{}).Count(&total).Error; err != nil {
		return nil, 0, wrapError(err, "统计团队数量失败")
	}

	teams := make([]*model.Team, 0)
	if err := paginate(r.db, page).Find(&teams).Error; err != nil {
		return nil, 0, wrapError(err, "查询团队列表失败")
	}
	return teams, total, nil
}

func (r *teamRepository) Update(team *model.Team) error {
	if err := r.db.Omit(clause.Associations).Save(team).Error; err != nil {
		return wrapError(err, "更新团队失败")
	}
	return nil
}

func (r *teamRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&model.Team{})
	if result.Error != nil {
		return wrapError(result.Error, "删除团队失败")
	}
	if result.RowsAffected == 0 {
		return pkgErrors.ErrRecordNotFound
	}
	return nil
}

func (r *teamRepository) CountReferences(id string) (int64, int64, error) {
	var users, projects int64
	if err := r.db.Model(&model.User{}).Where("team_id = ?", id).Count(&users).Error; err != nil {
		return 0, 0, wrapError(err, "统计团队用户失败")
	}
	if err := r.db.Model(&model.Project{}).Where("team_id = ?", id).Count(&projects).Error; err != nil {
		return 0, 0, wrapError(err, "统计团队项目失败")
	}
	return users, projects, nil
}
