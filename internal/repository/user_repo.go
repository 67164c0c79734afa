package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

// UserFilter 用户过滤条件
type UserFilter struct {
	TeamID   string
	Role     string
	IsActive *bool
}

type UserRepository interface {
	Create(user *model.User) error
	// CreateWithTeam 在同一事务中创建团队及其首个用户
	CreateWithTeam(team *model.Team, user *model.User) error
	FindByID(id string) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	List(filter UserFilter, page Page) ([]*model.User, int64, error)
	Update(user *model.User) error
	// Delete 删除用户并在同一事务中取消其任务指派
	Delete(id string) error
	CountOwnedProjects(id string) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	if err := r.db.Omit(clause.Associations).Create(user).Error; err != nil {
		return wrapError(err, "创建用户失败")
	}
	return nil
}

func (r *userRepository) CreateWithTeam(team *model.Team, user *model.User) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(team).Error; err != nil {
			return wrapError(err, "创建团队失败")
		}
		user.TeamID = team.ID
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return wrapError(err, "创建用户失败")
		}
		return nil
	})
}

func (r *userRepository) FindByID(id string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, wrapError(err, "查询用户失败")
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, wrapError(err, "查询用户失败")
	}
	return &user, nil
}

func (r *userRepository) List(filter UserFilter, page Page) ([]*model.User, int64, error) {
	applyFilters := func(db *gorm.DB) *gorm.DB {
		if filter.TeamID != "" {
			db = db.Where("team_id = ?", filter.TeamID)
		}
		if filter.Role != "" {
			db = db.Where("role = ?", filter.Role)
		}
		if filter.IsActive != nil {
			db = db.Where("is_active = ?", *filter.IsActive)
		}
		return db
	}

	var total int64
	if err := r.db.Model(&model.User{}).Scopes(applyFilters).Count(&total).Error; err != nil {
		return nil, 0, wrapError(err, "统计用户数量失败")
	}

	users := make([]*model.User, 0)
	if err := paginate(r.db.Scopes(applyFilters), page).Find(&users).Error; err != nil {
		return nil, 0, wrapError(err, "查询用户列表失败")
	}
	return users, total, nil
}

func (r *userRepository) Update(user *model.User) error {
	if err := r.db.Omit(clause.Associations).Save(user).Error; err != nil {
		return wrapError(err, "更新用户失败")
	}
	return nil
}

func (r *userRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Task{}).
			Where("assignee_id = ?", id).
			Update("assignee_id", nil).Error; err != nil {
			return wrapError(err, "取消任务指派失败")
		}

		result := tx.Where("id = ?", id).Delete(&model.User{})
		if result.Error != nil {
			return wrapError(result.Error, "删除用户失败")
		}
		if result.RowsAffected == 0 {
			return pkgErrors.ErrRecordNotFound
		}
		return nil
	})
}

func (r *userRepository) CountOwnedProjects(id string) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Project{}).Where("owner_id = ?", id).Count(&count).Error; err != nil {
		return 0, wrapError(err, "统计用户项目失败")
	}
	return count, nil
}
