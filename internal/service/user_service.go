package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/dto"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/storage"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/repository"
	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

// 允许的头像格式
var avatarTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// AvatarUpload 头像文件
type AvatarUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type UserService interface {
	Create(req *dto.CreateUserRequest) (*dto.UserResponse, error)
	GetByID(id string) (*dto.UserResponse, error)
	List(query *dto.UserListQuery) ([]*dto.UserResponse, int64, error)
	Update(id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	UpdateMe(id string, req *dto.UpdateMeRequest) (*dto.UserResponse, error)
	UploadAvatar(ctx context.Context, id string, file *AvatarUpload) (*dto.UserResponse, error)
	Delete(id string) error
}

type userService struct {
	repo     repository.UserRepository
	teamRepo repository.TeamRepository
	storage  storage.ObjectStorage // 可为 nil
	logger   *zap.Logger
}

func NewUserService(
	repo repository.UserRepository,
	teamRepo repository.TeamRepository,
	objectStorage storage.ObjectStorage,
	logger *zap.Logger,
) UserService {
	return &userService{
		repo:     repo,
		teamRepo: teamRepo,
		storage:  objectStorage,
		logger:   logger,
	}
}

func (s *userService) Create(req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	email := normalizeEmail(req.Email)
	if err := s.ensureEmailFree(email); err != nil {
		return nil, err
	}
	if _, err := s.teamRepo.FindByID(req.TeamID); err != nil {
		return nil, notFound(err, "Team")
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:          email,
		Name:           req.Name,
		Avatar:         req.Avatar,
		HashedPassword: hashed,
		IsActive:       lo.FromPtrOr(req.IsActive, true),
		Role:           lo.Ternary(req.Role != "", req.Role, model.UserRoleContributor),
		TeamID:         req.TeamID,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(user); err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *userService) GetByID(id string) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(id)
	if err != nil {
		return nil, notFound(err, "User")
	}
	return toUserResponse(user), nil
}

func (s *userService) List(query *dto.UserListQuery) ([]*dto.UserResponse, int64, error) {
	filter := repository.UserFilter{
		TeamID:   query.TeamID,
		Role:     query.Role,
		IsActive: query.IsActive,
	}
	users, total, err := s.repo.List(filter, pageOf(&query.ListQuery))
	if err != nil {
		return nil, 0, err
	}
	return lo.Map(users, func(u *model.User, _ int) *dto.UserResponse { return toUserResponse(u) }), total, nil
}

func (s *userService) Update(id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(id)
	if err != nil {
		return nil, notFound(err, "User")
	}

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != user.Email {
			if err := s.ensureEmailFree(email); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}
	if req.TeamID != nil && *req.TeamID != user.TeamID {
		if _, err := s.teamRepo.FindByID(*req.TeamID); err != nil {
			return nil, notFound(err, "Team")
		}
		user.TeamID = *req.TeamID
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Avatar != nil {
		user.Avatar = req.Avatar
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.IsVerified != nil {
		user.IsVerified = *req.IsVerified
	}
	if req.Password != nil {
		if err := setPassword(user, *req.Password); err != nil {
			return nil, err
		}
	}

	return s.save(user)
}

// UpdateMe 修改个人资料
func (s *userService) UpdateMe(id string, req *dto.UpdateMeRequest) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(id)
	if err != nil {
		return nil, notFound(err, "User")
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Avatar != nil {
		user.Avatar = req.Avatar
	}
	if req.Password != nil {
		if err := setPassword(user, *req.Password); err != nil {
			return nil, err
		}
	}

	return s.save(user)
}

// UploadAvatar 上传头像到对象存储并更新用户
func (s *userService) UploadAvatar(ctx context.Context, id string, file *AvatarUpload) (*dto.UserResponse, error) {
	if s.storage == nil {
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "Object storage is not configured")
	}

	ext, ok := avatarTypes[file.ContentType]
	if !ok {
		return nil, pkgErrors.NewValidation("file", "image", "Avatar must be a PNG, JPEG, GIF or WebP image")
	}

	user, err := s.repo.FindByID(id)
	if err != nil {
		return nil, notFound(err, "User")
	}

	objectName := path.Join("avatars", user.ID, uuid.NewString()+ext)
	url, err := s.storage.PutObject(ctx, objectName, file.Reader, file.Size, file.ContentType)
	if err != nil {
		s.logger.Error("上传头像失败", zap.String("user_id", user.ID), zap.Error(err))
		return nil, pkgErrors.Wrap(pkgErrors.CodeUpstreamError, "Failed to upload avatar", err)
	}
	s.logger.Info("头像已上传", zap.String("user_id", user.ID), zap.String("object", objectName))

	user.Avatar = &url
	return s.save(user)
}

// Delete 解除任务指派后删除; 仍拥有项目时拒绝
func (s *userService) Delete(id string) error {
	if _, err := s.repo.FindByID(id); err != nil {
		return notFound(err, "User")
	}

	owned, err := s.repo.CountOwnedProjects(id)
	if err != nil {
		return err
	}
	if owned > 0 {
		return pkgErrors.New(pkgErrors.CodeConflict, fmt.Sprintf("User still owns %d project(s)", owned))
	}

	return notFound(s.repo.Delete(id), "User")
}

func (s *userService) save(user *model.User) (*dto.UserResponse, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(user); err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *userService) ensureEmailFree(email string) error {
	existing, err := s.repo.FindByEmail(email)
	if err == nil && existing != nil {
		return pkgErrors.New(pkgErrors.CodeConflict, "Email already registered")
	}
	if err != nil && !pkgErrors.IsNotFound(err) {
		return err
	}
	return nil
}

func setPassword(user *model.User, password string) error {
	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}
	user.HashedPassword = hashed
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserResponse(user *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:               user.ID,
		Email:            user.Email,
		Name:             user.Name,
		Avatar:           user.Avatar,
		IsActive:         user.IsActive,
		IsVerified:       user.IsVerified,
		Role:             user.Role,
		TeamID:           user.TeamID,
		IsAdmin:          user.IsAdmin(),
		IsProjectManager: user.IsProjectManager(),
		CreatedAt:        user.CreatedAt,
		UpdatedAt:        user.UpdatedAt,
	}
}
