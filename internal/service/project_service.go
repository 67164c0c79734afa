package service

import (
	"go.uber.org/zap"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/dto"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/repository"
)

type ProjectService interface {
	// Create 未指定 owner/team 时取当前用户及其团队
	Create(req *dto.CreateProjectRequest, callerID string) (*dto.ProjectResponse, error)
	GetByID(id string) (*dto.ProjectResponse, error)
	List(query *dto.ProjectListQuery) ([]*dto.ProjectResponse, int64, error)
	Update(id string, req *dto.UpdateProjectRequest) (*dto.ProjectResponse, error)
	Delete(id string) error
}

type projectService struct {
	repo     repository.ProjectRepository
	userRepo repository.UserRepository
	teamRepo repository.TeamRepository
	taskRepo repository.TaskRepository
	reloader ScheduleReloader
	logger   *zap.Logger
}

func NewProjectService(
	repo repository.ProjectRepository,
	userRepo repository.UserRepository,
	teamRepo repository.TeamRepository,
	taskRepo repository.TaskRepository,
	reloader ScheduleReloader,
	logger *zap.Logger,
) ProjectService {
	return &projectService{
		repo:     repo,
		userRepo: userRepo,
		teamRepo: teamRepo,
		taskRepo: taskRepo,
		reloader: reloader,
		logger:   logger,
	}
}

func (s *projectService) Create(req *dto.CreateProjectRequest, callerID string) (*dto.ProjectResponse, error) {
	ownerID := req.OwnerID
	if ownerID == "" {
		ownerID = callerID
	}
	owner, err := s.userRepo.FindByID(ownerID)
	if err != nil {
		return nil, notFound(err, "User")
	}

	teamID := req.TeamID
	if teamID == "" {
		teamID = owner.TeamID
	}
	if _, err := s.teamRepo.FindByID(teamID); err != nil {
		return nil, notFound(err, "Team")
	}

	settings, err := settingsJSON(req.Settings)
	if err != nil {
		return nil, err
	}

	project := &model.Project{
		Name:        req.Name,
		Description: req.Description,
		Status:      model.ProjectStatusActive,
		Settings:    settings,
		OwnerID:     owner.ID,
		TeamID:      teamID,
	}
	if req.Status != "" {
		project.Status = req.Status
	}
	if err := project.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(project); err != nil {
		return nil, err
	}
	return s.toResponse(project)
}

func (s *projectService) GetByID(id string) (*dto.ProjectResponse, error) {
	project, err := s.repo.FindByID(id)
	if err != nil {
		return nil, notFound(err, "Project")
	}
	return s.toResponse(project)
}

func (s *projectService) List(query *dto.ProjectListQuery) ([]*dto.ProjectResponse, int64, error) {
	filter := repository.ProjectFilter{
		TeamID:  query.TeamID,
		OwnerID: query.OwnerID,
		Status:  query.Status,
	}
	projects, total, err := s.repo.List(filter, pageOf(&query.ListQuery))
	if err != nil {
		return nil, 0, err
	}

	resp := make([]*dto.ProjectResponse, 0, len(projects))
	for _, p := range projects {
		item, err := s.toResponse(p)
		if err != nil {
			return nil, 0, err
		}
		resp = append(resp, item)
	}
	return resp, total, nil
}

func (s *projectService) Update(id string, req *dto.UpdateProjectRequest) (*dto.ProjectResponse, error) {
	project, err := s.repo.FindByID(id)
	if err != nil {
		return nil, notFound(err, "Project")
	}

	if req.OwnerID != nil && *req.OwnerID != project.OwnerID {
		if _, err := s.userRepo.FindByID(*req.OwnerID); err != nil {
			return nil, notFound(err, "User")
		}
		project.OwnerID = *req.OwnerID
	}
	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = req.Description
	}
	if req.Status != nil {
		project.Status = *req.Status
	}
	if req.Settings != nil {
		settings, err := settingsJSON(req.Settings)
		if err != nil {
			return nil, err
		}
		project.Settings = settings
	}

	if err := project.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(project); err != nil {
		return nil, err
	}
	return s.toResponse(project)
}

// Delete 级联删除项目下的任务, 冲刺与自动化规则, 随后刷新定时规则
func (s *projectService) Delete(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return notFound(err, "Project")
	}
	if s.reloader != nil {
		if err := s.reloader.Reload(); err != nil {
			s.logger.Warn("重新加载定时规则失败", zap.String("project_id", id), zap.Error(err))
		}
	}
	return nil
}

func (s *projectService) toResponse(project *model.Project) (*dto.ProjectResponse, error) {
	stats, err := s.taskRepo.Stats(repository.TaskFilter{ProjectID: project.ID})
	if err != nil {
		return nil, err
	}
	return &dto.ProjectResponse{
		ID:                   project.ID,
		Name:                 project.Name,
		Description:          project.Description,
		Status:               project.Status,
		Settings:             rawSettings(project.Settings),
		OwnerID:              project.OwnerID,
		TeamID:               project.TeamID,
		IsActive:             project.IsActive(),
		TaskCount:            stats.Total,
		CompletionPercentage: model.CompletionPercentage(stats.Total, stats.Done),
		CreatedAt:            project.CreatedAt,
		UpdatedAt:            project.UpdatedAt,
	}, nil
}
