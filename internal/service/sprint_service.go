package service

import (
	"context"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/core/automation"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/dto"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/repository"
)

type SprintService interface {
	Create(req *dto.CreateSprintRequest) (*dto.SprintResponse, error)
	GetByID(id string) (*dto.SprintResponse, error)
	List(query *dto.SprintListQuery) ([]*dto.SprintResponse, int64, error)
	Update(id string, req *dto.UpdateSprintRequest) (*dto.SprintResponse, error)
	Delete(id string) error
}

type sprintService struct {
	repo        repository.SprintRepository
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
	dispatcher  automation.Dispatcher
}

func NewSprintService(
	repo repository.SprintRepository,
	projectRepo repository.ProjectRepository,
	taskRepo repository.TaskRepository,
	dispatcher automation.Dispatcher,
) SprintService {
	return &sprintService{
		repo:        repo,
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		dispatcher:  dispatcherOrNoop(dispatcher),
	}
}

func (s *sprintService) Create(req *dto.CreateSprintRequest) (*dto.SprintResponse, error) {
	if _, err := s.projectRepo.FindByID(req.ProjectID); err != nil {
		return nil, notFound(err, "Project")
	}

	sprint := &model.Sprint{
		Name:      req.Name,
		Goal:      req.Goal,
		Status:    model.SprintStatusPlanning,
		StartDate: req.StartDate.UTC(),
		EndDate:   req.EndDate.UTC(),
		ProjectID: req.ProjectID,
	}
	if req.Status != "" {
		sprint.Status = req.Status
	}
	if err := sprint.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(sprint); err != nil {
		return nil, err
	}

	if ev, ok := sprintEvent(sprint, ""); ok {
		s.dispatcher.Dispatch(context.Background(), ev)
	}
	return s.toResponse(sprint)
}

func (s *sprintService) GetByID(id string) (*dto.SprintResponse, error) {
	sprint, err := s.repo.FindByID(id)
	if err != nil {
		return nil, notFound(err, "Sprint")
	}
	return s.toResponse(sprint)
}

func (s *sprintService) List(query *dto.SprintListQuery) ([]*dto.SprintResponse, int64, error) {
	filter := repository.SprintFilter{
		ProjectID: query.ProjectID,
		Status:    query.Status,
	}
	sprints, total, err := s.repo.List(filter, pageOf(&query.ListQuery))
	if err != nil {
		return nil, 0, err
	}

	resp := make([]*dto.SprintResponse, 0, len(sprints))
	for _, sp := range sprints {
		item, err := s.toResponse(sp)
		if err != nil {
			return nil, 0, err
		}
		resp = append(resp, item)
	}
	return resp, total, nil
}

// Update 合并字段后重新校验
func (s *sprintService) Update(id string, req *dto.UpdateSprintRequest) (*dto.SprintResponse, error) {
	sprint, err := s.repo.FindByID(id)
	if err != nil {
		return nil, notFound(err, "Sprint")
	}
	previous := sprint.Status

	if req.Name != nil {
		sprint.Name = *req.Name
	}
	if req.Goal != nil {
		sprint.Goal = req.Goal
	}
	if req.Status != nil {
		sprint.Status = *req.Status
	}
	if req.StartDate != nil {
		sprint.StartDate = req.StartDate.UTC()
	}
	if req.EndDate != nil {
		sprint.EndDate = req.EndDate.UTC()
	}

	if err := sprint.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(sprint); err != nil {
		return nil, err
	}

	if ev, ok := sprintEvent(sprint, previous); ok {
		s.dispatcher.Dispatch(context.Background(), ev)
	}
	return s.toResponse(sprint)
}

// Delete 冲刺下的任务保留, 清除其 sprint_id
func (s *sprintService) Delete(id string) error {
	return notFound(s.repo.Delete(id), "Sprint")
}

func (s *sprintService) toResponse(sprint *model.Sprint) (*dto.SprintResponse, error) {
	stats, err := s.taskRepo.Stats(repository.TaskFilter{SprintID: sprint.ID})
	if err != nil {
		return nil, err
	}
	return &dto.SprintResponse{
		ID:                   sprint.ID,
		Name:                 sprint.Name,
		Goal:                 sprint.Goal,
		Status:               sprint.Status,
		StartDate:            sprint.StartDate,
		EndDate:              sprint.EndDate,
		ProjectID:            sprint.ProjectID,
		IsActive:             sprint.IsActive(),
		IsCompleted:          sprint.IsCompleted(),
		DurationDays:         sprint.DurationDays(),
		TaskCount:            stats.Total,
		CompletionPercentage: model.CompletionPercentage(stats.Total, stats.Done),
		CreatedAt:            sprint.CreatedAt,
		UpdatedAt:            sprint.UpdatedAt,
	}, nil
}
