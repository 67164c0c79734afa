package service

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/core/automation"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/dto"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/repository"
	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

type TaskService interface {
	Create(req *dto.CreateTaskRequest) (*dto.TaskResponse, error)
	GetByID(id string) (*dto.TaskResponse, error)
	List(query *dto.TaskListQuery) ([]*dto.TaskResponse, int64, error)
	Update(id string, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error)
	Delete(id string) error
}

type taskService struct {
	repo        repository.TaskRepository
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	sprintRepo  repository.SprintRepository
	dispatcher  automation.Dispatcher
	now         Clock
}

func NewTaskService(
	repo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	sprintRepo repository.SprintRepository,
	dispatcher automation.Dispatcher,
) TaskService {
	return &taskService{
		repo:        repo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		sprintRepo:  sprintRepo,
		dispatcher:  dispatcherOrNoop(dispatcher),
		now:         utcNow,
	}
}

func (s *taskService) Create(req *dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	if _, err := s.projectRepo.FindByID(req.ProjectID); err != nil {
		return nil, notFound(err, "Project")
	}

	task := &model.Task{
		Title:          req.Title,
		Description:    req.Description,
		Status:         lo.Ternary(req.Status != "", req.Status, model.TaskStatusTodo),
		Priority:       lo.Ternary(req.Priority != "", req.Priority, model.TaskPriorityMedium),
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
		ProjectID:      req.ProjectID,
	}
	if req.DueDate != nil {
		due := req.DueDate.UTC()
		if err := model.ValidateDueDate(&due, s.now()); err != nil {
			return nil, err
		}
		task.DueDate = &due
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	if err := s.setAssignee(task, req.AssigneeID); err != nil {
		return nil, err
	}
	if err := s.setSprint(task, req.SprintID); err != nil {
		return nil, err
	}

	if err := s.repo.Create(task); err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(context.Background(), automation.Event{
		Type:      model.TriggerTaskCreated,
		ProjectID: task.ProjectID,
		TaskID:    task.ID,
		Payload:   taskPayload(task),
	})
	return s.reload(task), nil
}

func (s *taskService) GetByID(id string) (*dto.TaskResponse, error) {
	task, err := s.repo.FindByID(id)
	if err != nil {
		return nil, notFound(err, "Task")
	}
	return toTaskResponse(task, s.now()), nil
}

func (s *taskService) List(query *dto.TaskListQuery) ([]*dto.TaskResponse, int64, error) {
	filter := repository.TaskFilter{
		ProjectID:  query.ProjectID,
		AssigneeID: query.AssigneeID,
		SprintID:   query.SprintID,
		Status:     query.Status,
		Priority:   query.Priority,
	}
	tasks, total, err := s.repo.List(filter, pageOf(&query.ListQuery))
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	return lo.Map(tasks, func(t *model.Task, _ int) *dto.TaskResponse { return toTaskResponse(t, now) }), total, nil
}

// Update 合并字段后重新校验; 截止时间仅在本次传入时检查
func (s *taskService) Update(id string, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error) {
	task, err := s.repo.FindByID(id)
	if err != nil {
		return nil, notFound(err, "Task")
	}
	previousStatus := task.Status

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = req.Description
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.EstimatedHours != nil {
		task.EstimatedHours = req.EstimatedHours
	}
	if req.ActualHours != nil {
		task.ActualHours = req.ActualHours
	}
	if req.DueDate != nil {
		due := req.DueDate.UTC()
		if err := model.ValidateDueDate(&due, s.now()); err != nil {
			return nil, err
		}
		task.DueDate = &due
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	if req.AssigneeID != nil {
		if err := s.setAssignee(task, req.AssigneeID); err != nil {
			return nil, err
		}
	}
	if req.SprintID != nil {
		if err := s.setSprint(task, req.SprintID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(task); err != nil {
		return nil, err
	}

	payload := taskPayload(task)
	ctx := context.Background()
	s.dispatcher.Dispatch(ctx, automation.Event{
		Type:      model.TriggerTaskUpdated,
		ProjectID: task.ProjectID,
		TaskID:    task.ID,
		Payload:   payload,
	})
	if task.Status != previousStatus {
		changed := taskPayload(task)
		changed["previous_status"] = previousStatus
		s.dispatcher.Dispatch(ctx, automation.Event{
			Type:      model.TriggerTaskStatusChanged,
			ProjectID: task.ProjectID,
			TaskID:    task.ID,
			Payload:   changed,
		})
	}
	return s.reload(task), nil
}

func (s *taskService) Delete(id string) error {
	return notFound(s.repo.Delete(id), "Task")
}

// setAssignee 空字符串表示取消指派
func (s *taskService) setAssignee(task *model.Task, assigneeID *string) error {
	if assigneeID == nil || *assigneeID == "" {
		task.AssigneeID = nil
		return nil
	}
	if _, err := s.userRepo.FindByID(*assigneeID); err != nil {
		return notFound(err, "User")
	}
	id := *assigneeID
	task.AssigneeID = &id
	return nil
}

// setSprint 冲刺必须属于任务所在项目
func (s *taskService) setSprint(task *model.Task, sprintID *string) error {
	if sprintID == nil || *sprintID == "" {
		task.SprintID = nil
		return nil
	}
	sprint, err := s.sprintRepo.FindByID(*sprintID)
	if err != nil {
		return notFound(err, "Sprint")
	}
	if sprint.ProjectID != task.ProjectID {
		return pkgErrors.NewValidation("sprint_id", "same_project", "Sprint belongs to another project")
	}
	id := sprint.ID
	task.SprintID = &id
	return nil
}

// reload 自动化规则可能已修改任务, 返回最新状态
func (s *taskService) reload(task *model.Task) *dto.TaskResponse {
	if current, err := s.repo.FindByID(task.ID); err == nil {
		task = current
	}
	return toTaskResponse(task, s.now())
}

func toTaskResponse(task *model.Task, now time.Time) *dto.TaskResponse {
	return &dto.TaskResponse{
		ID:                 task.ID,
		Title:              task.Title,
		Description:        task.Description,
		Status:             task.Status,
		Priority:           task.Priority,
		EstimatedHours:     task.EstimatedHours,
		ActualHours:        task.ActualHours,
		DueDate:            task.DueDate,
		ProjectID:          task.ProjectID,
		AssigneeID:         task.AssigneeID,
		SprintID:           task.SprintID,
		IsOverdue:          task.IsOverdue(now),
		ProgressPercentage: task.ProgressPercentage(),
		CreatedAt:          task.CreatedAt,
		UpdatedAt:          task.UpdatedAt,
	}
}
