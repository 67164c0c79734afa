package service

import (
	"context"
	"time"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/dto"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/llm"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/repository"
	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

// AIService 计划, 分析与总结; 模型调用失败体现在 status 字段
type AIService interface {
	Plan(ctx context.Context, req *dto.PlanRequest) *llm.PlanResult
	Analyze(ctx context.Context, req *dto.AnalyzeRequest) (*llm.AnalysisResult, error)
	Summarize(ctx context.Context, req *dto.SummarizeRequest) *llm.SummaryResult
	// Snapshot 构建项目快照
	Snapshot(projectID string) (*dto.ProjectSnapshot, error)
}

type aiService struct {
	bridge      *llm.Bridge
	projectRepo repository.ProjectRepository
	sprintRepo  repository.SprintRepository
	taskRepo    repository.TaskRepository
	now         Clock
}

func NewAIService(
	bridge *llm.Bridge,
	projectRepo repository.ProjectRepository,
	sprintRepo repository.SprintRepository,
	taskRepo repository.TaskRepository,
) AIService {
	return &aiService{
		bridge:      bridge,
		projectRepo: projectRepo,
		sprintRepo:  sprintRepo,
		taskRepo:    taskRepo,
		now:         utcNow,
	}
}

func (s *aiService) Plan(ctx context.Context, req *dto.PlanRequest) *llm.PlanResult {
	return s.bridge.Plan(ctx, req.Description, req.Constraints, req.Model)
}

// Analyze project_id 优先, 否则使用请求中的项目数据
func (s *aiService) Analyze(ctx context.Context, req *dto.AnalyzeRequest) (*llm.AnalysisResult, error) {
	switch {
	case req.ProjectID != "":
		snapshot, err := s.Snapshot(req.ProjectID)
		if err != nil {
			return nil, err
		}
		return s.bridge.Analyze(ctx, snapshot, req.Model), nil
	case len(req.Project) > 0:
		return s.bridge.Analyze(ctx, req.Project, req.Model), nil
	default:
		return nil, pkgErrors.NewValidation("project_id", "required_without", "Either project_id or project is required")
	}
}

func (s *aiService) Summarize(ctx context.Context, req *dto.SummarizeRequest) *llm.SummaryResult {
	return s.bridge.Summarize(ctx, req.Updates, req.Model)
}

func (s *aiService) Snapshot(projectID string) (*dto.ProjectSnapshot, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		return nil, notFound(err, "Project")
	}

	counts, err := s.taskRepo.CountByStatus(repository.TaskFilter{ProjectID: project.ID})
	if err != nil {
		return nil, err
	}
	byStatus := make(map[string]int64, len(counts))
	var total, done int64
	for _, c := range counts {
		byStatus[c.Status] = c.Count
		total += c.Count
		if c.Status == model.TaskStatusDone {
			done += c.Count
		}
	}

	overdue, err := s.taskRepo.CountOverdue(project.ID, s.now())
	if err != nil {
		return nil, err
	}

	sprints, err := s.sprintRepo.ListByProject(project.ID)
	if err != nil {
		return nil, err
	}
	sprintSnapshots := make([]dto.SprintSnapshot, 0, len(sprints))
	for _, sp := range sprints {
		stats, err := s.taskRepo.Stats(repository.TaskFilter{SprintID: sp.ID})
		if err != nil {
			return nil, err
		}
		sprintSnapshots = append(sprintSnapshots, dto.SprintSnapshot{
			Name:                 sp.Name,
			Status:               sp.Status,
			StartDate:            sp.StartDate.UTC().Format(time.DateOnly),
			EndDate:              sp.EndDate.UTC().Format(time.DateOnly),
			TaskCount:            stats.Total,
			CompletionPercentage: model.CompletionPercentage(stats.Total, stats.Done),
		})
	}

	return &dto.ProjectSnapshot{
		ID:                   project.ID,
		Name:                 project.Name,
		Description:          project.Description,
		Status:               project.Status,
		TaskCount:            total,
		TasksByStatus:        byStatus,
		CompletionPercentage: model.CompletionPercentage(total, done),
		OverdueTasks:         overdue,
		Sprints:              sprintSnapshots,
	}, nil
}
