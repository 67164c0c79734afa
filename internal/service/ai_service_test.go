package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/dto"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/config"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/llm"
	"github.com/derril-tech/ai-powered-project-management-tool/pkg/constants"
	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

func newAIService(env *testEnv) AIService {
	bridge := llm.NewBridge(&config.LLMConfig{Timeout: time.Second}, nopLogger())
	svc := NewAIService(bridge, env.projects, env.sprints, env.tasks)
	svc.(*aiService).now = func() time.Time { return fixedNow }
	return svc
}

func TestSnapshot(t *testing.T) {
	env := newTestEnv(t)
	s := env.seed(t)
	svc := newAIService(env)

	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	sprint := &model.Sprint{Name: "S1", Status: model.SprintStatusActive, StartDate: start, EndDate: start.AddDate(0, 0, 14), ProjectID: s.project.ID}
	require.NoError(t, env.sprints.Create(sprint))

	yesterday := fixedNow.Add(-24 * time.Hour)
	require.NoError(t, env.tasks.Create(&model.Task{Title: "a", Status: model.TaskStatusDone, Priority: model.TaskPriorityLow, ProjectID: s.project.ID, SprintID: &sprint.ID, DueDate: &yesterday}))
	require.NoError(t, env.tasks.Create(&model.Task{Title: "b", Status: model.TaskStatusTodo, Priority: model.TaskPriorityLow, ProjectID: s.project.ID, SprintID: &sprint.ID, DueDate: &yesterday}))
	require.NoError(t, env.tasks.Create(&model.Task{Title: "c", Status: model.TaskStatusTodo, Priority: model.TaskPriorityLow, ProjectID: s.project.ID}))

	snap, err := svc.Snapshot(s.project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Apollo", snap.Name)
	assert.Equal(t, int64(3), snap.TaskCount)
	assert.Equal(t, int64(2), snap.TasksByStatus[model.TaskStatusTodo])
	assert.InDelta(t, 33.33, snap.CompletionPercentage, 0.01)
	assert.Equal(t, int64(1), snap.OverdueTasks)
	require.Len(t, snap.Sprints, 1)
	assert.Equal(t, "2025-03-03", snap.Sprints[0].StartDate)
	assert.Equal(t, int64(2), snap.Sprints[0].TaskCount)
	assert.Equal(t, 50.0, snap.Sprints[0].CompletionPercentage)
}

func TestAnalyze(t *testing.T) {
	env := newTestEnv(t)
	s := env.seed(t)
	svc := newAIService(env)
	ctx := context.Background()

	_, err := svc.Analyze(ctx, &dto.AnalyzeRequest{ProjectID: "3f2504e0-4f89-41d3-9a0c-0305e82c3301"})
	appErr, ok := pkgErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Project not found", appErr.Message)

	_, err = svc.Analyze(ctx, &dto.AnalyzeRequest{})
	appErr, ok = pkgErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, pkgErrors.CodeValidationError, appErr.Code)

	// 未配置凭据时返回 error 状态而不是失败
	res, err := svc.Analyze(ctx, &dto.AnalyzeRequest{ProjectID: s.project.ID})
	require.NoError(t, err)
	assert.Equal(t, constants.AIStatusError, res.Status)
	assert.Equal(t, llm.AnalysisFallback, res.Analysis)
}

func TestPlanAndSummarizeUnavailable(t *testing.T) {
	env := newTestEnv(t)
	svc := newAIService(env)
	ctx := context.Background()

	plan := svc.Plan(ctx, &dto.PlanRequest{Description: "Build a CRM"})
	assert.Equal(t, constants.AIStatusError, plan.Status)
	assert.NotEmpty(t, plan.Plan)

	summary := svc.Summarize(ctx, &dto.SummarizeRequest{Updates: []llm.Update{{Name: "Ana", Update: "done"}}})
	assert.Equal(t, constants.AIStatusError, summary.Status)
	assert.NotEmpty(t, summary.Summary)
}
