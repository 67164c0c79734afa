package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/dto"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

func newTaskService(env *testEnv, events *recordingDispatcher) TaskService {
	var svc TaskService
	if events == nil {
		svc = NewTaskService(env.tasks, env.projects, env.users, env.sprints, nil)
	} else {
		svc = NewTaskService(env.tasks, env.projects, env.users, env.sprints, events)
	}
	svc.(*taskService).now = func() time.Time { return fixedNow }
	return svc
}

func TestTaskCreateDefaults(t *testing.T) {
	env := newTestEnv(t)
	s := env.seed(t)
	svc := newTaskService(env, nil)

	resp, err := svc.Create(&dto.CreateTaskRequest{Title: "Write docs", ProjectID: s.project.ID})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusTodo, resp.Status)
	assert.Equal(t, model.TaskPriorityMedium, resp.Priority)
	assert.Equal(t, 0, resp.ProgressPercentage)
	assert.False(t, resp.IsOverdue)
	assert.Nil(t, resp.DueDate)
}

func TestTaskDueDate(t *testing.T) {
	env := newTestEnv(t)
	s := env.seed(t)
	svc := newTaskService(env, nil)

	past := fixedNow.Add(-time.Minute)
	_, err := svc.Create(&dto.CreateTaskRequest{Title: "late", ProjectID: s.project.ID, DueDate: &past})
	appErr, ok := pkgErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "due_date", appErr.Field)
	assert.Equal(t, "Due date cannot be in the past", appErr.Message)

	future := fixedNow.Add(time.Hour).In(time.FixedZone("UTC+8", 8*3600))
	resp, err := svc.Create(&dto.CreateTaskRequest{Title: "soon", ProjectID: s.project.ID, DueDate: &future})
	require.NoError(t, err)
	require.NotNil(t, resp.DueDate)
	assert.True(t, resp.DueDate.Equal(future))

	_, err = svc.Update(resp.ID, &dto.UpdateTaskRequest{DueDate: &past})
	appErr, ok = pkgErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "due_date", appErr.Field)

	// 已过期任务的其他字段仍可更新
	svc.(*taskService).now = func() time.Time { return fixedNow.Add(2 * time.Hour) }
	updated, err := svc.Update(resp.ID, &dto.UpdateTaskRequest{Title: strPtr("still late")})
	require.NoError(t, err)
	assert.True(t, updated.IsOverdue)
}

func TestTaskInvalidUpdateLeavesRowUntouched(t *testing.T) {
	env := newTestEnv(t)
	s := env.seed(t)
	svc := newTaskService(env, nil)

	resp, err := svc.Create(&dto.CreateTaskRequest{Title: "a", ProjectID: s.project.ID})
	require.NoError(t, err)

	_, err = svc.Update(resp.ID, &dto.UpdateTaskRequest{Title: strPtr("b"), Status: strPtr("blocked")})
	appErr, ok := pkgErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "status", appErr.Field)

	_, err = svc.Update(resp.ID, &dto.UpdateTaskRequest{Priority: strPtr("critical")})
	appErr, ok = pkgErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid priority level", appErr.Message)

	_, err = svc.Update(resp.ID, &dto.UpdateTaskRequest{EstimatedHours: intPtr(-1)})
	appErr, ok = pkgErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "estimated_hours", appErr.Field)

	stored, err := env.tasks.FindByID(resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", stored.Title)
	assert.Equal(t, model.TaskStatusTodo, stored.Status)
}

func TestTaskReferences(t *testing.T) {
	env := newTestEnv(t)
	s := env.seed(t)
	svc := newTaskService(env, nil)

	missing := "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	_, err := svc.Create(&dto.CreateTaskRequest{Title: "x", ProjectID: missing})
	appErr, ok := pkgErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Project not found", appErr.Message)

	_, err = svc.Create(&dto.CreateTaskRequest{Title: "x", ProjectID: s.project.ID, AssigneeID: &missing})
	appErr, ok = pkgErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "User not found", appErr.Message)

	_, err = svc.Create(&dto.CreateTaskRequest{Title: "x", ProjectID: s.project.ID, SprintID: &missing})
	appErr, ok = pkgErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Sprint not found", appErr.Message)

	other := &model.Project{Name: "Other", Status: model.ProjectStatusActive, OwnerID: s.owner.ID, TeamID: s.team.ID}
	require.NoError(t, env.projects.Create(other))
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	foreign := &model.Sprint{Name: "F", Status: model.SprintStatusPlanning, StartDate: start, EndDate: start.AddDate(0, 0, 7), ProjectID: other.ID}
	require.NoError(t, env.sprints.Create(foreign))

	_, err = svc.Create(&dto.CreateTaskRequest{Title: "x", ProjectID: s.project.ID, SprintID: &foreign.ID})
	appErr, ok = pkgErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, pkgErrors.CodeValidationError, appErr.Code)
	assert.Equal(t, "sprint_id", appErr.Field)
}

func TestTaskAssignAndClear(t *testing.T) {
	env := newTestEnv(t)
	s := env.seed(t)
	svc := newTaskService(env, nil)

	resp, err := svc.Create(&dto.CreateTaskRequest{Title: "x", ProjectID: s.project.ID, AssigneeID: &s.owner.ID})
	require.NoError(t, err)
	require.NotNil(t, resp.AssigneeID)
	assert.Equal(t, s.owner.ID, *resp.AssigneeID)

	cleared, err := svc.Update(resp.ID, &dto.UpdateTaskRequest{AssigneeID: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, cleared.AssigneeID)
}

func TestTaskEvents(t *testing.T) {
	env := newTestEnv(t)
	s := env.seed(t)
	events := &recordingDispatcher{}
	svc := newTaskService(env, events)

	resp, err := svc.Create(&dto.CreateTaskRequest{Title: "x", Priority: model.TaskPriorityUrgent, ProjectID: s.project.ID})
	require.NoError(t, err)

	_, err = svc.Update(resp.ID, &dto.UpdateTaskRequest{Title: strPtr("y")})
	require.NoError(t, err)

	_, err = svc.Update(resp.ID, &dto.UpdateTaskRequest{Status: strPtr(model.TaskStatusReview)})
	require.NoError(t, err)

	assert.Equal(t, []string{
		model.TriggerTaskCreated,
		model.TriggerTaskUpdated,
		model.TriggerTaskUpdated,
		model.TriggerTaskStatusChanged,
	}, events.types())

	created := events.events[0]
	assert.Equal(t, resp.ID, created.TaskID)
	assert.Equal(t, s.project.ID, created.ProjectID)
	assert.Equal(t, model.TaskPriorityUrgent, created.Payload["priority"])

	changed := events.events[3]
	assert.Equal(t, model.TaskStatusTodo, changed.Payload["previous_status"])
	assert.Equal(t, model.TaskStatusReview, changed.Payload["status"])
}

func TestTaskDeleteAndList(t *testing.T) {
	env := newTestEnv(t)
	s := env.seed(t)
	svc := newTaskService(env, nil)

	list, total, err := svc.List(&dto.TaskListQuery{ProjectID: s.project.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	resp, err := svc.Create(&dto.CreateTaskRequest{Title: "x", Status: model.TaskStatusInProgress, ProjectID: s.project.ID})
	require.NoError(t, err)
	assert.Equal(t, 50, resp.ProgressPercentage)

	list, _, err = svc.List(&dto.TaskListQuery{Status: model.TaskStatusInProgress})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(resp.ID))
	err = svc.Delete(resp.ID)
	appErr, ok := pkgErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Task not found", appErr.Message)
}
