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

func TestSprintDateOrdering(t *testing.T) {
	env := newTestEnv(t)
	s := env.seed(t)
	svc := NewSprintService(env.sprints, env.projects, env.tasks, nil)
	start := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	for _, end := range []time.Time{start, start.Add(-time.Hour)} {
		_, err := svc.Create(&dto.CreateSprintRequest{Name: "bad", StartDate: start, EndDate: end, ProjectID: s.project.ID})
		appErr, ok := pkgErrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, "end_date", appErr.Field)
	}

	resp, err := svc.Create(&dto.CreateSprintRequest{Name: "ok", StartDate: start, EndDate: start.AddDate(0, 0, 14), ProjectID: s.project.ID})
	require.NoError(t, err)
	assert.Equal(t, model.SprintStatusPlanning, resp.Status)
	assert.Equal(t, 14, resp.DurationDays)
	assert.False(t, resp.IsActive)

	// 更新时按合并后的状态校验
	before := start.Add(-24 * time.Hour)
	_, err = svc.Update(resp.ID, &dto.UpdateSprintRequest{EndDate: &before})
	appErr, ok := pkgErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "end_date", appErr.Field)

	stored, err := env.sprints.FindByID(resp.ID)
	require.NoError(t, err)
	assert.True(t, stored.EndDate.Equal(start.AddDate(0, 0, 14)))
}

func TestSprintUnknownProject(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSprintService(env.sprints, env.projects, env.tasks, nil)
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Create(&dto.CreateSprintRequest{Name: "x", StartDate: start, EndDate: start.AddDate(0, 0, 1), ProjectID: "0b9f4a8e-1d2c-4f3e-8a7b-6c5d4e3f2a1b"})
	appErr, ok := pkgErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Project not found", appErr.Message)
}

func TestSprintStatusEvents(t *testing.T) {
	env := newTestEnv(t)
	s := env.seed(t)
	events := &recordingDispatcher{}
	svc := NewSprintService(env.sprints, env.projects, env.tasks, events)
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	resp, err := svc.Create(&dto.CreateSprintRequest{Name: "S1", StartDate: start, EndDate: start.AddDate(0, 0, 7), ProjectID: s.project.ID})
	require.NoError(t, err)
	assert.Empty(t, events.types())

	_, err = svc.Update(resp.ID, &dto.UpdateSprintRequest{Goal: strPtr("ship it")})
	require.NoError(t, err)
	assert.Empty(t, events.types())

	active, err := svc.Update(resp.ID, &dto.UpdateSprintRequest{Status: strPtr(model.SprintStatusActive)})
	require.NoError(t, err)
	assert.True(t, active.IsActive)

	done, err := svc.Update(resp.ID, &dto.UpdateSprintRequest{Status: strPtr(model.SprintStatusCompleted)})
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)

	assert.Equal(t, []string{model.TriggerSprintStarted, model.TriggerSprintCompleted}, events.types())
	assert.Equal(t, model.SprintStatusActive, events.events[1].Payload["previous_status"])
	assert.Equal(t, s.project.ID, events.events[0].ProjectID)
}

func TestSprintStatsAndDelete(t *testing.T) {
	env := newTestEnv(t)
	s := env.seed(t)
	svc := NewSprintService(env.sprints, env.projects, env.tasks, nil)
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	resp, err := svc.Create(&dto.CreateSprintRequest{Name: "S1", StartDate: start, EndDate: start.AddDate(0, 0, 7), ProjectID: s.project.ID})
	require.NoError(t, err)
	task := &model.Task{Title: "t", Status: model.TaskStatusDone, Priority: model.TaskPriorityLow, ProjectID: s.project.ID, SprintID: &resp.ID}
	require.NoError(t, env.tasks.Create(task))

	got, err := svc.GetByID(resp.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.TaskCount)
	assert.Equal(t, 100.0, got.CompletionPercentage)

	require.NoError(t, svc.Delete(resp.ID))
	stored, err := env.tasks.FindByID(task.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.SprintID)

	_, err = svc.GetByID(resp.ID)
	appErr, ok := pkgErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Sprint not found", appErr.Message)
}
