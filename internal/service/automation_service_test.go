package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/adapter/notification"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/core/automation"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/dto"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

type countingReloader struct {
	calls int
}

func (c *countingReloader) Reload() error {
	c.calls++
	return nil
}

type capturingNotifier struct {
	messages []*notification.NotificationMessage
}

func (c *capturingNotifier) Send(_ context.Context, msg *notification.NotificationMessage) error {
	c.messages = append(c.messages, msg)
	return nil
}

func urgentRule(projectID *string) *dto.CreateAutomationRequest {
	return &dto.CreateAutomationRequest{
		Name:      "Urgent triage",
		ProjectID: projectID,
		Trigger:   dto.AutomationTrigger{Type: model.TriggerTaskCreated},
		Conditions: []dto.AutomationCondition{
			{Field: "priority", Operator: model.OperatorEquals, Value: "urgent"},
		},
		Actions: []dto.AutomationAction{
			{Type: model.ActionSetStatus, Config: map[string]interface{}{"status": model.TaskStatusInProgress}},
			{Type: model.ActionSendNotification, Config: map[string]interface{}{"message": "Urgent task {title}"}},
		},
	}
}

func TestAutomationCRUD(t *testing.T) {
	env := newTestEnv(t)
	s := env.seed(t)
	reloader := &countingReloader{}
	svc := NewAutomationService(env.automations, env.projects, reloader, nopLogger())

	created, err := svc.Create(urgentRule(&s.project.ID))
	require.NoError(t, err)
	assert.True(t, created.Enabled)
	assert.Equal(t, model.TriggerTaskCreated, created.Trigger.Type)
	assert.Len(t, created.Actions, 2)

	got, err := svc.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "urgent", got.Conditions[0].Value)

	disabled := false
	updated, err := svc.Update(created.ID, &dto.UpdateAutomationRequest{Enabled: &disabled})
	require.NoError(t, err)
	assert.False(t, updated.Enabled)

	enabled := true
	list, total, err := svc.List(&dto.AutomationListQuery{Enabled: &enabled})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, list)

	require.NoError(t, svc.Delete(created.ID))
	_, err = svc.GetByID(created.ID)
	appErr, ok := pkgErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Automation not found", appErr.Message)
	assert.Equal(t, 3, reloader.calls)
}

func TestAutomationValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAutomationService(env.automations, env.projects, nil, nopLogger())

	badCron := urgentRule(nil)
	badCron.Trigger = dto.AutomationTrigger{Type: model.TriggerSchedule, Config: map[string]interface{}{"cron": "whenever"}}
	_, err := svc.Create(badCron)
	appErr, ok := pkgErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "trigger.config.cron", appErr.Field)

	badStatus := urgentRule(nil)
	badStatus.Actions = []dto.AutomationAction{{Type: model.ActionSetStatus, Config: map[string]interface{}{"status": "blocked"}}}
	_, err = svc.Create(badStatus)
	appErr, ok = pkgErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "actions.config.status", appErr.Field)

	missing := "9a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
	_, err = svc.Create(urgentRule(&missing))
	appErr, ok = pkgErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Project not found", appErr.Message)

	schedule := urgentRule(nil)
	schedule.Trigger = dto.AutomationTrigger{Type: model.TriggerSchedule, Config: map[string]interface{}{"cron": "0 9 * * 1"}}
	schedule.Conditions = nil
	_, err = svc.Create(schedule)
	assert.NoError(t, err)
}

func TestAutomationDryRun(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAutomationService(env.automations, env.projects, nil, nopLogger())
	created, err := svc.Create(urgentRule(nil))
	require.NoError(t, err)

	hit, err := svc.Test(created.ID, &dto.TestAutomationRequest{Event: map[string]interface{}{"priority": "urgent", "title": "Outage"}})
	require.NoError(t, err)
	assert.True(t, hit.Matched)
	assert.True(t, hit.Conditions[0].Passed)
	assert.Len(t, hit.Actions, 2)

	miss, err := svc.Test(created.ID, &dto.TestAutomationRequest{Event: map[string]interface{}{"priority": "low"}})
	require.NoError(t, err)
	assert.False(t, miss.Matched)
	assert.Empty(t, miss.Actions)

	wrongTrigger, err := svc.Test(created.ID, &dto.TestAutomationRequest{TriggerType: model.TriggerTaskUpdated, Event: map[string]interface{}{"priority": "urgent"}})
	require.NoError(t, err)
	assert.False(t, wrongTrigger.TriggerMatched)
	assert.False(t, wrongTrigger.Matched)
}

func TestAutomationExport(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAutomationService(env.automations, env.projects, nil, nopLogger())
	created, err := svc.Create(urgentRule(nil))
	require.NoError(t, err)

	name, data, err := svc.Export(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Urgent triage", name)
	assert.True(t, strings.Contains(string(data), "operator: equals"))
	assert.True(t, strings.Contains(string(data), "type: task_created"))
}

// 端到端: 任务创建事件经引擎执行规则动作
func TestTaskCreateRunsAutomation(t *testing.T) {
	env := newTestEnv(t)
	s := env.seed(t)
	notifier := &capturingNotifier{}
	engine := automation.NewEngine(env.automations, env.tasks, env.users, notifier, nopLogger())
	automations := NewAutomationService(env.automations, env.projects, nil, nopLogger())
	tasks := NewTaskService(env.tasks, env.projects, env.users, env.sprints, engine)
	tasks.(*taskService).now = func() time.Time { return fixedNow }

	_, err := automations.Create(urgentRule(&s.project.ID))
	require.NoError(t, err)

	resp, err := tasks.Create(&dto.CreateTaskRequest{Title: "DB down", Priority: model.TaskPriorityUrgent, ProjectID: s.project.ID})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusInProgress, resp.Status)
	require.Len(t, notifier.messages, 1)
	assert.Equal(t, "Urgent task DB down", notifier.messages[0].Content)

	calm, err := tasks.Create(&dto.CreateTaskRequest{Title: "Tidy", Priority: model.TaskPriorityLow, ProjectID: s.project.ID})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusTodo, calm.Status)
	assert.Len(t, notifier.messages, 1)
}
