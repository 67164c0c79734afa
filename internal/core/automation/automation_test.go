package automation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/adapter/notification"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/repository"
	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

func TestEvaluateCondition(t *testing.T) {
	payload := map[string]interface{}{
		"title":           "Fix login bug",
		"priority":        "urgent",
		"estimated_hours": 8,
		"labels":          []interface{}{"backend", "auth"},
		"task":            map[string]interface{}{"status": "review"},
	}

	cases := []struct {
		name string
		cond model.AutomationCondition
		want bool
	}{
		{"equals", model.AutomationCondition{Field: "priority", Operator: model.OperatorEquals, Value: "urgent"}, true},
		{"equals mismatch", model.AutomationCondition{Field: "priority", Operator: model.OperatorEquals, Value: "low"}, false},
		{"not equals", model.AutomationCondition{Field: "priority", Operator: model.OperatorNotEquals, Value: "low"}, true},
		{"contains string", model.AutomationCondition{Field: "title", Operator: model.OperatorContains, Value: "login"}, true},
		{"contains element", model.AutomationCondition{Field: "labels", Operator: model.OperatorContains, Value: "auth"}, true},
		{"greater than int vs float", model.AutomationCondition{Field: "estimated_hours", Operator: model.OperatorGreaterThan, Value: 5.0}, true},
		{"less than", model.AutomationCondition{Field: "estimated_hours", Operator: model.OperatorLessThan, Value: 5}, false},
		{"in", model.AutomationCondition{Field: "priority", Operator: model.OperatorIn, Value: []interface{}{"high", "urgent"}}, true},
		{"nested path", model.AutomationCondition{Field: "task.status", Operator: model.OperatorEquals, Value: "review"}, true},
		{"missing field", model.AutomationCondition{Field: "sprint_id", Operator: model.OperatorEquals, Value: "x"}, false},
		{"missing field not equals", model.AutomationCondition{Field: "sprint_id", Operator: model.OperatorNotEquals, Value: "x"}, true},
		{"type mismatch", model.AutomationCondition{Field: "title", Operator: model.OperatorGreaterThan, Value: 3}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EvaluateCondition(tc.cond, payload).Passed)
		})
	}
}

func TestEvaluate(t *testing.T) {
	rule := &model.Automation{
		TriggerType: model.TriggerTaskCreated,
		Conditions: []model.AutomationCondition{
			{Field: "priority", Operator: model.OperatorEquals, Value: "urgent"},
			{Field: "status", Operator: model.OperatorEquals, Value: "todo"},
		},
	}

	eval := Evaluate(rule, Event{Type: model.TriggerTaskCreated, Payload: map[string]interface{}{"priority": "urgent", "status": "todo"}})
	assert.True(t, eval.TriggerMatched)
	assert.True(t, eval.Matched)
	assert.Len(t, eval.Conditions, 2)

	eval = Evaluate(rule, Event{Type: model.TriggerTaskCreated, Payload: map[string]interface{}{"priority": "urgent", "status": "done"}})
	assert.False(t, eval.Matched)
	assert.False(t, eval.Conditions[1].Passed)

	eval = Evaluate(rule, Event{Type: model.TriggerTaskUpdated, Payload: map[string]interface{}{"priority": "urgent", "status": "todo"}})
	assert.False(t, eval.TriggerMatched)
	assert.False(t, eval.Matched)
}

func TestRender(t *testing.T) {
	out := Render("Task {title} is now {status} ({estimated_hours}h) {unknown}", map[string]interface{}{
		"title":           "Docs",
		"status":          "done",
		"estimated_hours": 3,
	})
	assert.Equal(t, "Task Docs is now done (3h) {unknown}", out)
}

func TestParseSchedule(t *testing.T) {
	_, err := ParseSchedule(map[string]interface{}{"cron": "0 9 * * 1-5"})
	assert.NoError(t, err)

	_, err = ParseSchedule(map[string]interface{}{"cron": "@daily"})
	assert.NoError(t, err)

	_, err = ParseSchedule(map[string]interface{}{"cron": "every monday"})
	appErr, ok := pkgErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "trigger.config.cron", appErr.Field)

	_, err = ParseSchedule(nil)
	assert.Error(t, err)
}

func TestExportYAML(t *testing.T) {
	desc := "Escalate urgent work"
	rule := &model.Automation{
		Name:          "Escalate",
		Description:   &desc,
		TriggerType:   model.TriggerTaskCreated,
		TriggerConfig: map[string]interface{}{},
		Conditions:    []model.AutomationCondition{{Field: "priority", Operator: model.OperatorEquals, Value: "urgent"}},
		Actions:       []model.AutomationAction{{Type: model.ActionSendNotification, Config: map[string]interface{}{"message": "Urgent: {title}"}}},
		Enabled:       true,
	}

	data, err := ExportYAML(rule)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "name: Escalate\n"))

	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "Escalate urgent work", doc["description"])
	assert.Equal(t, "task_created", doc["trigger"].(map[string]interface{})["type"])
}

// ============= 引擎执行 =============

type stubAutomationRepo struct {
	repository.AutomationRepository
	rules []*model.Automation
}

func (s *stubAutomationRepo) ListActive(triggerType, _ string) ([]*model.Automation, error) {
	out := make([]*model.Automation, 0)
	for _, r := range s.rules {
		if r.TriggerType == triggerType && r.Enabled {
			out = append(out, r)
		}
	}
	return out, nil
}

type stubTaskRepo struct {
	repository.TaskRepository
	tasks   map[string]*model.Task
	updates int
}

func (s *stubTaskRepo) FindByID(id string) (*model.Task, error) {
	task, ok := s.tasks[id]
	if !ok {
		return nil, pkgErrors.ErrRecordNotFound
	}
	copied := *task
	return &copied, nil
}

func (s *stubTaskRepo) Update(task *model.Task) error {
	s.updates++
	s.tasks[task.ID] = task
	return nil
}

type stubUserRepo struct {
	repository.UserRepository
	ids map[string]bool
}

func (s *stubUserRepo) FindByID(id string) (*model.User, error) {
	if !s.ids[id] {
		return nil, pkgErrors.ErrRecordNotFound
	}
	return &model.User{BaseModel: model.BaseModel{ID: id}, Email: id + "@example.com"}, nil
}

type recordingNotifier struct {
	messages []*notification.NotificationMessage
	err      error
}

func (r *recordingNotifier) Send(_ context.Context, msg *notification.NotificationMessage) error {
	r.messages = append(r.messages, msg)
	return r.err
}

func newTestEngine(rules []*model.Automation, task *model.Task, notifier notification.Notifier) (*Engine, *stubTaskRepo) {
	tasks := &stubTaskRepo{tasks: map[string]*model.Task{task.ID: task}}
	engine := NewEngine(
		&stubAutomationRepo{rules: rules},
		tasks,
		&stubUserRepo{ids: map[string]bool{"user-1": true}},
		notifier,
		zap.NewNop(),
	)
	return engine, tasks
}

func TestDispatchRunsMatchedActions(t *testing.T) {
	task := &model.Task{BaseModel: model.BaseModel{ID: "task-1"}, Title: "Outage", Status: model.TaskStatusTodo, Priority: model.TaskPriorityUrgent}
	rule := &model.Automation{
		BaseModel:   model.BaseModel{ID: "rule-1"},
		Name:        "Urgent triage",
		TriggerType: model.TriggerTaskCreated,
		Conditions:  []model.AutomationCondition{{Field: "priority", Operator: model.OperatorEquals, Value: "urgent"}},
		Actions: []model.AutomationAction{
			{Type: model.ActionAssignTask, Config: map[string]interface{}{"assignee_id": "user-1"}},
			{Type: model.ActionSetStatus, Config: map[string]interface{}{"status": "in_progress"}},
			{Type: model.ActionSendNotification, Config: map[string]interface{}{"message": "Urgent task {title}", "recipients": []interface{}{"oncall@example.com"}}},
		},
		Enabled: true,
	}
	notifier := &recordingNotifier{}
	engine, tasks := newTestEngine([]*model.Automation{rule}, task, notifier)

	engine.Dispatch(context.Background(), Event{
		Type:    model.TriggerTaskCreated,
		TaskID:  task.ID,
		Payload: map[string]interface{}{"title": "Outage", "priority": "urgent"},
	})

	got := tasks.tasks[task.ID]
	require.NotNil(t, got.AssigneeID)
	assert.Equal(t, "user-1", *got.AssigneeID)
	assert.Equal(t, model.TaskStatusInProgress, got.Status)
	require.Len(t, notifier.messages, 2)
	assigned := notifier.messages[0]
	assert.Equal(t, notification.NotifyTaskAssigned, assigned.Type)
	assert.Equal(t, "Task assigned: Outage", assigned.Title)
	assert.Equal(t, []string{"user-1@example.com"}, assigned.Recipients)

	custom := notifier.messages[1]
	assert.Equal(t, notification.NotifyAutomation, custom.Type)
	assert.Equal(t, "Urgent task Outage", custom.Content)
	assert.Equal(t, []string{"oncall@example.com"}, custom.Recipients)
	assert.WithinDuration(t, time.Now(), custom.Timestamp, time.Minute)
}

func TestDispatchActionFailuresAreIsolated(t *testing.T) {
	task := &model.Task{BaseModel: model.BaseModel{ID: "task-1"}, Title: "x", Status: model.TaskStatusTodo, Priority: model.TaskPriorityLow}
	rule := &model.Automation{
		Name:        "Broken",
		TriggerType: model.TriggerTaskUpdated,
		Actions: []model.AutomationAction{
			{Type: model.ActionAssignTask, Config: map[string]interface{}{"assignee_id": "missing"}},
			{Type: model.ActionSetStatus, Config: map[string]interface{}{"status": "blocked"}},
			{Type: model.ActionSendNotification},
			{Type: model.ActionSetPriority, Config: map[string]interface{}{"priority": "high"}},
		},
		Enabled: true,
	}
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	engine, tasks := newTestEngine([]*model.Automation{rule}, task, notifier)

	engine.Dispatch(context.Background(), Event{Type: model.TriggerTaskUpdated, TaskID: task.ID})

	got := tasks.tasks[task.ID]
	assert.Nil(t, got.AssigneeID)
	assert.Equal(t, model.TaskStatusTodo, got.Status)
	assert.Equal(t, model.TaskPriorityHigh, got.Priority)
	assert.Equal(t, 1, tasks.updates)
	assert.Len(t, notifier.messages, 1)
}

func TestDispatchSprintEventSkipsTaskActions(t *testing.T) {
	task := &model.Task{BaseModel: model.BaseModel{ID: "task-1"}, Title: "x", Status: model.TaskStatusTodo, Priority: model.TaskPriorityLow}
	rule := &model.Automation{
		Name:        "Sprint kickoff",
		TriggerType: model.TriggerSprintStarted,
		Actions: []model.AutomationAction{
			{Type: model.ActionSetStatus, Config: map[string]interface{}{"status": "done"}},
			{Type: model.ActionSendNotification, Config: map[string]interface{}{"title": "{name} started"}},
		},
		Enabled: true,
	}
	notifier := &recordingNotifier{}
	engine, tasks := newTestEngine([]*model.Automation{rule}, task, notifier)

	engine.Dispatch(context.Background(), Event{Type: model.TriggerSprintStarted, Payload: map[string]interface{}{"name": "Sprint 7"}})

	assert.Equal(t, 0, tasks.updates)
	require.Len(t, notifier.messages, 1)
	assert.Equal(t, "Sprint 7 started", notifier.messages[0].Title)
	assert.Equal(t, notification.NotifySprintStarted, notifier.messages[0].Type)
}
