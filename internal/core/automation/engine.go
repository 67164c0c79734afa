package automation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/adapter/notification"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/repository"
	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

// Event 触发自动化规则的事件
type Event struct {
	Type      string
	ProjectID string
	TaskID    string // 任务类事件的目标任务
	Payload   map[string]interface{}
}

// Evaluation 规则判定结果
type Evaluation struct {
	TriggerMatched bool
	Matched        bool
	Conditions     []ConditionResult
}

// Dispatcher 事件分发
type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event)
}

// Engine 自动化规则引擎, 事件在写入提交后同步分发
type Engine struct {
	automationRepo repository.AutomationRepository
	taskRepo       repository.TaskRepository
	userRepo       repository.UserRepository
	notifier       notification.Notifier
	logger         *zap.Logger
}

// NewEngine 创建引擎
func NewEngine(
	automationRepo repository.AutomationRepository,
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	notifier notification.Notifier,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		automationRepo: automationRepo,
		taskRepo:       taskRepo,
		userRepo:       userRepo,
		notifier:       notifier,
		logger:         logger,
	}
}

// Evaluate 判定规则是否命中, 不产生副作用
func Evaluate(rule *model.Automation, ev Event) *Evaluation {
	eval := &Evaluation{
		TriggerMatched: rule.TriggerType == ev.Type,
		Conditions:     make([]ConditionResult, 0, len(rule.Conditions)),
	}
	for _, cond := range rule.Conditions {
		eval.Conditions = append(eval.Conditions, EvaluateCondition(cond, ev.Payload))
	}
	eval.Matched = eval.TriggerMatched && lo.EveryBy(eval.Conditions, func(r ConditionResult) bool {
		return r.Passed
	})
	return eval
}

// Dispatch 执行所有命中规则的动作; 失败只记录日志
func (e *Engine) Dispatch(ctx context.Context, ev Event) {
	rules, err := e.automationRepo.ListActive(ev.Type, ev.ProjectID)
	if err != nil {
		e.logger.Error("加载自动化规则失败", zap.String("event", ev.Type), zap.Error(err))
		return
	}

	for _, rule := range rules {
		if !Evaluate(rule, ev).Matched {
			continue
		}
		e.Run(ctx, rule, ev)
	}
}

// Run 执行规则的全部动作
func (e *Engine) Run(ctx context.Context, rule *model.Automation, ev Event) {
	e.logger.Info("自动化规则命中",
		zap.String("automation_id", rule.ID),
		zap.String("automation", rule.Name),
		zap.String("event", ev.Type))

	for _, action := range rule.Actions {
		if err := e.execute(ctx, rule, action, ev); err != nil {
			e.logger.Warn("自动化动作执行失败",
				zap.String("automation_id", rule.ID),
				zap.String("action", action.Type),
				zap.Error(err))
		}
	}
}

func (e *Engine) execute(ctx context.Context, rule *model.Automation, action model.AutomationAction, ev Event) error {
	switch action.Type {
	case model.ActionAssignTask:
		assigneeID := configString(action.Config, "assignee_id")
		if assigneeID == "" {
			return fmt.Errorf("assign_task requires config.assignee_id")
		}
		assignee, err := e.userRepo.FindByID(assigneeID)
		if err != nil {
			if pkgErrors.IsNotFound(err) {
				return pkgErrors.NotFound("User")
			}
			return err
		}
		if err := e.updateTask(ev, func(t *model.Task) { t.AssigneeID = &assigneeID }); err != nil {
			return err
		}
		return e.notifyAssignee(ctx, rule, assignee, ev)
	case model.ActionSetStatus:
		status := configString(action.Config, "status")
		return e.updateTask(ev, func(t *model.Task) { t.Status = status })
	case model.ActionSetPriority:
		priority := configString(action.Config, "priority")
		return e.updateTask(ev, func(t *model.Task) { t.Priority = priority })
	case model.ActionSendNotification:
		return e.notify(ctx, rule, action, ev)
	default:
		return fmt.Errorf("unknown action type %q", action.Type)
	}
}

// updateTask 直接经仓储更新任务, 不再产生新的事件
func (e *Engine) updateTask(ev Event, mutate func(t *model.Task)) error {
	if ev.TaskID == "" {
		return fmt.Errorf("event %s carries no task", ev.Type)
	}
	task, err := e.taskRepo.FindByID(ev.TaskID)
	if err != nil {
		return err
	}
	mutate(task)
	if err := task.Validate(); err != nil {
		return err
	}
	return e.taskRepo.Update(task)
}

func (e *Engine) notify(ctx context.Context, rule *model.Automation, action model.AutomationAction, ev Event) error {
	title := configString(action.Config, "title")
	if title == "" {
		title = rule.Name
	}
	message := configString(action.Config, "message")
	if message == "" {
		message = fmt.Sprintf("Automation %q triggered by %s", rule.Name, ev.Type)
	}

	msgType := notification.NotifyAutomation
	if ev.Type == model.TriggerSprintStarted {
		msgType = notification.NotifySprintStarted
	}

	return e.notifier.Send(ctx, &notification.NotificationMessage{
		Type:       msgType,
		Title:      Render(title, ev.Payload),
		Content:    Render(message, ev.Payload),
		Recipients: configStrings(action.Config, "recipients"),
		Timestamp:  time.Now(),
		Extra: map[string]interface{}{
			"automation_id": rule.ID,
			"event":         ev.Type,
		},
	})
}

// notifyAssignee 通知被规则指派的用户
func (e *Engine) notifyAssignee(ctx context.Context, rule *model.Automation, assignee *model.User, ev Event) error {
	if assignee.Email == "" {
		return nil
	}
	title := Render("Task assigned: {title}", ev.Payload)
	return e.notifier.Send(ctx, &notification.NotificationMessage{
		Type:       notification.NotifyTaskAssigned,
		Title:      title,
		Content:    fmt.Sprintf("Automation %q assigned you a task", rule.Name),
		Recipients: []string{assignee.Email},
		Timestamp:  time.Now(),
		Extra: map[string]interface{}{
			"automation_id": rule.ID,
			"task_id":       ev.TaskID,
		},
	})
}

// Render 用事件字段替换 {field} 占位符, 未知占位符保持原样
func Render(template string, payload map[string]interface{}) string {
	if len(payload) == 0 || !strings.Contains(template, "{") {
		return template
	}
	pairs := make([]string, 0, len(payload)*2)
	for k, v := range payload {
		if v == nil {
			continue
		}
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(normalizeText(v)))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func normalizeText(v interface{}) interface{} {
	if n, ok := normalize(v).(float64); ok && n == float64(int64(n)) {
		return int64(n)
	}
	return normalize(v)
}

func configString(config map[string]interface{}, key string) string {
	if v, ok := config[key].(string); ok {
		return v
	}
	return ""
}

func configStrings(config map[string]interface{}, key string) []string {
	switch v := config[key].(type) {
	case []string:
		return v
	case []interface{}:
		return lo.FilterMap(v, func(item interface{}, _ int) (string, bool) {
			s, ok := item.(string)
			return s, ok && s != ""
		})
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}
