package service

import (
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/core/automation"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/dto"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/repository"
	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

// ScheduleReloader 规则变更后重建定时任务
type ScheduleReloader interface {
	Reload() error
}

type AutomationService interface {
	Create(req *dto.CreateAutomationRequest) (*dto.AutomationResponse, error)
	GetByID(id string) (*dto.AutomationResponse, error)
	List(query *dto.AutomationListQuery) ([]*dto.AutomationResponse, int64, error)
	Update(id string, req *dto.UpdateAutomationRequest) (*dto.AutomationResponse, error)
	Delete(id string) error
	// Test 用模拟事件试运行, 不执行任何动作
	Test(id string, req *dto.TestAutomationRequest) (*dto.TestAutomationResponse, error)
	// Export 导出为 YAML
	Export(id string) (string, []byte, error)
}

type automationService struct {
	repo        repository.AutomationRepository
	projectRepo repository.ProjectRepository
	reloader    ScheduleReloader
	logger      *zap.Logger
}

func NewAutomationService(
	repo repository.AutomationRepository,
	projectRepo repository.ProjectRepository,
	reloader ScheduleReloader,
	logger *zap.Logger,
) AutomationService {
	return &automationService{
		repo:        repo,
		projectRepo: projectRepo,
		reloader:    reloader,
		logger:      logger,
	}
}

func (s *automationService) Create(req *dto.CreateAutomationRequest) (*dto.AutomationResponse, error) {
	rule := &model.Automation{
		Name:          req.Name,
		Description:   req.Description,
		ProjectID:     emptyToNil(req.ProjectID),
		TriggerType:   req.Trigger.Type,
		TriggerConfig: req.Trigger.Config,
		Conditions:    toModelConditions(req.Conditions),
		Actions:       toModelActions(req.Actions),
		Enabled:       lo.FromPtrOr(req.Enabled, true),
	}
	if err := s.validate(rule); err != nil {
		return nil, err
	}
	if err := s.repo.Create(rule); err != nil {
		return nil, err
	}

	s.reload(rule)
	return toAutomationResponse(rule), nil
}

func (s *automationService) GetByID(id string) (*dto.AutomationResponse, error) {
	rule, err := s.repo.FindByID(id)
	if err != nil {
		return nil, notFound(err, "Automation")
	}
	return toAutomationResponse(rule), nil
}

func (s *automationService) List(query *dto.AutomationListQuery) ([]*dto.AutomationResponse, int64, error) {
	filter := repository.AutomationFilter{
		ProjectID:   query.ProjectID,
		Enabled:     query.Enabled,
		TriggerType: query.TriggerType,
	}
	rules, total, err := s.repo.List(filter, pageOf(&query.ListQuery))
	if err != nil {
		return nil, 0, err
	}
	return lo.Map(rules, func(r *model.Automation, _ int) *dto.AutomationResponse { return toAutomationResponse(r) }), total, nil
}

func (s *automationService) Update(id string, req *dto.UpdateAutomationRequest) (*dto.AutomationResponse, error) {
	rule, err := s.repo.FindByID(id)
	if err != nil {
		return nil, notFound(err, "Automation")
	}

	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.Description != nil {
		rule.Description = req.Description
	}
	if req.ProjectID != nil {
		rule.ProjectID = emptyToNil(req.ProjectID)
	}
	if req.Trigger != nil {
		rule.TriggerType = req.Trigger.Type
		rule.TriggerConfig = req.Trigger.Config
	}
	if req.Conditions != nil {
		rule.Conditions = toModelConditions(*req.Conditions)
	}
	if req.Actions != nil {
		rule.Actions = toModelActions(*req.Actions)
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}

	if err := s.validate(rule); err != nil {
		return nil, err
	}
	if err := s.repo.Update(rule); err != nil {
		return nil, err
	}

	s.reload(rule)
	return toAutomationResponse(rule), nil
}

func (s *automationService) Delete(id string) error {
	rule, err := s.repo.FindByID(id)
	if err != nil {
		return notFound(err, "Automation")
	}
	if err := s.repo.Delete(id); err != nil {
		return notFound(err, "Automation")
	}

	s.reload(rule)
	return nil
}

func (s *automationService) Test(id string, req *dto.TestAutomationRequest) (*dto.TestAutomationResponse, error) {
	rule, err := s.repo.FindByID(id)
	if err != nil {
		return nil, notFound(err, "Automation")
	}

	ev := automation.Event{
		Type:    lo.Ternary(req.TriggerType != "", req.TriggerType, rule.TriggerType),
		Payload: req.Event,
	}
	eval := automation.Evaluate(rule, ev)

	resp := &dto.TestAutomationResponse{
		Matched:        eval.Matched,
		TriggerMatched: eval.TriggerMatched,
		Conditions: lo.Map(eval.Conditions, func(c automation.ConditionResult, _ int) dto.ConditionResult {
			return dto.ConditionResult{
				Field:    c.Field,
				Operator: c.Operator,
				Expected: c.Expected,
				Actual:   c.Actual,
				Passed:   c.Passed,
			}
		}),
		Actions: []dto.AutomationAction{},
	}
	if eval.Matched {
		resp.Actions = toDTOActions(rule.Actions)
	}
	return resp, nil
}

func (s *automationService) Export(id string) (string, []byte, error) {
	rule, err := s.repo.FindByID(id)
	if err != nil {
		return "", nil, notFound(err, "Automation")
	}
	data, err := automation.ExportYAML(rule)
	if err != nil {
		return "", nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "Failed to export automation", err)
	}
	return rule.Name, data, nil
}

// validate 结构校验, 动作配置校验, 定时表达式与项目引用
func (s *automationService) validate(rule *model.Automation) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	for _, action := range rule.Actions {
		if err := validateActionConfig(action); err != nil {
			return err
		}
	}
	if rule.TriggerType == model.TriggerSchedule {
		if _, err := automation.ParseSchedule(rule.TriggerConfig); err != nil {
			return err
		}
	}
	if rule.ProjectID != nil {
		if _, err := s.projectRepo.FindByID(*rule.ProjectID); err != nil {
			return notFound(err, "Project")
		}
	}
	return nil
}

func validateActionConfig(action model.AutomationAction) error {
	get := func(key string) string {
		v, _ := action.Config[key].(string)
		return v
	}
	switch action.Type {
	case model.ActionAssignTask:
		if get("assignee_id") == "" {
			return pkgErrors.NewValidation("actions.config.assignee_id", "required", "assign_task requires config.assignee_id")
		}
	case model.ActionSetStatus:
		if !model.IsValidTaskStatus(get("status")) {
			return pkgErrors.NewValidation("actions.config.status", "task_status", "set_status requires a valid config.status")
		}
	case model.ActionSetPriority:
		if !model.IsValidTaskPriority(get("priority")) {
			return pkgErrors.NewValidation("actions.config.priority", "task_priority", "set_priority requires a valid config.priority")
		}
	}
	return nil
}

func (s *automationService) reload(rule *model.Automation) {
	if s.reloader == nil {
		return
	}
	if err := s.reloader.Reload(); err != nil {
		s.logger.Warn("重新加载定时规则失败", zap.String("automation_id", rule.ID), zap.Error(err))
	}
}

func emptyToNil(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	id := *v
	return &id
}

func toModelConditions(in []dto.AutomationCondition) []model.AutomationCondition {
	return lo.Map(in, func(c dto.AutomationCondition, _ int) model.AutomationCondition {
		return model.AutomationCondition{Field: c.Field, Operator: c.Operator, Value: c.Value}
	})
}

func toModelActions(in []dto.AutomationAction) []model.AutomationAction {
	return lo.Map(in, func(a dto.AutomationAction, _ int) model.AutomationAction {
		return model.AutomationAction{Type: a.Type, Config: a.Config}
	})
}

func toDTOActions(in []model.AutomationAction) []dto.AutomationAction {
	return lo.Map(in, func(a model.AutomationAction, _ int) dto.AutomationAction {
		return dto.AutomationAction{Type: a.Type, Config: a.Config}
	})
}

func toAutomationResponse(rule *model.Automation) *dto.AutomationResponse {
	return &dto.AutomationResponse{
		ID:          rule.ID,
		Name:        rule.Name,
		Description: rule.Description,
		ProjectID:   rule.ProjectID,
		Trigger:     dto.AutomationTrigger{Type: rule.TriggerType, Config: rule.TriggerConfig},
		Conditions: lo.Map(rule.Conditions, func(c model.AutomationCondition, _ int) dto.AutomationCondition {
			return dto.AutomationCondition{Field: c.Field, Operator: c.Operator, Value: c.Value}
		}),
		Actions:   toDTOActions(rule.Actions),
		Enabled:   rule.Enabled,
		CreatedAt: rule.CreatedAt,
		UpdatedAt: rule.UpdatedAt,
	}
}
