package dto

import "time"

// AutomationTrigger 触发器
type AutomationTrigger struct {
	Type   string                 `json:"type" yaml:"type" binding:"required,oneof=task_created task_updated task_status_changed sprint_started sprint_completed schedule"`
	Config map[string]interface{} `json:"config" yaml:"config,omitempty"`
}

// AutomationCondition 条件
type AutomationCondition struct {
	Field    string      `json:"field" yaml:"field" binding:"required"`
	Operator string      `json:"operator" yaml:"operator" binding:"required,oneof=equals not_equals contains greater_than less_than in"`
	Value    interface{} `json:"value" yaml:"value"`
}

// AutomationAction 动作
type AutomationAction struct {
	Type   string                 `json:"type" yaml:"type" binding:"required,oneof=assign_task set_status set_priority send_notification"`
	Config map[string]interface{} `json:"config" yaml:"config,omitempty"`
}

// CreateAutomationRequest 创建自动化规则请求
type CreateAutomationRequest struct {
	Name        string                `json:"name" binding:"required,max=255"`
	Description *string               `json:"description"`
	ProjectID   *string               `json:"project_id" binding:"omitempty,uuid_or_empty"`
	Trigger     AutomationTrigger     `json:"trigger" binding:"required"`
	Conditions  []AutomationCondition `json:"conditions" binding:"omitempty,dive"`
	Actions     []AutomationAction    `json:"actions" binding:"required,min=1,dive"`
	Enabled     *bool                 `json:"enabled"` // 默认 true
}

// UpdateAutomationRequest 更新自动化规则请求
type UpdateAutomationRequest struct {
	Name        *string                `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string                `json:"description"`
	ProjectID   *string                `json:"project_id" binding:"omitempty,uuid_or_empty"`
	Trigger     *AutomationTrigger     `json:"trigger"`
	Conditions  *[]AutomationCondition `json:"conditions" binding:"omitempty,dive"`
	Actions     *[]AutomationAction    `json:"actions" binding:"omitempty,min=1,dive"`
	Enabled     *bool                  `json:"enabled"`
}

// AutomationListQuery 自动化规则列表查询参数
type AutomationListQuery struct {
	ListQuery
	ProjectID   string `form:"project_id" binding:"omitempty,uuid"`
	Enabled     *bool  `form:"enabled"`
	TriggerType string `form:"trigger_type"`
}

// AutomationResponse 自动化规则响应
type AutomationResponse struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description *string               `json:"description"`
	ProjectID   *string               `json:"project_id"`
	Trigger     AutomationTrigger     `json:"trigger"`
	Conditions  []AutomationCondition `json:"conditions"`
	Actions     []AutomationAction    `json:"actions"`
	Enabled     bool                  `json:"enabled"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// TestAutomationRequest 试运行请求, event 为模拟的事件数据
type TestAutomationRequest struct {
	TriggerType string                 `json:"trigger_type"` // 默认取规则自身的触发器
	Event       map[string]interface{} `json:"event" binding:"required"`
}

// ConditionResult 单个条件的判定结果
type ConditionResult struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"`
	Expected interface{} `json:"expected"`
	Actual   interface{} `json:"actual"`
	Passed   bool        `json:"passed"`
}

// TestAutomationResponse 试运行结果, 不产生任何修改
type TestAutomationResponse struct {
	Matched        bool               `json:"matched"`
	TriggerMatched bool               `json:"trigger_matched"`
	Conditions     []ConditionResult  `json:"conditions"`
	Actions        []AutomationAction `json:"actions"`
}
