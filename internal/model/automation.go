package model

import (
	"github.com/samber/lo"
	"gorm.io/datatypes"

	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

const AutomationTableName = "automations"

// 触发器类型
const (
	TriggerTaskCreated       = "task_created"
	TriggerTaskUpdated       = "task_updated"
	TriggerTaskStatusChanged = "task_status_changed"
	TriggerSprintStarted     = "sprint_started"
	TriggerSprintCompleted   = "sprint_completed"
	TriggerSchedule          = "schedule"
)

// 条件运算符
const (
	OperatorEquals      = "equals"
	OperatorNotEquals   = "not_equals"
	OperatorContains    = "contains"
	OperatorGreaterThan = "greater_than"
	OperatorLessThan    = "less_than"
	OperatorIn          = "in"
)

// 动作类型
const (
	ActionAssignTask       = "assign_task"
	ActionSetStatus        = "set_status"
	ActionSetPriority      = "set_priority"
	ActionSendNotification = "send_notification"
)

var (
	triggerTypes = []string{TriggerTaskCreated, TriggerTaskUpdated, TriggerTaskStatusChanged,
		TriggerSprintStarted, TriggerSprintCompleted, TriggerSchedule}
	conditionOperators = []string{OperatorEquals, OperatorNotEquals, OperatorContains,
		OperatorGreaterThan, OperatorLessThan, OperatorIn}
	actionTypes = []string{ActionAssignTask, ActionSetStatus, ActionSetPriority, ActionSendNotification}
)

// AutomationCondition 条件: 字段 运算符 值
type AutomationCondition struct {
	Field    string      `json:"field" yaml:"field"`
	Operator string      `json:"operator" yaml:"operator"`
	Value    interface{} `json:"value" yaml:"value"`
}

// AutomationAction 动作
type AutomationAction struct {
	Type   string                 `json:"type" yaml:"type"`
	Config map[string]interface{} `json:"config,omitempty" yaml:"config,omitempty"`
}

// Automation 自动化规则
type Automation struct {
	BaseModel
	Name          string                                   `gorm:"size:255;not null" json:"name"`
	Description   *string                                  `gorm:"type:text" json:"description"`
	ProjectID     *string                                  `gorm:"type:varchar(36);index" json:"project_id"` // 为空表示全局规则
	TriggerType   string                                   `gorm:"size:50;not null;index" json:"trigger_type"`
	TriggerConfig datatypes.JSONMap                        `json:"trigger_config"`
	Conditions    datatypes.JSONSlice[AutomationCondition] `json:"conditions"`
	Actions       datatypes.JSONSlice[AutomationAction]    `json:"actions"`
	Enabled       bool                                     `gorm:"not null;index" json:"enabled"`

	Project *Project `gorm:"foreignKey:ProjectID" json:"-"`
}

func (Automation) TableName() string {
	return AutomationTableName
}

func IsValidTriggerType(v string) bool {
	return lo.Contains(triggerTypes, v)
}

func IsValidConditionOperator(v string) bool {
	return lo.Contains(conditionOperators, v)
}

func IsValidActionType(v string) bool {
	return lo.Contains(actionTypes, v)
}

// Validate 写入前校验结构, schedule 的 cron 表达式由服务层解析
func (a *Automation) Validate() error {
	if a.Name == "" {
		return pkgErrors.NewValidation("name", "required", "Name is required")
	}
	if !IsValidTriggerType(a.TriggerType) {
		return pkgErrors.NewValidation("trigger.type", "oneof", "Invalid trigger type")
	}
	for _, c := range a.Conditions {
		if c.Field == "" {
			return pkgErrors.NewValidation("conditions.field", "required", "Condition field is required")
		}
		if !IsValidConditionOperator(c.Operator) {
			return pkgErrors.NewValidation("conditions.operator", "oneof", "Invalid condition operator")
		}
	}
	if len(a.Actions) == 0 {
		return pkgErrors.NewValidation("actions", "min", "At least one action is required")
	}
	for _, act := range a.Actions {
		if !IsValidActionType(act.Type) {
			return pkgErrors.NewValidation("actions.type", "oneof", "Invalid action type")
		}
	}
	return nil
}
