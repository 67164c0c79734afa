package automation

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

// schedule 触发器使用标准5段 cron 表达式
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule 解析 schedule 触发器的 config.cron
func ParseSchedule(config map[string]interface{}) (cron.Schedule, error) {
	spec, _ := config["cron"].(string)
	if spec == "" {
		return nil, pkgErrors.NewValidation("trigger.config.cron", "required", "Schedule trigger requires config.cron")
	}
	schedule, err := scheduleParser.Parse(spec)
	if err != nil {
		return nil, pkgErrors.NewValidation("trigger.config.cron", "cron", fmt.Sprintf("Invalid cron expression: %v", err))
	}
	return schedule, nil
}

type exportTrigger struct {
	Type   string                 `yaml:"type"`
	Config map[string]interface{} `yaml:"config,omitempty"`
}

type exportDocument struct {
	Name        string                      `yaml:"name"`
	Description string                      `yaml:"description,omitempty"`
	ProjectID   string                      `yaml:"project_id,omitempty"`
	Enabled     bool                        `yaml:"enabled"`
	Trigger     exportTrigger               `yaml:"trigger"`
	Conditions  []model.AutomationCondition `yaml:"conditions,omitempty"`
	Actions     []model.AutomationAction    `yaml:"actions"`
}

// ExportYAML 导出规则定义
func ExportYAML(rule *model.Automation) ([]byte, error) {
	doc := exportDocument{
		Name:       rule.Name,
		Enabled:    rule.Enabled,
		Trigger:    exportTrigger{Type: rule.TriggerType, Config: rule.TriggerConfig},
		Conditions: rule.Conditions,
		Actions:    rule.Actions,
	}
	if rule.Description != nil {
		doc.Description = *rule.Description
	}
	if rule.ProjectID != nil {
		doc.ProjectID = *rule.ProjectID
	}
	return yaml.Marshal(doc)
}
