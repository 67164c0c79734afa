package dto

import "github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/llm"

// PlanRequest 生成项目计划
type PlanRequest struct {
	Description string   `json:"description" binding:"required"`
	Constraints []string `json:"constraints"`
	Model       string   `json:"model"`
}

// AnalyzeRequest 项目健康度分析, project_id 与 project 二选一
type AnalyzeRequest struct {
	ProjectID string                 `json:"project_id" binding:"omitempty,uuid"`
	Project   map[string]interface{} `json:"project"`
	Model     string                 `json:"model"`
}

// SummarizeRequest 站会总结
type SummarizeRequest struct {
	Updates []llm.Update `json:"updates" binding:"required"`
	Model   string       `json:"model"`
}

// ProjectSnapshot 提交给模型的项目快照
type ProjectSnapshot struct {
	ID                   string           `json:"id"`
	Name                 string           `json:"name"`
	Description          *string          `json:"description,omitempty"`
	Status               string           `json:"status"`
	TaskCount            int64            `json:"task_count"`
	TasksByStatus        map[string]int64 `json:"tasks_by_status"`
	CompletionPercentage float64          `json:"completion_percentage"`
	OverdueTasks         int64            `json:"overdue_tasks"`
	Sprints              []SprintSnapshot `json:"sprints"`
}

// SprintSnapshot 快照中的冲刺
type SprintSnapshot struct {
	Name                 string  `json:"name"`
	Status               string  `json:"status"`
	StartDate            string  `json:"start_date"`
	EndDate              string  `json:"end_date"`
	TaskCount            int64   `json:"task_count"`
	CompletionPercentage float64 `json:"completion_percentage"`
}
