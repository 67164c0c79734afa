package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/config"
	"github.com/derril-tech/ai-powered-project-management-tool/pkg/constants"
)

const (
	PlanFallback     = "Unable to generate plan"
	AnalysisFallback = "Unable to analyze project"
	SummaryFallback  = "Unable to generate summary"
)

const planPrompt = `Create a detailed project plan for the following project:

Project Description: %s

Constraints: %s

Please provide:
1. Project timeline with phases
2. Key tasks and milestones
3. Resource requirements
4. Risk assessment
5. Success metrics

Format the response as a structured plan.`

const analyzePrompt = `Analyze the following project data and provide health assessment:

Project Data: %s

Please provide:
1. Health score (0-100)
2. Key risks and issues
3. Recommendations for improvement
4. Timeline impact assessment

Format as a structured analysis.`

const summaryPrompt = `Generate a concise standup summary from the following team updates:

%s

Please provide:
1. Key accomplishments
2. Current blockers
3. Next steps
4. Team morale assessment

Format as a structured summary.`

// PlanResult 项目计划
type PlanResult struct {
	Plan   string `json:"plan"`
	Model  string `json:"model"`
	Status string `json:"status"`
}

// AnalysisResult 健康度分析
type AnalysisResult struct {
	Analysis string `json:"analysis"`
	Model    string `json:"model"`
	Status   string `json:"status"`
}

// SummaryResult 站会总结
type SummaryResult struct {
	Summary string `json:"summary"`
	Model   string `json:"model"`
	Status  string `json:"status"`
}

// Update 成员进展
type Update struct {
	Name   string `json:"name"`
	Update string `json:"update"`
}

// Bridge 大模型门面; 计划与总结走 OpenAI, 分析走 Anthropic.
// 失败一律吸收为 status=error, 不向调用方返回错误
type Bridge struct {
	openai      Provider
	anthropic   Provider
	openaiModel string
	claudeModel string
	temperature float64
	maxTokens   int
	logger      *zap.Logger
}

// NewBridge 按配置创建
func NewBridge(cfg *config.LLMConfig, logger *zap.Logger) *Bridge {
	return NewBridgeWithProviders(
		NewOpenAIProvider(cfg.OpenAI, cfg.Timeout),
		NewAnthropicProvider(cfg.Anthropic, cfg.Timeout),
		cfg, logger,
	)
}

// NewBridgeWithProviders 注入服务商, 便于替换
func NewBridgeWithProviders(openai, anthropic Provider, cfg *config.LLMConfig, logger *zap.Logger) *Bridge {
	return &Bridge{
		openai:      openai,
		anthropic:   anthropic,
		openaiModel: lo.Ternary(cfg.OpenAI.Model != "", cfg.OpenAI.Model, "gpt-4"),
		claudeModel: lo.Ternary(cfg.Anthropic.Model != "", cfg.Anthropic.Model, "claude-3-sonnet-20240229"),
		temperature: cfg.Temperature,
		maxTokens:   lo.Ternary(cfg.MaxTokens > 0, cfg.MaxTokens, 1000),
		logger:      logger,
	}
}

// Generate 单轮生成, 出错或返回空内容时记录日志并返回 ok=false
func (b *Bridge) Generate(ctx context.Context, provider Provider, prompt, model string, temperature float64, maxTokens int) (string, bool) {
	if provider == nil || !provider.Available() {
		name := "unknown"
		if provider != nil {
			name = provider.Name()
		}
		b.logger.Warn("大模型服务未配置", zap.String("provider", name))
		return "", false
	}

	text, err := provider.Complete(ctx, &Request{
		Prompt:      prompt,
		Model:       model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		b.logger.Error("大模型调用失败",
			zap.String("provider", provider.Name()),
			zap.String("model", model),
			zap.Error(err))
		return "", false
	}
	if strings.TrimSpace(text) == "" {
		b.logger.Warn("大模型返回空内容",
			zap.String("provider", provider.Name()),
			zap.String("model", model))
		return "", false
	}
	return text, true
}

// Plan 生成项目计划
func (b *Bridge) Plan(ctx context.Context, description string, constraints []string, model string) *PlanResult {
	model = lo.Ternary(model != "", model, b.openaiModel)

	joined := "None"
	if len(constraints) > 0 {
		joined = strings.Join(constraints, ", ")
	}

	text, ok := b.Generate(ctx, b.openai, fmt.Sprintf(planPrompt, description, joined), model, b.temperature, b.maxTokens)
	if !ok {
		return &PlanResult{Plan: PlanFallback, Model: model, Status: constants.AIStatusError}
	}
	return &PlanResult{Plan: text, Model: model, Status: constants.AIStatusSuccess}
}

// Analyze 分析项目健康度, snapshot 以 JSON 嵌入提示词
func (b *Bridge) Analyze(ctx context.Context, snapshot interface{}, model string) *AnalysisResult {
	model = lo.Ternary(model != "", model, b.claudeModel)

	data, err := json.Marshal(snapshot)
	if err != nil {
		b.logger.Error("项目快照序列化失败", zap.Error(err))
		return &AnalysisResult{Analysis: AnalysisFallback, Model: model, Status: constants.AIStatusError}
	}

	text, ok := b.Generate(ctx, b.anthropic, fmt.Sprintf(analyzePrompt, data), model, b.temperature, b.maxTokens)
	if !ok {
		return &AnalysisResult{Analysis: AnalysisFallback, Model: model, Status: constants.AIStatusError}
	}
	return &AnalysisResult{Analysis: text, Model: model, Status: constants.AIStatusSuccess}
}

// Summarize 生成站会总结
func (b *Bridge) Summarize(ctx context.Context, updates []Update, model string) *SummaryResult {
	model = lo.Ternary(model != "", model, b.openaiModel)

	text, ok := b.Generate(ctx, b.openai, fmt.Sprintf(summaryPrompt, RenderUpdates(updates)), model, b.temperature, b.maxTokens)
	if !ok {
		return &SummaryResult{Summary: SummaryFallback, Model: model, Status: constants.AIStatusError}
	}
	return &SummaryResult{Summary: text, Model: model, Status: constants.AIStatusSuccess}
}

// RenderUpdates 每条进展渲染为 "- name: update"
func RenderUpdates(updates []Update) string {
	lines := lo.Map(updates, func(u Update, _ int) string {
		name := lo.Ternary(u.Name != "", u.Name, "Unknown")
		update := lo.Ternary(u.Update != "", u.Update, "No update")
		return fmt.Sprintf("- %s: %s", name, update)
	})
	return strings.Join(lines, "\n")
}
