package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/dto"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/service"
	"github.com/derril-tech/ai-powered-project-management-tool/pkg/utils"
)

// AIHandler 大模型接口; 服务商失败时仍返回200, 由 status 字段标识
type AIHandler struct {
	aiService service.AIService
}

func NewAIHandler(aiService service.AIService) *AIHandler {
	return &AIHandler{
		aiService: aiService,
	}
}

// Plan 生成项目计划
// @Summary 生成项目计划
// @Tags AI
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.PlanRequest true "项目描述与约束"
// @Success 200 {object} utils.Response{data=llm.PlanResult}
// @Router /ai/plan [post]
func (h *AIHandler) Plan(c *gin.Context) {
	var req dto.PlanRequest
	if !bindJSON(c, &req) {
		return
	}

	utils.Success(c, h.aiService.Plan(c.Request.Context(), &req))
}

// Analyze 项目健康度分析
// @Summary 项目健康度分析
// @Description 传 project_id 时由服务端生成项目快照, 否则使用 project 字段
// @Tags AI
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AnalyzeRequest true "分析请求"
// @Success 200 {object} utils.Response{data=llm.AnalysisResult}
// @Router /ai/analyze [post]
func (h *AIHandler) Analyze(c *gin.Context) {
	var req dto.AnalyzeRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.aiService.Analyze(c.Request.Context(), &req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, result)
}

// Summarize 站会总结
// @Summary 站会总结
// @Tags AI
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SummarizeRequest true "成员进展"
// @Success 200 {object} utils.Response{data=llm.SummaryResult}
// @Router /ai/summarize [post]
func (h *AIHandler) Summarize(c *gin.Context) {
	var req dto.SummarizeRequest
	if !bindJSON(c, &req) {
		return
	}

	utils.Success(c, h.aiService.Summarize(c.Request.Context(), &req))
}
