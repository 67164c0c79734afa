package handler

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/dto"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/service"
	"github.com/derril-tech/ai-powered-project-management-tool/pkg/utils"
)

type AutomationHandler struct {
	automationService service.AutomationService
}

func NewAutomationHandler(automationService service.AutomationService) *AutomationHandler {
	return &AutomationHandler{
		automationService: automationService,
	}
}

// Create 创建自动化规则
// @Summary 创建自动化规则
// @Tags Automation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateAutomationRequest true "创建自动化规则请求"
// @Success 201 {object} utils.Response{data=dto.AutomationResponse}
// @Router /automations [post]
func (h *AutomationHandler) Create(c *gin.Context) {
	var req dto.CreateAutomationRequest
	if !bindJSON(c, &req) {
		return
	}

	automation, err := h.automationService.Create(&req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Created(c, automation)
}

// GetByID 获取自动化规则详情
// @Summary 获取自动化规则详情
// @Tags Automation
// @Produce json
// @Security BearerAuth
// @Param id path string true "自动化规则ID"
// @Success 200 {object} utils.Response{data=dto.AutomationResponse}
// @Router /automations/{id} [get]
func (h *AutomationHandler) GetByID(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	automation, err := h.automationService.GetByID(id)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, automation)
}

// List 获取自动化规则列表
// @Summary 获取自动化规则列表
// @Tags Automation
// @Produce json
// @Security BearerAuth
// @Param skip query int false "偏移量"
// @Param limit query int false "数量"
// @Param project_id query string false "项目ID"
// @Param enabled query bool false "是否启用"
// @Param trigger_type query string false "触发器类型"
// @Success 200 {object} utils.ListResponse{data=[]dto.AutomationResponse}
// @Router /automations [get]
func (h *AutomationHandler) List(c *gin.Context) {
	var query dto.AutomationListQuery
	if !bindQuery(c, &query) {
		return
	}

	automations, total, err := h.automationService.List(&query)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.ListSuccess(c, automations, total, query.GetSkip(), query.GetLimit())
}

// Update 更新自动化规则
// @Summary 更新自动化规则
// @Tags Automation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "自动化规则ID"
// @Param request body dto.UpdateAutomationRequest true "更新自动化规则请求"
// @Success 200 {object} utils.Response{data=dto.AutomationResponse}
// @Router /automations/{id} [put]
func (h *AutomationHandler) Update(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req dto.UpdateAutomationRequest
	if !bindJSON(c, &req) {
		return
	}

	automation, err := h.automationService.Update(id, &req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, automation)
}

// Delete 删除自动化规则
// @Summary 删除自动化规则
// @Tags Automation
// @Security BearerAuth
// @Param id path string true "自动化规则ID"
// @Success 204
// @Router /automations/{id} [delete]
func (h *AutomationHandler) Delete(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	if err := h.automationService.Delete(id); err != nil {
		utils.Error(c, err)
		return
	}

	utils.NoContent(c)
}

// Test 试运行规则, 返回条件判定结果与将执行的动作, 不修改任何数据
// @Summary 试运行自动化规则
// @Tags Automation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "自动化规则ID"
// @Param request body dto.TestAutomationRequest true "模拟事件"
// @Success 200 {object} utils.Response{data=dto.TestAutomationResponse}
// @Router /automations/{id}/test [post]
func (h *AutomationHandler) Test(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req dto.TestAutomationRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.automationService.Test(id, &req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, result)
}

// unsafeFilename 文件名中需替换的字符
var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Export 导出规则为 YAML
// @Summary 导出自动化规则
// @Tags Automation
// @Produce application/x-yaml
// @Security BearerAuth
// @Param id path string true "自动化规则ID"
// @Success 200 {string} string "YAML"
// @Router /automations/{id}/export [get]
func (h *AutomationHandler) Export(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	name, data, err := h.automationService.Export(id)
	if err != nil {
		utils.Error(c, err)
		return
	}

	filename := unsafeFilename.ReplaceAllString(name, "_")
	if filename == "" || filename == "_" {
		filename = id
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.yaml"`, filename))
	c.Data(http.StatusOK, "application/x-yaml", data)
}
