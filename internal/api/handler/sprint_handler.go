package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/dto"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/service"
	"github.com/derril-tech/ai-powered-project-management-tool/pkg/utils"
)

type SprintHandler struct {
	sprintService service.SprintService
}

func NewSprintHandler(sprintService service.SprintService) *SprintHandler {
	return &SprintHandler{
		sprintService: sprintService,
	}
}

// Create 创建冲刺
// @Summary 创建冲刺
// @Tags Sprint
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSprintRequest true "创建冲刺请求"
// @Success 201 {object} utils.Response{data=dto.SprintResponse}
// @Router /sprints [post]
func (h *SprintHandler) Create(c *gin.Context) {
	var req dto.CreateSprintRequest
	if !bindJSON(c, &req) {
		return
	}

	sprint, err := h.sprintService.Create(&req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Created(c, sprint)
}

// GetByID 获取冲刺详情
// @Summary 获取冲刺详情
// @Tags Sprint
// @Produce json
// @Security BearerAuth
// @Param id path string true "冲刺ID"
// @Success 200 {object} utils.Response{data=dto.SprintResponse}
// @Router /sprints/{id} [get]
func (h *SprintHandler) GetByID(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	sprint, err := h.sprintService.GetByID(id)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, sprint)
}

// List 获取冲刺列表
// @Summary 获取冲刺列表
// @Tags Sprint
// @Produce json
// @Security BearerAuth
// @Param skip query int false "偏移量"
// @Param limit query int false "数量"
// @Param project_id query string false "项目ID"
// @Param status query string false "状态"
// @Success 200 {object} utils.ListResponse{data=[]dto.SprintResponse}
// @Router /sprints [get]
func (h *SprintHandler) List(c *gin.Context) {
	var query dto.SprintListQuery
	if !bindQuery(c, &query) {
		return
	}

	sprints, total, err := h.sprintService.List(&query)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.ListSuccess(c, sprints, total, query.GetSkip(), query.GetLimit())
}

// Update 更新冲刺
// @Summary 更新冲刺
// @Tags Sprint
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "冲刺ID"
// @Param request body dto.UpdateSprintRequest true "更新冲刺请求"
// @Success 200 {object} utils.Response{data=dto.SprintResponse}
// @Router /sprints/{id} [put]
func (h *SprintHandler) Update(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req dto.UpdateSprintRequest
	if !bindJSON(c, &req) {
		return
	}

	sprint, err := h.sprintService.Update(id, &req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, sprint)
}

// Delete 删除冲刺
// @Summary 删除冲刺
// @Tags Sprint
// @Security BearerAuth
// @Param id path string true "冲刺ID"
// @Success 204
// @Router /sprints/{id} [delete]
func (h *SprintHandler) Delete(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	if err := h.sprintService.Delete(id); err != nil {
		utils.Error(c, err)
		return
	}

	utils.NoContent(c)
}
