package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/dto"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/service"
	"github.com/derril-tech/ai-powered-project-management-tool/pkg/utils"
)

type TeamHandler struct {
	teamService service.TeamService
}

func NewTeamHandler(teamService service.TeamService) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
	}
}

// Create 创建团队
// @Summary 创建团队
// @Tags Team
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateTeamRequest true "创建团队请求"
// @Success 201 {object} utils.Response{data=dto.TeamResponse}
// @Router /teams [post]
func (h *TeamHandler) Create(c *gin.Context) {
	var req dto.CreateTeamRequest
	if !bindJSON(c, &req) {
		return
	}

	team, err := h.teamService.Create(&req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Created(c, team)
}

// GetByID 获取团队详情
// @Summary 获取团队详情
// @Tags Team
// @Produce json
// @Security BearerAuth
// @Param id path string true "团队ID"
// @Success 200 {object} utils.Response{data=dto.TeamResponse}
// @Router /teams/{id} [get]
func (h *TeamHandler) GetByID(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	team, err := h.teamService.GetByID(id)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, team)
}

// List 获取团队列表
// @Summary 获取团队列表
// @Tags Team
// @Produce json
// @Security BearerAuth
// @Param skip query int false "偏移量"
// @Param limit query int false "数量"
// @Success 200 {object} utils.ListResponse{data=[]dto.TeamResponse}
// @Router /teams [get]
func (h *TeamHandler) List(c *gin.Context) {
	var query dto.TeamListQuery
	if !bindQuery(c, &query) {
		return
	}

	teams, total, err := h.teamService.List(&query)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.ListSuccess(c, teams, total, query.GetSkip(), query.GetLimit())
}

// Update 更新团队
// @Summary 更新团队
// @Tags Team
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "团队ID"
// @Param request body dto.UpdateTeamRequest true "更新团队请求"
// @Success 200 {object} utils.Response{data=dto.TeamResponse}
// @Router /teams/{id} [put]
func (h *TeamHandler) Update(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req dto.UpdateTeamRequest
	if !bindJSON(c, &req) {
		return
	}

	team, err := h.teamService.Update(id, &req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, team)
}

// Delete 删除团队
// @Summary 删除团队
// @Tags Team
// @Security BearerAuth
// @Param id path string true "团队ID"
// @Success 204
// @Router /teams/{id} [delete]
func (h *TeamHandler) Delete(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	if err := h.teamService.Delete(id); err != nil {
		utils.Error(c, err)
		return
	}

	utils.NoContent(c)
}
