package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/dto"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/service"
	"github.com/derril-tech/ai-powered-project-management-tool/pkg/utils"
)

type ProjectHandler struct {
	projectService service.ProjectService
}

func NewProjectHandler(projectService service.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// Create 创建项目
// @Summary 创建项目
// @Description owner_id 缺省为当前用户, team_id 缺省为负责人所在团队
// @Tags Project
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateProjectRequest true "创建项目请求"
// @Success 201 {object} utils.Response{data=dto.ProjectResponse}
// @Router /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	callerID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req dto.CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	// 负责人默认为当前用户
	project, err := h.projectService.Create(&req, callerID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Created(c, project)
}

// GetByID 获取项目详情
// @Summary 获取项目详情
// @Tags Project
// @Produce json
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Success 200 {object} utils.Response{data=dto.ProjectResponse}
// @Router /projects/{id} [get]
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	project, err := h.projectService.GetByID(id)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, project)
}

// List 获取项目列表
// @Summary 获取项目列表
// @Tags Project
// @Produce json
// @Security BearerAuth
// @Param skip query int false "偏移量"
// @Param limit query int false "数量"
// @Param team_id query string false "团队ID"
// @Param owner_id query string false "负责人ID"
// @Param status query string false "状态"
// @Success 200 {object} utils.ListResponse{data=[]dto.ProjectResponse}
// @Router /projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	var query dto.ProjectListQuery
	if !bindQuery(c, &query) {
		return
	}

	projects, total, err := h.projectService.List(&query)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.ListSuccess(c, projects, total, query.GetSkip(), query.GetLimit())
}

// Update 更新项目
// @Summary 更新项目
// @Tags Project
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Param request body dto.UpdateProjectRequest true "更新项目请求"
// @Success 200 {object} utils.Response{data=dto.ProjectResponse}
// @Router /projects/{id} [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req dto.UpdateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.Update(id, &req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, project)
}

// Delete 删除项目
// @Summary 删除项目
// @Tags Project
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Success 204
// @Router /projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	if err := h.projectService.Delete(id); err != nil {
		utils.Error(c, err)
		return
	}

	utils.NoContent(c)
}
