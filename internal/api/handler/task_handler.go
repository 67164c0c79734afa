package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/dto"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/service"
	"github.com/derril-tech/ai-powered-project-management-tool/pkg/utils"
)

type TaskHandler struct {
	taskService service.TaskService
}

func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// Create 创建任务
// @Summary 创建任务
// @Tags Task
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateTaskRequest true "创建任务请求"
// @Success 201 {object} utils.Response{data=dto.TaskResponse}
// @Router /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.Create(&req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Created(c, task)
}

// GetByID 获取任务详情
// @Summary 获取任务详情
// @Tags Task
// @Produce json
// @Security BearerAuth
// @Param id path string true "任务ID"
// @Success 200 {object} utils.Response{data=dto.TaskResponse}
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetByID(id)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, task)
}

// List 获取任务列表
// @Summary 获取任务列表
// @Tags Task
// @Produce json
// @Security BearerAuth
// @Param skip query int false "偏移量"
// @Param limit query int false "数量"
// @Param project_id query string false "项目ID"
// @Param assignee_id query string false "负责人ID"
// @Param sprint_id query string false "冲刺ID"
// @Param status query string false "状态"
// @Param priority query string false "优先级"
// @Success 200 {object} utils.ListResponse{data=[]dto.TaskResponse}
// @Router /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	var query dto.TaskListQuery
	if !bindQuery(c, &query) {
		return
	}

	tasks, total, err := h.taskService.List(&query)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.ListSuccess(c, tasks, total, query.GetSkip(), query.GetLimit())
}

// Update 更新任务
// @Summary 更新任务
// @Tags Task
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "任务ID"
// @Param request body dto.UpdateTaskRequest true "更新任务请求"
// @Success 200 {object} utils.Response{data=dto.TaskResponse}
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req dto.UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.Update(id, &req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, task)
}

// Delete 删除任务
// @Summary 删除任务
// @Tags Task
// @Security BearerAuth
// @Param id path string true "任务ID"
// @Success 204
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(id); err != nil {
		utils.Error(c, err)
		return
	}

	utils.NoContent(c)
}
