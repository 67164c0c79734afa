package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/dto"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/service"
	"github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
	"github.com/derril-tech/ai-powered-project-management-tool/pkg/utils"
)

// maxAvatarSize 头像文件上限 5MB
const maxAvatarSize = 5 << 20

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// Create 创建用户
// @Summary 创建用户
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateUserRequest true "创建用户请求"
// @Success 201 {object} utils.Response{data=dto.UserResponse}
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Create(&req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Created(c, user)
}

// GetByID 获取用户详情
// @Summary 获取用户详情
// @Tags User
// @Produce json
// @Security BearerAuth
// @Param id path string true "用户ID"
// @Success 200 {object} utils.Response{data=dto.UserResponse}
// @Router /users/{id} [get]
func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(id)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, user)
}

// List 获取用户列表
// @Summary 获取用户列表
// @Tags User
// @Produce json
// @Security BearerAuth
// @Param skip query int false "偏移量"
// @Param limit query int false "数量"
// @Param team_id query string false "团队ID"
// @Param role query string false "角色"
// @Param is_active query bool false "是否启用"
// @Success 200 {object} utils.ListResponse{data=[]dto.UserResponse}
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	var query dto.UserListQuery
	if !bindQuery(c, &query) {
		return
	}

	users, total, err := h.userService.List(&query)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.ListSuccess(c, users, total, query.GetSkip(), query.GetLimit())
}

// Update 更新用户
// @Summary 更新用户
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "用户ID"
// @Param request body dto.UpdateUserRequest true "更新用户请求"
// @Success 200 {object} utils.Response{data=dto.UserResponse}
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Update(id, &req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, user)
}

// Delete 删除用户
// @Summary 删除用户
// @Tags User
// @Security BearerAuth
// @Param id path string true "用户ID"
// @Success 204
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	if err := h.userService.Delete(id); err != nil {
		utils.Error(c, err)
		return
	}

	utils.NoContent(c)
}

// GetMe 当前用户信息
// @Summary 当前用户信息
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.Response{data=dto.UserResponse}
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	id, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(id)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, user)
}

// UpdateMe 修改个人资料
// @Summary 修改个人资料
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateMeRequest true "个人资料"
// @Success 200 {object} utils.Response{data=dto.UserResponse}
// @Router /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	id, ok := currentUserID(c)
	if !ok {
		return
	}
	var req dto.UpdateMeRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateMe(id, &req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, user)
}

// UploadAvatar 上传头像
// @Summary 上传头像
// @Tags User
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "头像文件(png/jpeg/gif/webp, 不超过5MB)"
// @Success 200 {object} utils.Response{data=dto.UserResponse}
// @Router /users/me/avatar [put]
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	id, ok := currentUserID(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		utils.Error(c, errors.NewValidation("file", "required", "field 'file' is required"))
		return
	}
	if header.Size > maxAvatarSize {
		utils.Error(c, errors.NewValidation("file", "max", "field 'file' must be at most 5MB"))
		return
	}

	file, err := header.Open()
	if err != nil {
		utils.ErrorWithDetail(c, errors.CodeBadRequest, "Invalid upload", err.Error())
		return
	}
	defer file.Close()

	user, err := h.userService.UploadAvatar(c.Request.Context(), id, &service.AvatarUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      file,
	})
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, user)
}
