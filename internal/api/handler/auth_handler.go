package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/api/middleware"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/dto"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/service"
	"github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
	"github.com/derril-tech/ai-powered-project-management-tool/pkg/utils"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register 注册
// @Summary 注册
// @Description 团队不存在时自动创建, 新团队的第一个用户为 owner
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "注册请求"
// @Success 201 {object} utils.Response{data=dto.TokenResponse}
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Register(&req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Created(c, resp)
}

// Login 登录
// @Summary 登录
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "登录请求"
// @Success 200 {object} utils.Response{data=dto.TokenResponse}
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// Refresh 刷新Token
// @Summary 刷新Token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "刷新Token请求"
// @Success 200 {object} utils.Response{data=dto.TokenResponse}
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// Logout 注销当前访问令牌
// @Summary 注销
// @Tags Auth
// @Security BearerAuth
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		utils.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		utils.Error(c, err)
		return
	}

	utils.NoContent(c)
}
