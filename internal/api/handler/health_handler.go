package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const serviceName = "ai-project-management-api"

type HealthHandler struct {
	version string
}

func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version}
}

// Root 服务信息
// @Summary 服务信息
// @Tags Ops
// @Produce json
// @Success 200 {object} map[string]string
// @Router / [get]
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "AI-Powered Project Management API",
		"version": h.version,
		"docs":    "/swagger/index.html",
	})
}

// Health 健康检查
// @Summary 健康检查
// @Tags Ops
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
	})
}
