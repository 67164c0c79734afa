package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/auth"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/jwt"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/service"
	"github.com/derril-tech/ai-powered-project-management-tool/pkg/constants"
	"github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
	"github.com/derril-tech/ai-powered-project-management-tool/pkg/utils"
)

// AuthMiddleware JWT认证中间件
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 获取Authorization header
		authHeader := c.GetHeader(constants.HeaderAuthorization)
		if authHeader == "" {
			utils.ErrorWithCode(c, errors.CodeUnauthorized, "Missing Authorization header")
			return
		}

		// 检查Bearer前缀, 大小写不敏感
		prefix := constants.HeaderBearerPrefix
		if len(authHeader) <= len(prefix) || !strings.EqualFold(authHeader[:len(prefix)], prefix) {
			utils.ErrorWithCode(c, errors.CodeUnauthorized, "Invalid Authorization format")
			return
		}

		// 校验类型与注销状态
		claims, err := authService.VerifyToken(c.Request.Context(), strings.TrimSpace(authHeader[len(prefix):]))
		if err != nil {
			utils.Error(c, err)
			return
		}

		// 将用户信息存入context
		c.Set(constants.ContextKeyUser, claims)
		c.Set(constants.ContextKeyUserID, claims.UserID)
		c.Set(constants.ContextKeyRole, claims.Role)
		c.Set(constants.ContextKeyTokenID, claims.ID)

		c.Next()
	}
}

// RequirePermission 校验当前角色是否拥有权限, 需在 AuthMiddleware 之后使用
func RequirePermission(perm auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(constants.ContextKeyRole)
		if !auth.Allow([]string{role}, perm) {
			utils.Error(c, errors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// CurrentClaims 取出认证中间件写入的令牌信息
func CurrentClaims(c *gin.Context) (*jwt.UserClaims, bool) {
	v, ok := c.Get(constants.ContextKeyUser)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.UserClaims)
	return claims, ok
}
