package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// CORSMiddleware 跨域中间件, allowedHosts 为允许的来源列表, 包含 "*" 时放行全部
func CORSMiddleware(allowedHosts []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}

	if lo.Contains(allowedHosts, "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cors.New(cfg)
	}

	// cors.New 对非 http(s) 来源直接 panic, 先过滤
	cfg.AllowOrigins = lo.FilterMap(allowedHosts, func(h string, _ int) (string, bool) {
		h = strings.TrimRight(strings.TrimSpace(h), "/")
		return h, strings.HasPrefix(h, "http://") || strings.HasPrefix(h, "https://")
	})
	if len(cfg.AllowOrigins) == 0 {
		// 无合法来源时拒绝所有跨域请求
		cfg.AllowOriginFunc = func(string) bool { return false }
	}
	return cors.New(cfg)
}
