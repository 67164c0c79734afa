package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Detail  string      `json:"detail,omitempty"` // 详细错误信息（可选）
	Field   string      `json:"field,omitempty"`
	Rule    string      `json:"rule,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse 列表响应结构, data 始终为数组
type ListResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Total   int64       `json:"total"`
	Skip    int         `json:"skip"`
	Limit   int         `json:"limit"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    errors.CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    errors.CodeCreated,
		Message: "created",
		Data:    data,
	})
}

// NoContent 删除成功, 空响应体
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// ListSuccess 列表成功响应
func ListSuccess(c *gin.Context, data interface{}, total int64, skip, limit int) {
	c.JSON(http.StatusOK, ListResponse{
		Code:    errors.CodeSuccess,
		Message: "success",
		Data:    data,
		Total:   total,
		Skip:    skip,
		Limit:   limit,
	})
}

// Error 错误响应, HTTP状态码与业务错误码一致
func Error(c *gin.Context, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		resp := Response{
			Code:    appErr.Code,
			Message: appErr.Message,
			Detail:  appErr.Message,
			Field:   appErr.Field,
			Rule:    appErr.Rule,
		}
		c.AbortWithStatusJSON(httpStatus(appErr.Code), resp)
		return
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
		Code:    errors.CodeInternalError,
		Message: "Internal server error",
		Detail:  err.Error(),
	})
}

// ErrorWithCode 自定义错误响应
func ErrorWithCode(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(httpStatus(code), Response{
		Code:    code,
		Message: message,
		Detail:  message,
	})
}

// ErrorWithDetail 带详细信息的错误响应
func ErrorWithDetail(c *gin.Context, code int, message, detail string) {
	c.AbortWithStatusJSON(httpStatus(code), Response{
		Code:    code,
		Message: message,
		Detail:  detail,
	})
}

func httpStatus(code int) int {
	if code < 100 || code > 599 {
		return http.StatusInternalServerError
	}
	return code
}
