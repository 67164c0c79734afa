package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/dto"
	"github.com/derril-tech/ai-powered-project-management-tool/pkg/constants"
	"github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
	"github.com/derril-tech/ai-powered-project-management-tool/pkg/utils"
)

// bindError 将绑定错误转换为响应: 字段校验失败返回422, 其余视为请求格式错误
func bindError(c *gin.Context, err error) {
	if field, rule, ok := utils.FirstFieldError(err); ok {
		utils.Error(c, errors.NewValidation(field, rule, utils.FormatValidationError(err)))
		return
	}
	utils.ErrorWithDetail(c, errors.CodeBadRequest, "Invalid request parameters", utils.FormatValidationError(err))
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		bindError(c, err)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		bindError(c, err)
		return false
	}
	return true
}

// bindID 解析路径中的 id
func bindID(c *gin.Context) (string, bool) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		bindError(c, err)
		return "", false
	}
	return param.ID, true
}

// currentUserID 当前登录用户
func currentUserID(c *gin.Context) (string, bool) {
	id := c.GetString(constants.ContextKeyUserID)
	if id == "" {
		utils.Error(c, errors.ErrUnauthorized)
		return "", false
	}
	return id, true
}
