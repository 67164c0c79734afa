package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// tagMessages 规则对应的提示, %[1]s 为字段名, %[2]s 为规则参数
var (
	tagMu       sync.RWMutex
	tagMessages = map[string]string{
		"required":      "field '%[1]s' is required",
		"max":           "field '%[1]s' must be at most %[2]s characters",
		"min":           "field '%[1]s' must be at least %[2]s characters",
		"oneof":         "field '%[1]s' must be one of: %[2]s",
		"email":         "field '%[1]s' must be a valid email address",
		"url":           "field '%[1]s' must be a valid URL",
		"uuid":          "field '%[1]s' must be a valid UUID",
		"uuid4":         "field '%[1]s' must be a valid UUID",
		"uuid_or_empty": "field '%[1]s' must be a valid UUID or empty",
		"gte":           "field '%[1]s' must be greater than or equal to %[2]s",
		"lte":           "field '%[1]s' must be less than or equal to %[2]s",
	}
)

// RegisterEnumMessage 为自定义枚举规则注册提示
func RegisterEnumMessage(tag string, values []string) {
	tagMu.Lock()
	defer tagMu.Unlock()
	tagMessages[tag] = "field '%[1]s' must be one of: " + strings.Join(values, " ")
}

// FormatValidationError 格式化验证错误信息
func FormatValidationError(err error) string {
	if err == nil {
		return ""
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		messages := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			messages = append(messages, formatFieldError(e))
		}
		return strings.Join(messages, "; ")
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("field '%s' should be %s", typeErr.Field, typeErr.Type.String())
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return "invalid JSON format"
	}

	return err.Error()
}

// FirstFieldError 返回第一个字段错误的字段名(json名)与规则
func FirstFieldError(err error) (field, rule string, ok bool) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return "", "", false
	}
	e := validationErrors[0]
	return e.Field(), e.Tag(), true
}

func formatFieldError(e validator.FieldError) string {
	tagMu.RLock()
	msg, ok := tagMessages[e.Tag()]
	tagMu.RUnlock()
	if !ok {
		return fmt.Sprintf("field '%s' validation failed on '%s' tag", e.Field(), e.Tag())
	}
	return fmt.Sprintf(msg, e.Field(), e.Param())
}
