package errors

import (
	stderrors "errors"
	"fmt"
)

// 错误码, 与HTTP状态码一致
const (
	CodeSuccess         = 200
	CodeCreated         = 201
	CodeNoContent       = 204
	CodeBadRequest      = 400
	CodeUnauthorized    = 401
	CodeForbidden       = 403
	CodeNotFound        = 404
	CodeConflict        = 409
	CodeValidationError = 422
	CodeInternalError   = 500
	CodeUpstreamError   = 502
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"` // 校验失败的字段
	Rule    string `json:"rule,omitempty"`  // 校验失败的规则
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%d] %s: %s (%s)", e.Code, e.Field, e.Message, e.Rule)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码匹配, 使 errors.Is(err, ErrRecordNotFound) 对包装后的错误同样成立
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && (t.Message == "" || e.Message == t.Message)
}

// New 创建新错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewValidation 字段校验错误
func NewValidation(field, rule, message string) *AppError {
	return &AppError{
		Code:    CodeValidationError,
		Message: message,
		Field:   field,
		Rule:    rule,
	}
}

// NotFound 返回带实体名称的404错误, 例如 "Task not found"
func NotFound(kind string) *AppError {
	return New(CodeNotFound, kind+" not found")
}

// IsNotFound 判断是否为404错误
func IsNotFound(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == CodeNotFound
}

// AsAppError 提取AppError
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// 预定义错误
var (
	ErrBadRequest      = New(CodeBadRequest, "Invalid request parameters")
	ErrUnauthorized    = New(CodeUnauthorized, "Not authenticated")
	ErrForbidden       = New(CodeForbidden, "Permission denied")
	ErrConflict        = New(CodeConflict, "Resource conflict")
	ErrInternalError   = New(CodeInternalError, "Internal server error")
	ErrValidationError = New(CodeValidationError, "Validation failed")

	ErrInvalidCredentials = New(CodeUnauthorized, "Incorrect email or password")
	ErrUserDisabled       = New(CodeForbidden, "User is inactive")
	ErrInvalidToken       = New(CodeUnauthorized, "Invalid token")
	ErrTokenExpired       = New(CodeUnauthorized, "Token expired")
	ErrTokenRevoked       = New(CodeUnauthorized, "Token revoked")
	ErrRecordNotFound     = New(CodeNotFound, "Record not found")
	ErrRecordExists       = New(CodeConflict, "Record already exists")
)
