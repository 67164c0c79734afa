package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// GormWriter 实现 gorm logger.Writer, SQL 日志写入 zap
type GormWriter struct {
	logger *zap.Logger
}

func (w *GormWriter) Printf(format string, args ...interface{}) {
	w.logger.Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// GetWriter 需在 Init 之后调用
func GetWriter() *GormWriter {
	return NewGormWriter(Log)
}

// NewGormWriter gorm 自带调用位置, 关闭 zap 的 caller
func NewGormWriter(l *zap.Logger) *GormWriter {
	return &GormWriter{logger: l.Named("gorm").WithOptions(zap.WithCaller(false))}
}
