package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

// Page 分页参数
type Page struct {
	Skip  int
	Limit int
}

// paginate 稳定排序后分页
func paginate(db *gorm.DB, p Page) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC").Offset(p.Skip).Limit(p.Limit)
}

// isDuplicate 唯一约束冲突
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

// wrapError 统一转换数据库错误
func wrapError(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgErrors.ErrRecordNotFound
	}
	if isDuplicate(err) {
		return pkgErrors.Wrap(pkgErrors.CodeConflict, pkgErrors.ErrRecordExists.Message, err)
	}
	return pkgErrors.Wrap(pkgErrors.CodeInternalError, message, err)
}

// StatusCount 按状态统计
type StatusCount struct {
	Status string
	Count  int64
}
