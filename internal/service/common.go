package service

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/dto"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/crypto"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/repository"
	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

// Clock 当前时间, 测试中可固定
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

// notFound 将仓储的 ErrRecordNotFound 转为带实体名称的404
func notFound(err error, kind string) error {
	if errors.Is(err, pkgErrors.ErrRecordNotFound) {
		return pkgErrors.NotFound(kind)
	}
	return err
}

// hashPassword 超长密码按校验错误返回
func hashPassword(password string) (string, error) {
	hashed, err := crypto.HashPassword(password)
	if errors.Is(err, crypto.ErrPasswordTooLong) {
		return "", pkgErrors.NewValidation("password", "max", "Password must be at most 72 bytes")
	}
	if err != nil {
		return "", pkgErrors.Wrap(pkgErrors.CodeInternalError, "Failed to hash password", err)
	}
	return hashed, nil
}

func pageOf(q *dto.ListQuery) repository.Page {
	return repository.Page{Skip: q.GetSkip(), Limit: q.GetLimit()}
}

// settingsJSON 校验并转换 settings 字段, 未传时返回 nil
func settingsJSON(raw json.RawMessage) (datatypes.JSON, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, pkgErrors.NewValidation("settings", "json", "Settings must be valid JSON")
	}
	return datatypes.JSON(raw), nil
}

func rawSettings(settings datatypes.JSON) json.RawMessage {
	if len(settings) == 0 {
		return nil
	}
	return json.RawMessage(settings)
}
