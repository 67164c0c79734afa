package dto

import "github.com/derril-tech/ai-powered-project-management-tool/pkg/constants"

// ListQuery 分页查询参数
type ListQuery struct {
	Skip  *int `form:"skip" binding:"omitempty,min=0"` // 可选：偏移量，不传默认为0
	Limit *int `form:"limit"`                          // 可选：数量，不传默认为100，范围[1,1000]
}

// GetSkip 获取偏移量
func (q *ListQuery) GetSkip() int {
	if q.Skip == nil || *q.Skip < 0 {
		return 0
	}
	return *q.Skip
}

// GetLimit 获取数量
func (q *ListQuery) GetLimit() int {
	if q.Limit == nil {
		return constants.DefaultLimit
	}
	if *q.Limit < 1 {
		return 1
	}
	if *q.Limit > constants.MaxLimit {
		return constants.MaxLimit
	}
	return *q.Limit
}

// IDParam ID参数
type IDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}
