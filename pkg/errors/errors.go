package errors

import (
	"errors"
	"fmt"
)

// FieldError 字段级校验错误：记录出错字段并包装业务哨兵错误，
// 调用方可用 errors.Is 判断错误种类，用 Field 渲染具体提示。
type FieldError struct {
	Field string
	Err   error
}

// NewFieldError 创建字段错误
func NewFieldError(field string, err error) *FieldError {
	return &FieldError{Field: field, Err: err}
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// FieldOf 提取错误链中的出错字段，无字段信息时返回空串
func FieldOf(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Field
	}
	return ""
}
