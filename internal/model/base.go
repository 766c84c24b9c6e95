package model

import "time"

// Timestamps 通用时间戳字段（所有业务模型嵌入）
// UpdatedAt 即“最后修改标记”，每次成功更新都会刷新
type Timestamps struct {
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// Int64Ptr 返回 int64 指针
func Int64Ptr(v int64) *int64 { return &v }

// StringPtr 返回 string 指针
func StringPtr(v string) *string { return &v }
