package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Event        CalendarEventRepository
	Availability AvailabilityRepository
	Directory    DirectoryRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		Event:        NewCalendarEventRepo(db),
		Availability: NewAvailabilityRepo(db),
		Directory:    NewDirectoryRepo(db),
	}
}

// Transaction 在单个数据库事务中执行 fn，fn 返回错误时整体回滚。
// 事务内的 Event / Availability 绑定到同一个 tx；Directory 是只读协作方，沿用外层实例。
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &Repository{
			db:           tx,
			Event:        NewCalendarEventRepo(tx),
			Availability: NewAvailabilityRepo(tx),
			Directory:    r.Directory,
		}
		return fn(txRepo)
	})
}
