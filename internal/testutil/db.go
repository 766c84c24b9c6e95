// Package testutil 提供测试用的内存数据库与种子数据
package testutil

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"homesync/internal/model"
)

// NewDB 创建一个独立的内存 SQLite 数据库并按模型建表。
// 内存库只存在于单个连接上，因此连接池固定为 1：
// 事务内的查询必须走事务句柄，否则会互相等待。
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层 sql.DB 失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(
		&model.Household{},
		&model.HouseholdMember{},
		&model.CalendarEvent{},
		&model.AvailabilityBlock{},
	); err != nil {
		t.Fatalf("AutoMigrate 失败: %v", err)
	}
	return db
}

// SeedHousehold 创建一个家庭及若干成员，返回家庭与成员（顺序与 names 一致）
func SeedHousehold(t *testing.T, db *gorm.DB, names ...string) (*model.Household, []model.HouseholdMember) {
	t.Helper()

	h := &model.Household{Name: fmt.Sprintf("测试家庭-%s", t.Name())}
	if err := db.Create(h).Error; err != nil {
		t.Fatalf("创建家庭失败: %v", err)
	}

	members := make([]model.HouseholdMember, 0, len(names))
	for _, n := range names {
		m := model.HouseholdMember{HouseholdID: h.ID, DisplayName: n, Role: model.RoleMember}
		if err := db.Create(&m).Error; err != nil {
			t.Fatalf("创建成员失败: %v", err)
		}
		members = append(members, m)
	}
	return h, members
}
