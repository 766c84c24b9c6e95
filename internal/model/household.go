package model

import "time"

// 成员角色
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// Household 家庭表 — 对应 households（由成员目录维护，本服务只读）
type Household struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"   json:"created_at"`
}

// TableName 指定表名
func (Household) TableName() string { return "households" }

// HouseholdMember 家庭成员表 — 对应 household_members（由成员目录维护，本服务只读）
type HouseholdMember struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"          json:"id"`
	HouseholdID int64     `gorm:"not null;index"                    json:"household_id"`
	DisplayName string    `gorm:"type:varchar(100);not null"        json:"display_name"`
	Role        string    `gorm:"type:varchar(20);not null;default:'member'" json:"role"` // admin | member | viewer
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"           json:"created_at"`
}

// TableName 指定表名
func (HouseholdMember) TableName() string { return "household_members" }
