package model

// AvailabilityBlock 成员不可用时间块 — 对应 availability_blocks
//
// RecurringDay 仅作为标签存储（0=周日 … 6=周六），查询时不会展开成每周重复的实例，
// 只按字面 [StartTime, EndTime) 匹配。
type AvailabilityBlock struct {
	ID           int64   `gorm:"primaryKey;autoIncrement"  json:"id"`
	MemberID     int64   `gorm:"not null;index"            json:"member_id"`
	HouseholdID  int64   `gorm:"not null;index"            json:"household_id"`
	StartTime    int64   `gorm:"not null"                  json:"start_time"`
	EndTime      int64   `gorm:"not null"                  json:"end_time"`
	Reason       *string `gorm:"type:varchar(200)"         json:"reason,omitempty"`
	RecurringDay *int    `gorm:"type:smallint"             json:"recurring_day,omitempty"`
	Timestamps
}

// TableName 指定表名
func (AvailabilityBlock) TableName() string { return "availability_blocks" }

// MemberAvailabilityRow 带成员显示名的查询行（联表结果）
type MemberAvailabilityRow struct {
	AvailabilityBlock
	DisplayName string `gorm:"column:display_name" json:"display_name"`
}
