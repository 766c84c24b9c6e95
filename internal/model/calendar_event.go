package model

// RecurrenceWeekly 唯一支持的重复规则
const RecurrenceWeekly = "weekly"

// CalendarEvent 日历事件表 — 对应 calendar_events
//
// 重复系列采用单层父子结构：系列头的 RecurrenceParentID 为空，
// 由它生成的实例指向系列头 ID。判断“属于系列 P”须写成
// id = P OR recurrence_parent_id = P。
type CalendarEvent struct {
	ID                  int64   `gorm:"primaryKey;autoIncrement"                          json:"id"`
	HouseholdID         int64   `gorm:"not null;index:idx_events_household_start,priority:1" json:"household_id"`
	Title               string  `gorm:"type:varchar(200);not null"                        json:"title"`
	Location            *string `gorm:"type:varchar(200)"                                 json:"location,omitempty"`
	Description         *string `gorm:"type:text"                                         json:"description,omitempty"`
	StartTime           int64   `gorm:"not null;index:idx_events_household_start,priority:2" json:"start_time"` // Unix 秒
	EndTime             int64   `gorm:"not null"                                          json:"end_time"`
	ResponsibleMemberID *int64  `json:"responsible_member_id"`
	CreatedBy           int64   `gorm:"not null;<-:create"                                json:"created_by"`
	RecurrenceRule      *string `gorm:"type:varchar(20)"                                  json:"recurrence_rule,omitempty"`
	RecurrenceParentID  *int64  `gorm:"index"                                             json:"recurrence_parent_id"`
	Timestamps
}

// TableName 指定表名
func (CalendarEvent) TableName() string { return "calendar_events" }

// SeriesID 返回事件所属系列的锚点 ID：子实例取父 ID，其余取自身 ID
func (e *CalendarEvent) SeriesID() int64 {
	if e.RecurrenceParentID != nil {
		return *e.RecurrenceParentID
	}
	return e.ID
}

// InSeries 判断事件是否属于以 parentID 为锚点的系列（含系列头本身）
func (e *CalendarEvent) InSeries(parentID int64) bool {
	return e.ID == parentID || (e.RecurrenceParentID != nil && *e.RecurrenceParentID == parentID)
}
