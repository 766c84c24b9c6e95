package dto

// ── 日历事件模块 DTO ──

// CreateEventRequest 创建事件请求（recurrence_rule 非空时创建重复系列）
type CreateEventRequest struct {
	Title               string  `json:"title"                 binding:"required,max=200"`
	Location            *string `json:"location"              binding:"omitempty,max=200"`
	Description         *string `json:"description"`
	StartTime           int64   `json:"start_time"            binding:"required"` // Unix 秒
	EndTime             int64   `json:"end_time"              binding:"required"`
	ResponsibleMemberID *int64  `json:"responsible_member_id"`
	RecurrenceRule      *string `json:"recurrence_rule"` // 仅支持 weekly
}

// UpdateEventRequest 事件部分更新请求：仅非空字段生效
type UpdateEventRequest struct {
	Title               *string `json:"title"                 binding:"omitempty,max=200"`
	Location            *string `json:"location"              binding:"omitempty,max=200"`
	Description         *string `json:"description"`
	StartTime           *int64  `json:"start_time"`
	EndTime             *int64  `json:"end_time"`
	ResponsibleMemberID *int64  `json:"responsible_member_id"`
	ClearResponsible    bool    `json:"clear_responsible"` // 置空负责人
}

// EventViewQuery 按日/周/月查看事件
type EventViewQuery struct {
	View   string `form:"view"   binding:"required,oneof=day week month"`
	Anchor int64  `form:"anchor" binding:"required"`
}

// TimeRangeQuery 任意时间区间查询参数
type TimeRangeQuery struct {
	Start int64 `form:"start" binding:"required"`
	End   int64 `form:"end"   binding:"required"`
}

// SeriesScopeQuery 系列操作范围参数（this | future | all），为空表示只操作单条记录
type SeriesScopeQuery struct {
	Scope string `form:"scope"`
}

// AssignResponsibleRequest 指派负责人请求，member_id 为空表示取消指派
type AssignResponsibleRequest struct {
	MemberID *int64 `json:"member_id"`
}

// EventResponse 事件信息响应
type EventResponse struct {
	ID                  int64   `json:"id"`
	HouseholdID         int64   `json:"household_id"`
	Title               string  `json:"title"`
	Location            *string `json:"location,omitempty"`
	Description         *string `json:"description,omitempty"`
	StartTime           int64   `json:"start_time"`
	EndTime             int64   `json:"end_time"`
	ResponsibleMemberID *int64  `json:"responsible_member_id"`
	CreatedBy           int64   `json:"created_by"`
	RecurrenceRule      *string `json:"recurrence_rule,omitempty"`
	RecurrenceParentID  *int64  `json:"recurrence_parent_id"`
	CreatedAt           string  `json:"created_at"`
	UpdatedAt           string  `json:"updated_at"`
}

// SeriesResponse 事件所在系列
type SeriesResponse struct {
	Kind     string          `json:"kind"` // standalone | head | child
	ParentID int64           `json:"parent_id"`
	Events   []EventResponse `json:"events"`
}

// DeleteSeriesResponse 系列删除结果
type DeleteSeriesResponse struct {
	DeletedIDs []int64 `json:"deleted_ids"`
}
