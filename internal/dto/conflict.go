package dto

// ── 冲突检测模块 DTO ──

// CheckConflictRequest 冲突检测请求
type CheckConflictRequest struct {
	StartTime      int64  `json:"start_time"       binding:"required"`
	EndTime        int64  `json:"end_time"         binding:"required"`
	ExcludeEventID *int64 `json:"exclude_event_id"` // 编辑已有事件时排除其自身
}

// UnavailableMember 与候选区间重叠的成员不可用时间
type UnavailableMember struct {
	MemberID    int64   `json:"member_id"`
	DisplayName string  `json:"display_name"`
	BlockID     int64   `json:"block_id"`
	StartTime   int64   `json:"start_time"`
	EndTime     int64   `json:"end_time"`
	Reason      *string `json:"reason,omitempty"`
}

// ConflictReport 冲突检测结果
type ConflictReport struct {
	OverlappingEvents   []EventResponse     `json:"overlapping_events"`
	UnavailableMembers  []UnavailableMember `json:"unavailable_members"`
	NoResponsiblePerson bool                `json:"no_responsible_person"`
}
