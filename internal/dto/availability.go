package dto

// ── 不可用时间模块 DTO ──

// CreateAvailabilityRequest 创建不可用时间块；member_id 为空时默认为当前成员
type CreateAvailabilityRequest struct {
	MemberID     *int64  `json:"member_id"`
	StartTime    int64   `json:"start_time"    binding:"required"`
	EndTime      int64   `json:"end_time"      binding:"required"`
	Reason       *string `json:"reason"        binding:"omitempty,max=200"`
	RecurringDay *int    `json:"recurring_day" binding:"omitempty,min=0,max=6"`
}

// UpdateAvailabilityRequest 部分更新不可用时间块；clear_* 优先于同名字段
type UpdateAvailabilityRequest struct {
	StartTime         *int64  `json:"start_time"`
	EndTime           *int64  `json:"end_time"`
	Reason            *string `json:"reason"        binding:"omitempty,max=200"`
	RecurringDay      *int    `json:"recurring_day" binding:"omitempty,min=0,max=6"`
	ClearReason       bool    `json:"clear_reason"`        // 置空 reason
	ClearRecurringDay bool    `json:"clear_recurring_day"` // 置空 recurring_day
}

// MemberAvailabilityQuery 单个成员的区间查询
type MemberAvailabilityQuery struct {
	MemberID int64 `form:"member_id" binding:"required"`
	Start    int64 `form:"start"     binding:"required"`
	End      int64 `form:"end"       binding:"required"`
}

// AvailabilityResponse 不可用时间块响应
type AvailabilityResponse struct {
	ID           int64   `json:"id"`
	MemberID     int64   `json:"member_id"`
	HouseholdID  int64   `json:"household_id"`
	StartTime    int64   `json:"start_time"`
	EndTime      int64   `json:"end_time"`
	Reason       *string `json:"reason,omitempty"`
	RecurringDay *int    `json:"recurring_day,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// MemberAvailability 单个成员的时间块分组
type MemberAvailability struct {
	MemberID    int64                  `json:"member_id"`
	DisplayName string                 `json:"display_name"`
	Blocks      []AvailabilityResponse `json:"blocks"`
}

// AvailabilityCheckResponse 成员可用性检查结果
type AvailabilityCheckResponse struct {
	MemberID  int64 `json:"member_id"`
	Available bool  `json:"available"`
}

// ImportICSRequest ICS 导入参数（查询串）；ICS 内容放在请求体中
type ImportICSRequest struct {
	MemberID *int64 `form:"member_id"`
	Start    int64  `form:"start" binding:"required"`
	End      int64  `form:"end"   binding:"required"`
}

// ImportICSResponse ICS 导入结果
type ImportICSResponse struct {
	MemberID    int64                  `json:"member_id"`
	DisplayName string                 `json:"display_name"`
	Imported    int                    `json:"imported"`
	Skipped     int                    `json:"skipped"`
	Blocks      []AvailabilityResponse `json:"blocks"`
}
