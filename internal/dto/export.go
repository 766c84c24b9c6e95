package dto

// ExportICSQuery iCalendar 导出参数
type ExportICSQuery struct {
	Start int64 `form:"start" binding:"required"`
	End   int64 `form:"end"   binding:"required"`
}

// ExportMonthQuery 月视图 Excel 导出参数
type ExportMonthQuery struct {
	Anchor int64 `form:"anchor" binding:"required"`
}
