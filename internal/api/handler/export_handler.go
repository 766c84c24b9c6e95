package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"homesync/internal/dto"
	"homesync/internal/service"
	"homesync/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportICS 导出区间内事件为 iCalendar
// GET /api/v1/export/ics?start=&end=
func (h *ExportHandler) ExportICS(c *gin.Context) {
	var q dto.ExportICSQuery
	if !bindQuery(c, &q) {
		return
	}
	householdID, ok := MustGetHouseholdID(c)
	if !ok {
		return
	}

	content, err := h.exportSvc.ExportICS(c.Request.Context(), householdID, q.Start, q.End)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("homesync_%s.ics", time.Unix(q.Start, 0).UTC().Format("20060102"))
	response.Attachment(c, "text/calendar; charset=utf-8", filename, []byte(content))
}

// ExportMonth 导出 anchor 所在月份的事件为 Excel
// GET /api/v1/export/month.xlsx?anchor=
func (h *ExportHandler) ExportMonth(c *gin.Context) {
	var q dto.ExportMonthQuery
	if !bindQuery(c, &q) {
		return
	}
	householdID, ok := MustGetHouseholdID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportMonthXLSX(c.Request.Context(), householdID, q.Anchor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Attachment(c, xlsxContentType, filename, buf.Bytes())
}
