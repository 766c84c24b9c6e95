package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"homesync/internal/service"
	pkgerrors "homesync/pkg/errors"
	"homesync/pkg/response"
)

// 业务错误码：21xxx 日历事件，22xxx 不可用时间，23xxx 导出
type errorMapping struct {
	err     error
	status  int
	code    int
	message string
}

var serviceErrors = []errorMapping{
	{service.ErrEventNotFound, http.StatusNotFound, 21001, "事件不存在"},
	{service.ErrTitleRequired, http.StatusBadRequest, 21002, "标题不能为空"},
	{service.ErrInvalidRange, http.StatusBadRequest, 21003, "开始时间必须早于结束时间"},
	{service.ErrInvalidRecurrence, http.StatusBadRequest, 21004, "不支持的重复规则"},
	{service.ErrInvalidScope, http.StatusBadRequest, 21005, "不支持的操作范围"},
	{service.ErrInvalidView, http.StatusBadRequest, 21006, "不支持的视图"},
	{service.ErrHouseholdNotFound, http.StatusNotFound, 21007, "家庭不存在"},
	{service.ErrMemberNotInHousehold, http.StatusBadRequest, 21008, "成员不属于该家庭"},
	{service.ErrMemberUnavailable, http.StatusConflict, 21009, "成员在该时段不可用"},
	{service.ErrAvailabilityNotFound, http.StatusNotFound, 22001, "不可用时间记录不存在"},
	{service.ErrInvalidRecurringDay, http.StatusBadRequest, 22002, "recurring_day 必须在 0-6 之间"},
	{service.ErrICSParse, http.StatusBadRequest, 22003, "ICS 内容无法解析"},
	{service.ErrICSTooManyBlocks, http.StatusBadRequest, 22004, "ICS 导入的时间块数量超过上限"},
	{service.ErrImportWindow, http.StatusBadRequest, 22005, "导入窗口不能超过 366 天"},
	{service.ErrExportGenerateFail, http.StatusInternalServerError, 23001, "生成导出文件失败"},
}

// handleServiceError 将 Service 层错误映射为统一响应；带字段信息的错误会回写 field
func handleServiceError(c *gin.Context, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			if field := pkgerrors.FieldOf(err); field != "" {
				response.FieldError(c, m.status, m.code, m.message, field)
				return
			}
			response.Error(c, m.status, m.code, m.message)
			return
		}
	}
	_ = c.Error(err)
	response.InternalError(c)
}
