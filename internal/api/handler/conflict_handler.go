package handler

import (
	"github.com/gin-gonic/gin"

	"homesync/internal/dto"
	"homesync/internal/service"
	"homesync/pkg/response"
)

// ConflictHandler 冲突检测 HTTP 处理器
type ConflictHandler struct {
	conflictSvc service.ConflictService
}

// NewConflictHandler 创建 ConflictHandler
func NewConflictHandler(conflictSvc service.ConflictService) *ConflictHandler {
	return &ConflictHandler{conflictSvc: conflictSvc}
}

// CheckConflicts 检测候选区间的冲突（只读，可在提交编辑前调用）
// POST /api/v1/conflicts/check
func (h *ConflictHandler) CheckConflicts(c *gin.Context) {
	var req dto.CheckConflictRequest
	if !bindJSON(c, &req) {
		return
	}
	householdID, ok := MustGetHouseholdID(c)
	if !ok {
		return
	}

	report, err := h.conflictSvc.DetectConflicts(c.Request.Context(), householdID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, report)
}
