package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"homesync/internal/dto"
	"homesync/internal/service"
	"homesync/pkg/response"
)

// AvailabilityHandler 不可用时间模块 HTTP 处理器
type AvailabilityHandler struct {
	availabilitySvc service.AvailabilityService
	conflictSvc     service.ConflictService
}

// NewAvailabilityHandler 创建 AvailabilityHandler
func NewAvailabilityHandler(availabilitySvc service.AvailabilityService, conflictSvc service.ConflictService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilitySvc: availabilitySvc, conflictSvc: conflictSvc}
}

// ListMemberBlocks 查询单个成员在区间内的不可用时间
// GET /api/v1/availability?member_id=&start=&end=
func (h *AvailabilityHandler) ListMemberBlocks(c *gin.Context) {
	var q dto.MemberAvailabilityQuery
	if !bindQuery(c, &q) {
		return
	}
	householdID, ok := MustGetHouseholdID(c)
	if !ok {
		return
	}

	blocks, err := h.availabilitySvc.ListForMember(c.Request.Context(), householdID, q.MemberID, q.Start, q.End)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": blocks})
}

// ListHouseholdBlocks 查询全家在区间内的不可用时间，按成员分组
// GET /api/v1/availability/household?start=&end=
func (h *AvailabilityHandler) ListHouseholdBlocks(c *gin.Context) {
	var q dto.TimeRangeQuery
	if !bindQuery(c, &q) {
		return
	}
	householdID, ok := MustGetHouseholdID(c)
	if !ok {
		return
	}

	grouped, err := h.availabilitySvc.ListForHousehold(c.Request.Context(), householdID, q.Start, q.End)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"members": grouped})
}

// CheckMember 检查成员在区间内是否可用
// GET /api/v1/availability/check?member_id=&start=&end=
func (h *AvailabilityHandler) CheckMember(c *gin.Context) {
	var q dto.MemberAvailabilityQuery
	if !bindQuery(c, &q) {
		return
	}
	householdID, ok := MustGetHouseholdID(c)
	if !ok {
		return
	}

	available, err := h.conflictSvc.IsUserAvailable(c.Request.Context(), q.MemberID, householdID, q.Start, q.End)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, dto.AvailabilityCheckResponse{MemberID: q.MemberID, Available: available})
}

// GetBlock 获取不可用时间详情
// GET /api/v1/availability/:id
func (h *AvailabilityHandler) GetBlock(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	householdID, ok := MustGetHouseholdID(c)
	if !ok {
		return
	}

	block, err := h.availabilitySvc.GetByID(c.Request.Context(), householdID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, block)
}

// CreateBlock 创建不可用时间（member_id 为空时记到当前成员名下）
// POST /api/v1/availability
func (h *AvailabilityHandler) CreateBlock(c *gin.Context) {
	var req dto.CreateAvailabilityRequest
	if !bindJSON(c, &req) {
		return
	}
	householdID, ok := MustGetHouseholdID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetMemberID(c)
	if !ok {
		return
	}

	block, err := h.availabilitySvc.Create(c.Request.Context(), householdID, callerID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, block)
}

// ImportICS 导入外部日历的忙碌时段（请求体为 text/calendar 原文）
// POST /api/v1/availability/import?start=&end=&member_id=
func (h *AvailabilityHandler) ImportICS(c *gin.Context) {
	var req dto.ImportICSRequest
	if !bindQuery(c, &req) {
		return
	}
	householdID, ok := MustGetHouseholdID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetMemberID(c)
	if !ok {
		return
	}

	content, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return
		}
		response.BadRequest(c, 10001, "读取请求体失败")
		return
	}
	if len(bytes.TrimSpace(content)) == 0 {
		response.BadRequest(c, 10001, "ICS 内容不能为空")
		return
	}

	result, err := h.availabilitySvc.ImportICS(c.Request.Context(), householdID, callerID, &req, bytes.NewReader(content))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, result)
}

// UpdateBlock 部分更新不可用时间
// PUT /api/v1/availability/:id
func (h *AvailabilityHandler) UpdateBlock(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req dto.UpdateAvailabilityRequest
	if !bindJSON(c, &req) {
		return
	}
	householdID, ok := MustGetHouseholdID(c)
	if !ok {
		return
	}

	block, err := h.availabilitySvc.Update(c.Request.Context(), householdID, id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, block)
}

// DeleteBlock 删除不可用时间（幂等）
// DELETE /api/v1/availability/:id
func (h *AvailabilityHandler) DeleteBlock(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	householdID, ok := MustGetHouseholdID(c)
	if !ok {
		return
	}

	if err := h.availabilitySvc.Delete(c.Request.Context(), householdID, id); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}
