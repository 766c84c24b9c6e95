package handler

import (
	"github.com/gin-gonic/gin"

	"homesync/internal/dto"
	"homesync/internal/service"
	"homesync/pkg/response"
)

// CalendarHandler 日历事件模块 HTTP 处理器
type CalendarHandler struct {
	calendarSvc service.CalendarService
}

// NewCalendarHandler 创建 CalendarHandler
func NewCalendarHandler(calendarSvc service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarSvc: calendarSvc}
}

// ListEvents 按日/周/月视图列出事件
// GET /api/v1/events?view=week&anchor=1709546400
func (h *CalendarHandler) ListEvents(c *gin.Context) {
	var q dto.EventViewQuery
	if !bindQuery(c, &q) {
		return
	}
	householdID, ok := MustGetHouseholdID(c)
	if !ok {
		return
	}

	events, err := h.calendarSvc.ListByView(c.Request.Context(), householdID, q.View, q.Anchor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": events})
}

// ListEventsInRange 列出任意区间内的事件
// GET /api/v1/events/range?start=&end=
func (h *CalendarHandler) ListEventsInRange(c *gin.Context) {
	var q dto.TimeRangeQuery
	if !bindQuery(c, &q) {
		return
	}
	householdID, ok := MustGetHouseholdID(c)
	if !ok {
		return
	}

	events, err := h.calendarSvc.ListByRange(c.Request.Context(), householdID, q.Start, q.End)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": events})
}

// GetEvent 获取事件详情
// GET /api/v1/events/:id
func (h *CalendarHandler) GetEvent(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	householdID, ok := MustGetHouseholdID(c)
	if !ok {
		return
	}

	event, err := h.calendarSvc.GetByID(c.Request.Context(), householdID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, event)
}

// GetSeries 获取事件所在的重复系列
// GET /api/v1/events/:id/series
func (h *CalendarHandler) GetSeries(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	householdID, ok := MustGetHouseholdID(c)
	if !ok {
		return
	}

	series, err := h.calendarSvc.GetSeries(c.Request.Context(), householdID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, series)
}

// CreateEvent 创建事件；携带 recurrence_rule 时创建重复系列
// POST /api/v1/events
func (h *CalendarHandler) CreateEvent(c *gin.Context) {
	var req dto.CreateEventRequest
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

	if req.RecurrenceRule != nil {
		events, err := h.calendarSvc.CreateRecurringSeries(c.Request.Context(), householdID, callerID, &req)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		response.Created(c, gin.H{"list": events})
		return
	}

	event, err := h.calendarSvc.Create(c.Request.Context(), householdID, callerID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, event)
}

// UpdateEvent 更新事件；未携带 scope 时只修改该条记录，否则按系列范围修改
// PUT /api/v1/events/:id?scope=this|future|all
func (h *CalendarHandler) UpdateEvent(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var q dto.SeriesScopeQuery
	if !bindQuery(c, &q) {
		return
	}
	var req dto.UpdateEventRequest
	if !bindJSON(c, &req) {
		return
	}
	householdID, ok := MustGetHouseholdID(c)
	if !ok {
		return
	}

	if _, present := c.GetQuery("scope"); !present {
		event, err := h.calendarSvc.Update(c.Request.Context(), householdID, id, &req)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		response.OK(c, event)
		return
	}

	events, err := h.calendarSvc.UpdateSeriesEvent(c.Request.Context(), householdID, id, &req, q.Scope)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": events})
}

// DeleteEvent 删除事件；未携带 scope 时只删除该条记录（幂等），否则按系列范围删除
// DELETE /api/v1/events/:id?scope=this|future|all
func (h *CalendarHandler) DeleteEvent(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var q dto.SeriesScopeQuery
	if !bindQuery(c, &q) {
		return
	}
	householdID, ok := MustGetHouseholdID(c)
	if !ok {
		return
	}

	if _, present := c.GetQuery("scope"); !present {
		if err := h.calendarSvc.Delete(c.Request.Context(), householdID, id); err != nil {
			handleServiceError(c, err)
			return
		}
		response.OK(c, dto.DeleteSeriesResponse{DeletedIDs: []int64{id}})
		return
	}

	ids, err := h.calendarSvc.DeleteSeriesEvent(c.Request.Context(), householdID, id, q.Scope)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, dto.DeleteSeriesResponse{DeletedIDs: ids})
}

// AssignResponsible 指派或取消负责人
// PUT /api/v1/events/:id/responsible
func (h *CalendarHandler) AssignResponsible(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req dto.AssignResponsibleRequest
	if !bindJSON(c, &req) {
		return
	}
	householdID, ok := MustGetHouseholdID(c)
	if !ok {
		return
	}

	event, err := h.calendarSvc.AssignResponsible(c.Request.Context(), householdID, id, req.MemberID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, event)
}
