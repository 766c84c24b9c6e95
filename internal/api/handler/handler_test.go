package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"homesync/internal/api/middleware"
	"homesync/internal/dto"
	"homesync/internal/service"
	pkgerrors "homesync/pkg/errors"
	"homesync/pkg/jwt"
	"homesync/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock CalendarService ──

type mockCalendarService struct {
	calls []string
	scope string

	event    *dto.EventResponse
	events   []dto.EventResponse
	series   *dto.SeriesResponse
	deleted  []int64
	err      error
	lastReq  *dto.CreateEventRequest
	lastView string
}

func (m *mockCalendarService) record(name string) { m.calls = append(m.calls, name) }

func (m *mockCalendarService) Create(_ context.Context, _, _ int64, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	m.record("Create")
	m.lastReq = req
	return m.event, m.err
}
func (m *mockCalendarService) CreateRecurringSeries(_ context.Context, _, _ int64, req *dto.CreateEventRequest) ([]dto.EventResponse, error) {
	m.record("CreateRecurringSeries")
	m.lastReq = req
	return m.events, m.err
}
func (m *mockCalendarService) GetByID(_ context.Context, _, _ int64) (*dto.EventResponse, error) {
	m.record("GetByID")
	return m.event, m.err
}
func (m *mockCalendarService) Update(_ context.Context, _, _ int64, _ *dto.UpdateEventRequest) (*dto.EventResponse, error) {
	m.record("Update")
	return m.event, m.err
}
func (m *mockCalendarService) Delete(_ context.Context, _, _ int64) error {
	m.record("Delete")
	return m.err
}
func (m *mockCalendarService) ListByView(_ context.Context, _ int64, view string, _ int64) ([]dto.EventResponse, error) {
	m.record("ListByView")
	m.lastView = view
	return m.events, m.err
}
func (m *mockCalendarService) ListByRange(_ context.Context, _, _, _ int64) ([]dto.EventResponse, error) {
	m.record("ListByRange")
	return m.events, m.err
}
func (m *mockCalendarService) GetSeries(_ context.Context, _, _ int64) (*dto.SeriesResponse, error) {
	m.record("GetSeries")
	return m.series, m.err
}
func (m *mockCalendarService) UpdateSeriesEvent(_ context.Context, _, _ int64, _ *dto.UpdateEventRequest, scope string) ([]dto.EventResponse, error) {
	m.record("UpdateSeriesEvent")
	m.scope = scope
	return m.events, m.err
}
func (m *mockCalendarService) DeleteSeriesEvent(_ context.Context, _, _ int64, scope string) ([]int64, error) {
	m.record("DeleteSeriesEvent")
	m.scope = scope
	return m.deleted, m.err
}
func (m *mockCalendarService) AssignResponsible(_ context.Context, _, _ int64, _ *int64) (*dto.EventResponse, error) {
	m.record("AssignResponsible")
	return m.event, m.err
}

// ── Mock ConflictService ──

type mockConflictService struct {
	report    *dto.ConflictReport
	available bool
	err       error
}

func (m *mockConflictService) DetectConflicts(_ context.Context, _ int64, _ *dto.CheckConflictRequest) (*dto.ConflictReport, error) {
	return m.report, m.err
}
func (m *mockConflictService) IsUserAvailable(_ context.Context, _, _, _, _ int64) (bool, error) {
	return m.available, m.err
}

// ── Mock AvailabilityService ──

type mockAvailabilityService struct {
	block   *dto.AvailabilityResponse
	blocks  []dto.AvailabilityResponse
	grouped map[int64]*dto.MemberAvailability
	err     error
	callers []int64

	importResult *dto.ImportICSResponse
	imported     string
}

func (m *mockAvailabilityService) Create(_ context.Context, _, callerID int64, _ *dto.CreateAvailabilityRequest) (*dto.AvailabilityResponse, error) {
	m.callers = append(m.callers, callerID)
	return m.block, m.err
}
func (m *mockAvailabilityService) GetByID(_ context.Context, _, _ int64) (*dto.AvailabilityResponse, error) {
	return m.block, m.err
}
func (m *mockAvailabilityService) Update(_ context.Context, _, _ int64, _ *dto.UpdateAvailabilityRequest) (*dto.AvailabilityResponse, error) {
	return m.block, m.err
}
func (m *mockAvailabilityService) Delete(_ context.Context, _, _ int64) error {
	return m.err
}
func (m *mockAvailabilityService) ListForMember(_ context.Context, _, _, _, _ int64) ([]dto.AvailabilityResponse, error) {
	return m.blocks, m.err
}
func (m *mockAvailabilityService) ListForHousehold(_ context.Context, _, _, _ int64) (map[int64]*dto.MemberAvailability, error) {
	return m.grouped, m.err
}
func (m *mockAvailabilityService) ImportICS(_ context.Context, _, callerID int64, _ *dto.ImportICSRequest, content io.Reader) (*dto.ImportICSResponse, error) {
	m.callers = append(m.callers, callerID)
	raw, _ := io.ReadAll(content)
	m.imported = string(raw)
	return m.importResult, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	ics      string
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportICS(_ context.Context, _, _, _ int64) (string, error) {
	return m.ics, m.err
}
func (m *mockExportService) ExportMonthXLSX(_ context.Context, _, _ int64) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Helpers
// ═══════════════════════════════════════════════════════════

const (
	testMemberID    int64 = 11
	testHouseholdID int64 = 3
)

func setAuth(c *gin.Context) {
	c.Set(middleware.CtxMemberID, testMemberID)
	c.Set(middleware.CtxHouseholdID, testHouseholdID)
	c.Set(middleware.CtxRole, "member")
	c.Set(middleware.CtxClaims, &jwt.Claims{
		MemberID:    testMemberID,
		HouseholdID: testHouseholdID,
		Role:        "member",
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        "test-jti",
			ExpiresAt: jwtv5.NewNumericDate(time.Now().Add(15 * time.Minute)),
		},
	})
}

// serve 注册单个路由并发起请求，auth=true 时模拟 JWT 中间件注入身份
func serve(method, route, target string, body io.Reader, auth bool, h gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, route, func(c *gin.Context) {
		if auth {
			setAuth(c)
		}
		h(c)
	})

	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func equalCalls(got []string, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// ═══════════════════════════════════════════════════════════
// CalendarHandler Tests
// ═══════════════════════════════════════════════════════════

func TestCalendarHandler_CreateEvent_Single(t *testing.T) {
	mock := &mockCalendarService{event: &dto.EventResponse{ID: 1, Title: "家长会"}}
	h := NewCalendarHandler(mock)

	w := serve("POST", "/events", "/events", jsonBody(dto.CreateEventRequest{
		Title: "家长会", StartTime: 1000, EndTime: 2000,
	}), true, h.CreateEvent)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if !equalCalls(mock.calls, "Create") {
		t.Errorf("expected Create, got %v", mock.calls)
	}
}

func TestCalendarHandler_CreateEvent_Recurring(t *testing.T) {
	mock := &mockCalendarService{events: []dto.EventResponse{{ID: 1}, {ID: 2}}}
	h := NewCalendarHandler(mock)
	rule := "weekly"

	w := serve("POST", "/events", "/events", jsonBody(dto.CreateEventRequest{
		Title: "游泳课", StartTime: 1000, EndTime: 2000, RecurrenceRule: &rule,
	}), true, h.CreateEvent)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if !equalCalls(mock.calls, "CreateRecurringSeries") {
		t.Errorf("expected CreateRecurringSeries, got %v", mock.calls)
	}
}

func TestCalendarHandler_CreateEvent_BadJSON(t *testing.T) {
	mock := &mockCalendarService{}
	h := NewCalendarHandler(mock)

	w := serve("POST", "/events", "/events", strings.NewReader("invalid json"), true, h.CreateEvent)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 10001 || resp.Details == "" {
		t.Errorf("expected code 10001 with details, got %+v", resp)
	}
	if len(mock.calls) != 0 {
		t.Error("service should not be called")
	}
}

func TestCalendarHandler_CreateEvent_Unauthenticated(t *testing.T) {
	h := NewCalendarHandler(&mockCalendarService{})

	w := serve("POST", "/events", "/events", jsonBody(dto.CreateEventRequest{
		Title: "x", StartTime: 1000, EndTime: 2000,
	}), false, h.CreateEvent)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestCalendarHandler_ListEvents(t *testing.T) {
	mock := &mockCalendarService{events: []dto.EventResponse{{ID: 1}}}
	h := NewCalendarHandler(mock)

	w := serve("GET", "/events", "/events?view=week&anchor=1709546400", nil, true, h.ListEvents)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastView != "week" {
		t.Errorf("expected view=week, got %s", mock.lastView)
	}

	w = serve("GET", "/events", "/events?view=year&anchor=1709546400", nil, true, h.ListEvents)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown view should be rejected by binding, got %d", w.Code)
	}
}

func TestCalendarHandler_UpdateEvent_ScopeDispatch(t *testing.T) {
	title := "改名"

	plain := &mockCalendarService{event: &dto.EventResponse{ID: 5}}
	w := serve("PUT", "/events/:id", "/events/5", jsonBody(dto.UpdateEventRequest{Title: &title}), true, NewCalendarHandler(plain).UpdateEvent)
	if w.Code != http.StatusOK || !equalCalls(plain.calls, "Update") {
		t.Errorf("without scope should call Update, got %d %v", w.Code, plain.calls)
	}

	series := &mockCalendarService{events: []dto.EventResponse{{ID: 5}, {ID: 6}}}
	w = serve("PUT", "/events/:id", "/events/5?scope=future", jsonBody(dto.UpdateEventRequest{Title: &title}), true, NewCalendarHandler(series).UpdateEvent)
	if w.Code != http.StatusOK || !equalCalls(series.calls, "UpdateSeriesEvent") {
		t.Errorf("with scope should call UpdateSeriesEvent, got %d %v", w.Code, series.calls)
	}
	if series.scope != "future" {
		t.Errorf("expected scope=future, got %s", series.scope)
	}
}

func TestCalendarHandler_DeleteEvent_InvalidScope(t *testing.T) {
	mock := &mockCalendarService{err: pkgerrors.NewFieldError("scope", service.ErrInvalidScope)}
	h := NewCalendarHandler(mock)

	w := serve("DELETE", "/events/:id", "/events/5?scope=weekly", nil, true, h.DeleteEvent)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 21005 || resp.Field != "scope" {
		t.Errorf("expected code 21005 field scope, got %+v", resp)
	}
	if mock.scope != "weekly" {
		t.Errorf("scope should be passed through, got %s", mock.scope)
	}
}

func TestCalendarHandler_DeleteEvent_Plain(t *testing.T) {
	mock := &mockCalendarService{}
	h := NewCalendarHandler(mock)

	w := serve("DELETE", "/events/:id", "/events/5", nil, true, h.DeleteEvent)

	if w.Code != http.StatusOK || !equalCalls(mock.calls, "Delete") {
		t.Errorf("expected Delete with 200, got %d %v", w.Code, mock.calls)
	}
}

func TestCalendarHandler_GetEvent_BadID(t *testing.T) {
	mock := &mockCalendarService{}
	h := NewCalendarHandler(mock)

	w := serve("GET", "/events/:id", "/events/abc", nil, true, h.GetEvent)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if len(mock.calls) != 0 {
		t.Error("service should not be called")
	}
}

func TestCalendarHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"NotFound", service.ErrEventNotFound, 404, 21001},
		{"TitleRequired", pkgerrors.NewFieldError("title", service.ErrTitleRequired), 400, 21002},
		{"InvalidRange", pkgerrors.NewFieldError("end_time", service.ErrInvalidRange), 400, 21003},
		{"InvalidRecurrence", service.ErrInvalidRecurrence, 400, 21004},
		{"HouseholdNotFound", service.ErrHouseholdNotFound, 404, 21007},
		{"NotMember", service.ErrMemberNotInHousehold, 400, 21008},
		{"Unavailable", service.ErrMemberUnavailable, 409, 21009},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCalendarHandler(&mockCalendarService{err: tt.err})

			w := serve("GET", "/events/:id", "/events/1", nil, true, h.GetEvent)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// Availability / Conflict Tests
// ═══════════════════════════════════════════════════════════

func TestAvailabilityHandler_CreateBlock_UsesCaller(t *testing.T) {
	mock := &mockAvailabilityService{block: &dto.AvailabilityResponse{ID: 1, MemberID: testMemberID}}
	h := NewAvailabilityHandler(mock, &mockConflictService{})

	w := serve("POST", "/availability", "/availability", jsonBody(dto.CreateAvailabilityRequest{
		StartTime: 1000, EndTime: 2000,
	}), true, h.CreateBlock)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if len(mock.callers) != 1 || mock.callers[0] != testMemberID {
		t.Errorf("caller should come from token, got %v", mock.callers)
	}
}

func TestAvailabilityHandler_CheckMember(t *testing.T) {
	h := NewAvailabilityHandler(&mockAvailabilityService{}, &mockConflictService{available: false})

	w := serve("GET", "/availability/check", "/availability/check?member_id=2&start=1000&end=2000", nil, true, h.CheckMember)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Data dto.AvailabilityCheckResponse `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.MemberID != 2 || body.Data.Available {
		t.Errorf("unexpected check result: %+v", body.Data)
	}
}

func TestAvailabilityHandler_NotFound(t *testing.T) {
	h := NewAvailabilityHandler(&mockAvailabilityService{err: service.ErrAvailabilityNotFound}, &mockConflictService{})

	w := serve("GET", "/availability/:id", "/availability/9", nil, true, h.GetBlock)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 22001 {
		t.Errorf("expected code 22001, got %d", resp.Code)
	}
}

func TestAvailabilityHandler_ImportICS(t *testing.T) {
	mock := &mockAvailabilityService{importResult: &dto.ImportICSResponse{MemberID: testMemberID, Imported: 2}}
	h := NewAvailabilityHandler(mock, &mockConflictService{})
	body := "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"

	w := serve("POST", "/availability/import", "/availability/import?start=1000&end=2000", strings.NewReader(body), true, h.ImportICS)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if mock.imported != body {
		t.Errorf("handler should pass the raw body through, got %q", mock.imported)
	}
	if len(mock.callers) != 1 || mock.callers[0] != testMemberID {
		t.Errorf("caller should come from token, got %v", mock.callers)
	}
}

func TestAvailabilityHandler_ImportICS_BadInput(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		body     string
		svcErr   error
		wantHTTP int
		wantCode int
	}{
		{"missing window", "/availability/import", "BEGIN:VCALENDAR", nil, http.StatusBadRequest, 10001},
		{"empty body", "/availability/import?start=1&end=2", "  ", nil, http.StatusBadRequest, 10001},
		{"unparsable", "/availability/import?start=1&end=2", "garbage", service.ErrICSParse, http.StatusBadRequest, 22003},
		{"too many", "/availability/import?start=1&end=2", "BEGIN:VCALENDAR", service.ErrICSTooManyBlocks, http.StatusBadRequest, 22004},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAvailabilityHandler(&mockAvailabilityService{err: tt.svcErr}, &mockConflictService{})
			w := serve("POST", "/availability/import", tt.target, strings.NewReader(tt.body), true, h.ImportICS)
			if w.Code != tt.wantHTTP {
				t.Fatalf("expected %d, got %d", tt.wantHTTP, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestConflictHandler_CheckConflicts(t *testing.T) {
	mock := &mockConflictService{report: &dto.ConflictReport{
		OverlappingEvents:   []dto.EventResponse{{ID: 1}},
		UnavailableMembers:  []dto.UnavailableMember{},
		NoResponsiblePerson: true,
	}}
	h := NewConflictHandler(mock)

	w := serve("POST", "/conflicts/check", "/conflicts/check", jsonBody(dto.CheckConflictRequest{
		StartTime: 1000, EndTime: 2000,
	}), true, h.CheckConflicts)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Data dto.ConflictReport `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if !body.Data.NoResponsiblePerson || len(body.Data.OverlappingEvents) != 1 {
		t.Errorf("unexpected report: %+v", body.Data)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportICS(t *testing.T) {
	mock := &mockExportService{ics: "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"}
	h := NewExportHandler(mock)

	w := serve("GET", "/export/ics", "/export/ics?start=1709510400&end=1710115200", nil, true, h.ExportICS)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("unexpected content type: %s", ct)
	}
	if !strings.Contains(w.Body.String(), "BEGIN:VCALENDAR") {
		t.Error("expected calendar body")
	}
}

func TestExportHandler_ExportMonth(t *testing.T) {
	mock := &mockExportService{buf: bytes.NewBufferString("excel content"), filename: "家庭日程_2024-03.xlsx"}
	h := NewExportHandler(mock)

	w := serve("GET", "/export/month.xlsx", "/export/month.xlsx?anchor=1709546400", nil, true, h.ExportMonth)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd == "" {
		t.Error("expected Content-Disposition header")
	}
}

func TestExportHandler_MissingAnchor(t *testing.T) {
	h := NewExportHandler(&mockExportService{})

	w := serve("GET", "/export/month.xlsx", "/export/month.xlsx", nil, true, h.ExportMonth)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Me(t *testing.T) {
	h := NewAuthHandler(nil, zap.NewNop())

	w := serve("GET", "/auth/me", "/auth/me", nil, true, h.Me)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Data dto.SessionResponse `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.MemberID != testMemberID || body.Data.HouseholdID != testHouseholdID || body.Data.Role != "member" {
		t.Errorf("unexpected identity: %+v", body.Data)
	}
	if body.Data.ExpiresAt == "" {
		t.Error("expires_at should be set from token")
	}
}

func TestAuthHandler_Logout_WithoutRedis(t *testing.T) {
	h := NewAuthHandler(nil, zap.NewNop())

	w := serve("POST", "/auth/logout", "/auth/logout", nil, true, h.Logout)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
