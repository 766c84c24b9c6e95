package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homesync/config"
	"homesync/internal/api/handler"
	"homesync/internal/model"
	"homesync/internal/repository"
	"homesync/internal/service"
	"homesync/internal/testutil"
	"homesync/pkg/jwt"
)

type apiEnv struct {
	engine    *gin.Engine
	jwt       *jwt.Manager
	household *model.Household
	members   []model.HouseholdMember
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	db := testutil.NewDB(t)
	h, members := testutil.SeedHousehold(t, db, "妈妈", "爸爸")

	cfg := &config.Config{
		Auth: config.AuthConfig{JWTSecret: "router-test-secret-0123456789", AccessTokenTTL: time.Hour},
		Calendar: config.CalendarConfig{
			Timezone:          "UTC",
			ICSProductID:      "-//homesync//test//ZH",
			ConflictRateLimit: 10,
		},
	}
	logger := zap.NewNop()
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, logger)
	jwtMgr := jwt.NewManager(&cfg.Auth)

	return &apiEnv{
		engine:    Setup(cfg, handler.NewHandler(svc, nil, logger), jwtMgr, nil, db, logger),
		jwt:       jwtMgr,
		household: h,
		members:   members,
	}
}

func (e *apiEnv) do(t *testing.T, method, path, role string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		token, err := e.jwt.GenerateAccessToken(e.members[0].ID, e.household.ID, role)
		if err != nil {
			t.Fatalf("签发 Token 失败: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

type listBody struct {
	Code int `json:"code"`
	Data struct {
		List []struct {
			ID                 int64  `json:"id"`
			StartTime          int64  `json:"start_time"`
			RecurrenceParentID *int64 `json:"recurrence_parent_id"`
		} `json:"list"`
		DeletedIDs []int64 `json:"deleted_ids"`
	} `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) listBody {
	t.Helper()
	var body listBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("解析响应失败: %v: %s", err, w.Body.String())
	}
	return body
}

func TestRouter_Health(t *testing.T) {
	env := newAPIEnv(t)
	if w := env.do(t, "GET", "/health", "", nil); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestRouter_RequiresToken(t *testing.T) {
	env := newAPIEnv(t)
	if w := env.do(t, "GET", "/api/v1/events/range?start=1&end=2", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestRouter_ViewerIsReadOnly(t *testing.T) {
	env := newAPIEnv(t)
	start := time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC).Unix()
	payload := map[string]interface{}{"title": "家长会", "start_time": start, "end_time": start + 3600}

	if w := env.do(t, "POST", "/api/v1/events", "viewer", payload); w.Code != http.StatusForbidden {
		t.Errorf("viewer 创建事件应返回 403，实际 %d", w.Code)
	}
	if w := env.do(t, "GET", fmt.Sprintf("/api/v1/events?view=week&anchor=%d", start), "viewer", nil); w.Code != http.StatusOK {
		t.Errorf("viewer 应可以查看，实际 %d", w.Code)
	}
}

func TestRouter_SeriesLifecycle(t *testing.T) {
	env := newAPIEnv(t)
	start := time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC).Unix()

	w := env.do(t, "POST", "/api/v1/events", "member", map[string]interface{}{
		"title":           "游泳课",
		"start_time":      start,
		"end_time":        start + 3600,
		"recurrence_rule": "weekly",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("创建系列失败: %d %s", w.Code, w.Body.String())
	}
	created := decode(t, w).Data.List
	if len(created) != service.SeriesOccurrences {
		t.Fatalf("期望 %d 个实例，实际 %d", service.SeriesOccurrences, len(created))
	}

	// 非法 scope 不修改任何数据
	w = env.do(t, "DELETE", fmt.Sprintf("/api/v1/events/%d?scope=weekly", created[3].ID), "member", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("非法 scope 应返回 400，实际 %d", w.Code)
	}

	// future 删除第 4 个及之后
	w = env.do(t, "DELETE", fmt.Sprintf("/api/v1/events/%d?scope=future", created[3].ID), "member", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("future 删除失败: %d %s", w.Code, w.Body.String())
	}
	if n := len(decode(t, w).Data.DeletedIDs); n != service.SeriesOccurrences-3 {
		t.Errorf("期望删除 %d 个，实际 %d", service.SeriesOccurrences-3, n)
	}

	w = env.do(t, "GET", fmt.Sprintf("/api/v1/events/range?start=%d&end=%d", start, start+52*7*86400), "member", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("查询失败: %d", w.Code)
	}
	if n := len(decode(t, w).Data.List); n != 3 {
		t.Errorf("期望剩余 3 个实例，实际 %d", n)
	}
}

func TestRouter_ConflictCheck(t *testing.T) {
	env := newAPIEnv(t)
	start := time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC).Unix()

	env.do(t, "POST", "/api/v1/events", "member", map[string]interface{}{
		"title": "家长会", "start_time": start, "end_time": start + 3600,
	})

	w := env.do(t, "POST", "/api/v1/conflicts/check", "member", map[string]interface{}{
		"start_time": start + 1800, "end_time": start + 5400,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("冲突检测失败: %d %s", w.Code, w.Body.String())
	}
	var body struct {
		Data struct {
			OverlappingEvents   []json.RawMessage `json:"overlapping_events"`
			NoResponsiblePerson bool              `json:"no_responsible_person"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if len(body.Data.OverlappingEvents) != 1 || !body.Data.NoResponsiblePerson {
		t.Errorf("冲突报告错误: %s", w.Body.String())
	}
}
