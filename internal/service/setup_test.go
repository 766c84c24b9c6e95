package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"homesync/config"
	"homesync/internal/dto"
	"homesync/internal/model"
	"homesync/internal/repository"
	"homesync/internal/testutil"
)

// ── 测试辅助 ──

const hour int64 = 3600

// base 2024-03-04 10:00 UTC（周一）
var base = time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC).Unix()

type testEnv struct {
	db        *gorm.DB
	repo      *repository.Repository
	svc       *Service
	household *model.Household
	members   []model.HouseholdMember
}

func newTestEnv(t *testing.T, names ...string) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	h, members := testutil.SeedHousehold(t, db, names...)
	repo := repository.NewRepository(db)
	cfg := &config.Config{
		Calendar: config.CalendarConfig{
			Timezone:     "UTC",
			ICSProductID: "-//homesync//test//ZH",
		},
	}
	return &testEnv{
		db:        db,
		repo:      repo,
		svc:       NewService(cfg, repo, zap.NewNop()),
		household: h,
		members:   members,
	}
}

func (e *testEnv) hid() int64 { return e.household.ID }

func (e *testEnv) member(i int) int64 { return e.members[i].ID }

func (e *testEnv) countEvents(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(&model.CalendarEvent{}).Count(&n).Error; err != nil {
		t.Fatalf("统计事件失败: %v", err)
	}
	return n
}

func (e *testEnv) loadEvent(t *testing.T, id int64) *model.CalendarEvent {
	t.Helper()
	ev, err := e.repo.Event.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("读取事件 %d 失败: %v", id, err)
	}
	return ev
}

func (e *testEnv) createEvent(t *testing.T, title string, start, end int64, responsible *int64) *dto.EventResponse {
	t.Helper()
	resp, err := e.svc.Calendar.Create(context.Background(), e.hid(), e.member(0), &dto.CreateEventRequest{
		Title:               title,
		StartTime:           start,
		EndTime:             end,
		ResponsibleMemberID: responsible,
	})
	if err != nil {
		t.Fatalf("创建事件失败: %v", err)
	}
	return resp
}

// createWeeklySeries 创建一个从 base 开始、时长 1 小时的每周系列
func (e *testEnv) createWeeklySeries(t *testing.T, title string) []dto.EventResponse {
	t.Helper()
	rule := model.RecurrenceWeekly
	resp, err := e.svc.Calendar.CreateRecurringSeries(context.Background(), e.hid(), e.member(0), &dto.CreateEventRequest{
		Title:          title,
		StartTime:      base,
		EndTime:        base + hour,
		RecurrenceRule: &rule,
	})
	if err != nil {
		t.Fatalf("创建重复系列失败: %v", err)
	}
	return resp
}

func (e *testEnv) createBlock(t *testing.T, memberID, start, end int64) *dto.AvailabilityResponse {
	t.Helper()
	resp, err := e.svc.Availability.Create(context.Background(), e.hid(), memberID, &dto.CreateAvailabilityRequest{
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		t.Fatalf("创建不可用时间失败: %v", err)
	}
	return resp
}
