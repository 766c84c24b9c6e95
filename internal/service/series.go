package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"homesync/internal/model"
	"homesync/internal/repository"
	pkgerrors "homesync/pkg/errors"
)

// ── 系列操作范围 ──

// SeriesScope 系列修改/删除的作用范围
type SeriesScope string

const (
	ScopeThis   SeriesScope = "this"   // 仅目标事件，先脱离系列
	ScopeFuture SeriesScope = "future" // 系列中开始时间不早于目标的事件
	ScopeAll    SeriesScope = "all"    // 系列全部事件（含系列头）
)

// ParseSeriesScope 解析范围参数，非法值返回 ErrInvalidScope
func ParseSeriesScope(raw string) (SeriesScope, error) {
	switch s := SeriesScope(raw); s {
	case ScopeThis, ScopeFuture, ScopeAll:
		return s, nil
	default:
		return "", pkgerrors.NewFieldError("scope", ErrInvalidScope)
	}
}

// ── 系列角色（解析时构造，不落库） ──

// SeriesRole 事件在系列中的角色：Standalone | SeriesHead | SeriesChild
type SeriesRole interface {
	Kind() string
}

// Standalone 独立事件
type Standalone struct{}

// SeriesHead 系列头，ChildIDs 按开始时间升序
type SeriesHead struct {
	ChildIDs []int64
}

// SeriesChild 系列子实例
type SeriesChild struct {
	ParentID int64
}

func (Standalone) Kind() string  { return "standalone" }
func (SeriesHead) Kind() string  { return "head" }
func (SeriesChild) Kind() string { return "child" }

// classifySeries 根据目标事件与其系列成员确定角色
func classifySeries(target *model.CalendarEvent, series []model.CalendarEvent) SeriesRole {
	if target.RecurrenceParentID != nil {
		return SeriesChild{ParentID: *target.RecurrenceParentID}
	}
	var children []int64
	for _, e := range series {
		if e.ID != target.ID && e.InSeries(target.ID) {
			children = append(children, e.ID)
		}
	}
	if len(children) == 0 {
		return Standalone{}
	}
	return SeriesHead{ChildIDs: children}
}

// seriesResolution 范围解析结果
type seriesResolution struct {
	Target   *model.CalendarEvent
	ParentID int64
	Role     SeriesRole
	Series   []model.CalendarEvent // 系列全部成员
	Members  []model.CalendarEvent // 按 scope 选中的成员，开始时间升序
}

// IDs 选中成员的 ID 列表
func (r *seriesResolution) IDs() []int64 {
	ids := make([]int64, 0, len(r.Members))
	for _, e := range r.Members {
		ids = append(ids, e.ID)
	}
	return ids
}

// resolveSeriesMembers 将 (eventID, scope) 解析为受影响的事件集合。
// 更新与删除共用这一处定义，三种 scope 的语义只在这里出现：
//   - this:   仅目标事件
//   - future: (id = P OR parent = P) AND start_time >= 目标开始时间
//   - all:    id = P OR parent = P
//
// 其中 P 为目标的 recurrence_parent_id，为空时取目标自身 ID。
func resolveSeriesMembers(ctx context.Context, events repository.CalendarEventRepository, householdID, eventID int64, scope SeriesScope) (*seriesResolution, error) {
	target, err := events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if target.HouseholdID != householdID {
		return nil, ErrEventNotFound
	}

	parentID := target.SeriesID()
	series, err := events.ListSeries(ctx, parentID)
	if err != nil {
		return nil, err
	}

	res := &seriesResolution{
		Target:   target,
		ParentID: parentID,
		Role:     classifySeries(target, series),
		Series:   series,
	}

	switch scope {
	case ScopeThis:
		res.Members = []model.CalendarEvent{*target}
	case ScopeFuture:
		res.Members, err = events.ListSeriesFrom(ctx, parentID, target.StartTime)
		if err != nil {
			return nil, err
		}
	case ScopeAll:
		res.Members = series
	default:
		return nil, pkgerrors.NewFieldError("scope", ErrInvalidScope)
	}

	return res, nil
}
