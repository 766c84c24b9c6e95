package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"homesync/internal/dto"
	"homesync/internal/model"
	"homesync/internal/repository"
	"homesync/internal/timerange"
	pkgerrors "homesync/pkg/errors"
)

// ── 日历模块业务错误 ──

var (
	ErrEventNotFound        = errors.New("事件不存在")
	ErrTitleRequired        = errors.New("标题不能为空")
	ErrInvalidRange         = errors.New("开始时间必须早于结束时间")
	ErrInvalidRecurrence    = errors.New("不支持的重复规则，仅支持 weekly")
	ErrInvalidScope         = errors.New("不支持的操作范围，仅支持 this / future / all")
	ErrInvalidView          = errors.New("不支持的视图，仅支持 day / week / month")
	ErrHouseholdNotFound    = errors.New("家庭不存在")
	ErrMemberNotInHousehold = errors.New("成员不属于该家庭")
	ErrMemberUnavailable    = errors.New("成员在该时段不可用")
)

// ── CalendarService 接口 ──────────────────────────────────
//
// 设计说明：
//   - 重复系列在创建时一次性展开为 SeriesOccurrences 条记录，
//     系列头与子实例在同一事务中写入。
//   - Update / Delete 是单条记录操作，不会级联到系列其他成员；
//     按范围批量操作走 UpdateSeriesEvent / DeleteSeriesEvent，
//     多行修改同样包在一个事务里，任一行校验失败则整体回滚。
//   - 调用方在进入本服务前已完成权限判断。
// ─────────────────────────────────────────────────────────────

// CalendarService 日历事件业务接口
type CalendarService interface {
	Create(ctx context.Context, householdID, callerID int64, req *dto.CreateEventRequest) (*dto.EventResponse, error)
	CreateRecurringSeries(ctx context.Context, householdID, callerID int64, req *dto.CreateEventRequest) ([]dto.EventResponse, error)
	GetByID(ctx context.Context, householdID, id int64) (*dto.EventResponse, error)
	Update(ctx context.Context, householdID, id int64, req *dto.UpdateEventRequest) (*dto.EventResponse, error)
	Delete(ctx context.Context, householdID, id int64) error
	ListByView(ctx context.Context, householdID int64, view string, anchor int64) ([]dto.EventResponse, error)
	ListByRange(ctx context.Context, householdID, start, end int64) ([]dto.EventResponse, error)
	GetSeries(ctx context.Context, householdID, id int64) (*dto.SeriesResponse, error)
	UpdateSeriesEvent(ctx context.Context, householdID, id int64, req *dto.UpdateEventRequest, scope string) ([]dto.EventResponse, error)
	DeleteSeriesEvent(ctx context.Context, householdID, id int64, scope string) ([]int64, error)
	AssignResponsible(ctx context.Context, householdID, id int64, memberID *int64) (*dto.EventResponse, error)
}

type calendarService struct {
	repo     *repository.Repository
	conflict ConflictService
	logger   *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, conflict ConflictService, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, conflict: conflict, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *calendarService) Create(ctx context.Context, householdID, callerID int64, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	event := newEventFromRequest(householdID, callerID, req)
	if err := validateEvent(event); err != nil {
		return nil, err
	}
	if err := s.checkParticipants(ctx, householdID, callerID, req.ResponsibleMemberID); err != nil {
		return nil, err
	}

	if err := s.repo.Event.Create(ctx, event); err != nil {
		s.logger.Error("创建事件失败", zap.Int64("household_id", householdID), zap.Error(err))
		return nil, err
	}

	return toEventResponse(event), nil
}

// ────────────────────── CreateRecurringSeries ──────────────────────
//
// 流程：
//   1. 校验重复规则与字段（任何写入之前）
//   2. 事务：写入系列头 → 以系列头 ID 展开子实例 → 批量写入
//   3. 返回 [系列头, 子实例1, …]，按开始时间升序

func (s *calendarService) CreateRecurringSeries(ctx context.Context, householdID, callerID int64, req *dto.CreateEventRequest) ([]dto.EventResponse, error) {
	rule, err := parseRecurrenceRule(req.RecurrenceRule)
	if err != nil {
		return nil, err
	}

	head := newEventFromRequest(householdID, callerID, req)
	head.RecurrenceRule = &rule
	if err := validateEvent(head); err != nil {
		return nil, err
	}
	if err := s.checkParticipants(ctx, householdID, callerID, req.ResponsibleMemberID); err != nil {
		return nil, err
	}

	var created []model.CalendarEvent
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Event.Create(ctx, head); err != nil {
			return err
		}
		children, err := expandWeekly(head, SeriesOccurrences)
		if err != nil {
			return err
		}
		if err := tx.Event.BatchCreate(ctx, children); err != nil {
			return err
		}
		created = append([]model.CalendarEvent{*head}, children...)
		return nil
	})
	if err != nil {
		s.logger.Error("创建重复系列失败", zap.Int64("household_id", householdID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("重复系列已创建",
		zap.Int64("household_id", householdID),
		zap.Int64("parent_id", head.ID),
		zap.Int("occurrences", len(created)),
	)
	return toEventResponses(created), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *calendarService) GetByID(ctx context.Context, householdID, id int64) (*dto.EventResponse, error) {
	event, err := s.getEvent(ctx, householdID, id)
	if err != nil {
		return nil, err
	}
	return toEventResponse(event), nil
}

// ────────────────────── Update ──────────────────────

func (s *calendarService) Update(ctx context.Context, householdID, id int64, req *dto.UpdateEventRequest) (*dto.EventResponse, error) {
	if err := validatePatch(req); err != nil {
		return nil, err
	}

	event, err := s.getEvent(ctx, householdID, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkResponsible(ctx, householdID, req.ResponsibleMemberID); err != nil {
		return nil, err
	}

	applyEventPatch(event, req)
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	if err := s.repo.Event.Update(ctx, event); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		s.logger.Error("更新事件失败", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	return toEventResponse(event), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 幂等：事件不存在（或不属于该家庭）时视为已删除
func (s *calendarService) Delete(ctx context.Context, householdID, id int64) error {
	event, err := s.repo.Event.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		s.logger.Error("查询事件失败", zap.Int64("id", id), zap.Error(err))
		return err
	}
	if event.HouseholdID != householdID {
		return nil
	}

	if err := s.repo.Event.Delete(ctx, id); err != nil {
		s.logger.Error("删除事件失败", zap.Int64("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── List ──────────────────────

func (s *calendarService) ListByView(ctx context.Context, householdID int64, view string, anchor int64) ([]dto.EventResponse, error) {
	r, ok := timerange.ForView(timerange.View(view), anchor)
	if !ok {
		return nil, pkgerrors.NewFieldError("view", ErrInvalidView)
	}
	return s.ListByRange(ctx, householdID, r.Start, r.End)
}

func (s *calendarService) ListByRange(ctx context.Context, householdID, start, end int64) ([]dto.EventResponse, error) {
	if start >= end {
		return nil, pkgerrors.NewFieldError("end", ErrInvalidRange)
	}

	events, err := s.repo.Event.ListByRange(ctx, householdID, start, end)
	if err != nil {
		s.logger.Error("查询事件列表失败", zap.Int64("household_id", householdID), zap.Error(err))
		return nil, err
	}
	return toEventResponses(events), nil
}

// ────────────────────── GetSeries ──────────────────────

func (s *calendarService) GetSeries(ctx context.Context, householdID, id int64) (*dto.SeriesResponse, error) {
	res, err := resolveSeriesMembers(ctx, s.repo.Event, householdID, id, ScopeAll)
	if err != nil {
		return nil, err
	}
	return &dto.SeriesResponse{
		Kind:     res.Role.Kind(),
		ParentID: res.ParentID,
		Events:   toEventResponses(res.Series),
	}, nil
}

// ────────────────────── UpdateSeriesEvent ──────────────────────
//
// scope=this 时先将目标脱离系列（recurrence_parent_id 置空）再应用修改，
// 保证 this 永远只涉及一行。future/all 对每个选中事件逐一应用同一补丁。

func (s *calendarService) UpdateSeriesEvent(ctx context.Context, householdID, id int64, req *dto.UpdateEventRequest, scope string) ([]dto.EventResponse, error) {
	sc, err := ParseSeriesScope(scope)
	if err != nil {
		return nil, err
	}
	if err := validatePatch(req); err != nil {
		return nil, err
	}
	if err := s.checkResponsible(ctx, householdID, req.ResponsibleMemberID); err != nil {
		return nil, err
	}

	var updated []model.CalendarEvent
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		res, err := resolveSeriesMembers(ctx, tx.Event, householdID, id, sc)
		if err != nil {
			return err
		}
		for i := range res.Members {
			event := &res.Members[i]
			if sc == ScopeThis {
				event.RecurrenceParentID = nil
			}
			applyEventPatch(event, req)
			if err := validateEvent(event); err != nil {
				return err
			}
			if err := tx.Event.Update(ctx, event); err != nil {
				return err
			}
		}
		updated = res.Members
		return nil
	})
	if err != nil {
		return nil, s.seriesError("更新系列事件失败", id, err)
	}

	return toEventResponses(updated), nil
}

// ────────────────────── DeleteSeriesEvent ──────────────────────

func (s *calendarService) DeleteSeriesEvent(ctx context.Context, householdID, id int64, scope string) ([]int64, error) {
	sc, err := ParseSeriesScope(scope)
	if err != nil {
		return nil, err
	}

	var deleted []int64
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		res, err := resolveSeriesMembers(ctx, tx.Event, householdID, id, sc)
		if err != nil {
			return err
		}
		if sc == ScopeThis {
			res.Target.RecurrenceParentID = nil
			if err := tx.Event.Update(ctx, res.Target); err != nil {
				return err
			}
		}
		deleted = res.IDs()
		return tx.Event.DeleteByIDs(ctx, deleted)
	})
	if err != nil {
		return nil, s.seriesError("删除系列事件失败", id, err)
	}

	return deleted, nil
}

// ────────────────────── AssignResponsible ──────────────────────

// AssignResponsible 指派负责人前确认其属于该家庭且在事件时段内可用；memberID 为空则取消指派
func (s *calendarService) AssignResponsible(ctx context.Context, householdID, id int64, memberID *int64) (*dto.EventResponse, error) {
	event, err := s.getEvent(ctx, householdID, id)
	if err != nil {
		return nil, err
	}

	if memberID != nil {
		if err := s.checkResponsible(ctx, householdID, memberID); err != nil {
			return nil, err
		}
		available, err := s.conflict.IsUserAvailable(ctx, *memberID, householdID, event.StartTime, event.EndTime)
		if err != nil {
			return nil, err
		}
		if !available {
			return nil, pkgerrors.NewFieldError("member_id", ErrMemberUnavailable)
		}
	}

	event.ResponsibleMemberID = memberID
	if err := s.repo.Event.Update(ctx, event); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		s.logger.Error("指派负责人失败", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	return toEventResponse(event), nil
}

// ── 内部辅助方法 ──

func (s *calendarService) getEvent(ctx context.Context, householdID, id int64) (*model.CalendarEvent, error) {
	event, err := s.repo.Event.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		s.logger.Error("查询事件失败", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	if event.HouseholdID != householdID {
		return nil, ErrEventNotFound
	}
	return event, nil
}

// checkParticipants 校验家庭存在、创建者与负责人属于该家庭
func (s *calendarService) checkParticipants(ctx context.Context, householdID, creatorID int64, responsibleID *int64) error {
	exists, err := s.repo.Directory.HouseholdExists(ctx, householdID)
	if err != nil {
		s.logger.Error("查询家庭失败", zap.Int64("household_id", householdID), zap.Error(err))
		return err
	}
	if !exists {
		return ErrHouseholdNotFound
	}

	ok, err := s.repo.Directory.IsMember(ctx, householdID, creatorID)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.NewFieldError("created_by", ErrMemberNotInHousehold)
	}

	return s.checkResponsible(ctx, householdID, responsibleID)
}

func (s *calendarService) checkResponsible(ctx context.Context, householdID int64, responsibleID *int64) error {
	if responsibleID == nil {
		return nil
	}
	ok, err := s.repo.Directory.IsMember(ctx, householdID, *responsibleID)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.NewFieldError("responsible_member_id", ErrMemberNotInHousehold)
	}
	return nil
}

// seriesError 业务错误原样返回，基础设施错误记录日志后原样返回
func (s *calendarService) seriesError(msg string, id int64, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrEventNotFound
	}
	if isEventBusinessError(err) {
		return err
	}
	s.logger.Error(msg, zap.Int64("id", id), zap.Error(err))
	return err
}

func isEventBusinessError(err error) bool {
	for _, target := range []error{
		ErrEventNotFound, ErrTitleRequired, ErrInvalidRange, ErrInvalidScope,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func newEventFromRequest(householdID, callerID int64, req *dto.CreateEventRequest) *model.CalendarEvent {
	return &model.CalendarEvent{
		HouseholdID:         householdID,
		Title:               strings.TrimSpace(req.Title),
		Location:            req.Location,
		Description:         req.Description,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		ResponsibleMemberID: req.ResponsibleMemberID,
		CreatedBy:           callerID,
	}
}

// validatePatch 补丁自身可判定的错误，在读取任何记录之前返回
func validatePatch(req *dto.UpdateEventRequest) error {
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return pkgerrors.NewFieldError("title", ErrTitleRequired)
	}
	if req.StartTime != nil && req.EndTime != nil && *req.StartTime >= *req.EndTime {
		return pkgerrors.NewFieldError("end_time", ErrInvalidRange)
	}
	return nil
}

// applyEventPatch 仅覆盖补丁中出现的字段
func applyEventPatch(event *model.CalendarEvent, req *dto.UpdateEventRequest) {
	if req.Title != nil {
		event.Title = strings.TrimSpace(*req.Title)
	}
	if req.Location != nil {
		event.Location = cloneString(req.Location)
	}
	if req.Description != nil {
		event.Description = cloneString(req.Description)
	}
	if req.StartTime != nil {
		event.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		event.EndTime = *req.EndTime
	}
	if req.ClearResponsible {
		event.ResponsibleMemberID = nil
	} else if req.ResponsibleMemberID != nil {
		event.ResponsibleMemberID = cloneInt64(req.ResponsibleMemberID)
	}
}

// validateEvent 写入前的最终校验
func validateEvent(event *model.CalendarEvent) error {
	if event.Title == "" {
		return pkgerrors.NewFieldError("title", ErrTitleRequired)
	}
	if event.StartTime >= event.EndTime {
		return pkgerrors.NewFieldError("end_time", ErrInvalidRange)
	}
	return nil
}

func toEventResponse(e *model.CalendarEvent) *dto.EventResponse {
	return &dto.EventResponse{
		ID:                  e.ID,
		HouseholdID:         e.HouseholdID,
		Title:               e.Title,
		Location:            e.Location,
		Description:         e.Description,
		StartTime:           e.StartTime,
		EndTime:             e.EndTime,
		ResponsibleMemberID: e.ResponsibleMemberID,
		CreatedBy:           e.CreatedBy,
		RecurrenceRule:      e.RecurrenceRule,
		RecurrenceParentID:  e.RecurrenceParentID,
		CreatedAt:           e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt:           e.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func toEventResponses(events []model.CalendarEvent) []dto.EventResponse {
	result := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		result = append(result, *toEventResponse(&events[i]))
	}
	return result
}
