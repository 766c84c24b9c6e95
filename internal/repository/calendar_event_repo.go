package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"homesync/internal/model"
)

// CalendarEventRepository 日历事件数据访问接口
//
// 所有列表查询都按 start_time 升序返回（同一开始时间再按 id 升序），
// 这是接口契约的一部分，调用方可以依赖该顺序。
type CalendarEventRepository interface {
	Create(ctx context.Context, event *model.CalendarEvent) error
	BatchCreate(ctx context.Context, events []model.CalendarEvent) error
	GetByID(ctx context.Context, id int64) (*model.CalendarEvent, error)
	Update(ctx context.Context, event *model.CalendarEvent) error
	Delete(ctx context.Context, id int64) error
	DeleteByIDs(ctx context.Context, ids []int64) error
	// ListByRange 查询与 [start, end) 相交的事件
	ListByRange(ctx context.Context, householdID, start, end int64) ([]model.CalendarEvent, error)
	// ListOverlapping 同 ListByRange，但可排除指定事件（编辑自身时的冲突检测）
	ListOverlapping(ctx context.Context, householdID, start, end int64, excludeID *int64) ([]model.CalendarEvent, error)
	// ListSeries 查询系列全部成员（系列头 + 子实例）
	ListSeries(ctx context.Context, parentID int64) ([]model.CalendarEvent, error)
	// ListSeriesFrom 查询系列中开始时间 >= from 的成员
	ListSeriesFrom(ctx context.Context, parentID, from int64) ([]model.CalendarEvent, error)
}

type calendarEventRepo struct {
	db *gorm.DB
}

// NewCalendarEventRepo 创建 CalendarEventRepository 实例
func NewCalendarEventRepo(db *gorm.DB) CalendarEventRepository {
	return &calendarEventRepo{db: db}
}

const eventOrder = "start_time ASC, id ASC"

func (r *calendarEventRepo) Create(ctx context.Context, event *model.CalendarEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *calendarEventRepo) BatchCreate(ctx context.Context, events []model.CalendarEvent) error {
	if len(events) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&events).Error
}

func (r *calendarEventRepo) GetByID(ctx context.Context, id int64) (*model.CalendarEvent, error) {
	var event model.CalendarEvent
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// Update 写回全部可变字段；created_by 与 household_id 不可变。
// 记录不存在时返回 gorm.ErrRecordNotFound。
func (r *calendarEventRepo) Update(ctx context.Context, event *model.CalendarEvent) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.CalendarEvent{}).
		Where("id = ?", event.ID).
		Updates(map[string]interface{}{
			"title":                 event.Title,
			"location":              event.Location,
			"description":           event.Description,
			"start_time":            event.StartTime,
			"end_time":              event.EndTime,
			"responsible_member_id": event.ResponsibleMemberID,
			"recurrence_rule":       event.RecurrenceRule,
			"recurrence_parent_id":  event.RecurrenceParentID,
			"updated_at":            now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	event.UpdatedAt = now
	return nil
}

// Delete 硬删除，id 不存在时不报错
func (r *calendarEventRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.CalendarEvent{}).Error
}

func (r *calendarEventRepo) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&model.CalendarEvent{}).Error
}

func (r *calendarEventRepo) ListByRange(ctx context.Context, householdID, start, end int64) ([]model.CalendarEvent, error) {
	return r.ListOverlapping(ctx, householdID, start, end, nil)
}

func (r *calendarEventRepo) ListOverlapping(ctx context.Context, householdID, start, end int64, excludeID *int64) ([]model.CalendarEvent, error) {
	var events []model.CalendarEvent
	q := r.db.WithContext(ctx).
		Where("household_id = ? AND start_time < ? AND end_time > ?", householdID, end, start)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	err := q.Order(eventOrder).Find(&events).Error
	return events, err
}

func (r *calendarEventRepo) ListSeries(ctx context.Context, parentID int64) ([]model.CalendarEvent, error) {
	var events []model.CalendarEvent
	err := r.db.WithContext(ctx).
		Where("id = ? OR recurrence_parent_id = ?", parentID, parentID).
		Order(eventOrder).
		Find(&events).Error
	return events, err
}

func (r *calendarEventRepo) ListSeriesFrom(ctx context.Context, parentID, from int64) ([]model.CalendarEvent, error) {
	var events []model.CalendarEvent
	err := r.db.WithContext(ctx).
		Where("(id = ? OR recurrence_parent_id = ?) AND start_time >= ?", parentID, parentID, from).
		Order(eventOrder).
		Find(&events).Error
	return events, err
}
