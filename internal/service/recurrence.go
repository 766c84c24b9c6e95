package service

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"homesync/internal/model"
	pkgerrors "homesync/pkg/errors"
)

// SeriesOccurrences 重复系列的固定实例数（含系列头）
const SeriesOccurrences = 12

// parseRecurrenceRule 仅接受 weekly
func parseRecurrenceRule(rule *string) (string, error) {
	if rule == nil || *rule != model.RecurrenceWeekly {
		return "", pkgerrors.NewFieldError("recurrence_rule", ErrInvalidRecurrence)
	}
	return model.RecurrenceWeekly, nil
}

// expandWeekly 以已落库的系列头为模板生成其余 count-1 个子实例。
// 第 i 个实例开始于 head.start + i*7*86400，时长与系列头一致，
// recurrence_parent_id 指向系列头，其余字段原样复制。
func expandWeekly(head *model.CalendarEvent, count int) ([]model.CalendarEvent, error) {
	if count <= 1 {
		return nil, nil
	}

	// UTC 下按周展开不受夏令时影响，相邻实例恰好相差 7*86400 秒
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.WEEKLY,
		Count:   count,
		Dtstart: time.Unix(head.StartTime, 0).UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("构建重复规则失败: %w", err)
	}

	starts := rule.All()
	if len(starts) != count {
		return nil, fmt.Errorf("重复规则展开数量异常: 期望 %d，实际 %d", count, len(starts))
	}

	duration := head.EndTime - head.StartTime
	children := make([]model.CalendarEvent, 0, count-1)
	for _, start := range starts[1:] {
		children = append(children, model.CalendarEvent{
			HouseholdID:         head.HouseholdID,
			Title:               head.Title,
			Location:            cloneString(head.Location),
			Description:         cloneString(head.Description),
			StartTime:           start.Unix(),
			EndTime:             start.Unix() + duration,
			ResponsibleMemberID: cloneInt64(head.ResponsibleMemberID),
			CreatedBy:           head.CreatedBy,
			RecurrenceRule:      cloneString(head.RecurrenceRule),
			RecurrenceParentID:  model.Int64Ptr(head.ID),
		})
	}
	return children, nil
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
