package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"homesync/internal/dto"
	"homesync/internal/model"
	"homesync/internal/repository"
	"homesync/internal/timerange"
	pkgerrors "homesync/pkg/errors"
)

// ── ICS 导入 ──────────────────────────────────────────────
//
// 职责：将成员外部日历（iCalendar, RFC 5545）中的忙碌时段导入为不可用时间块。
//
//   - DTSTART/DTEND（或 DURATION）确定单个时段；全天事件按展示时区整天计
//   - RRULE 借助 rrule-go 展开，EXDATE 剔除；只保留与导入窗口重叠的实例
//   - TRANSP:TRANSPARENT 与 STATUS:CANCELLED 的事件不占用时间，跳过
//   - 同一成员相同 [start, end) 的时段只导入一次
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize  = 5 * 1024 * 1024 // 5MB
	icsFetchTimeout = 30 * time.Second
	// icsMaxBlocks 单次导入生成的时间块上限
	icsMaxBlocks = 500
	// icsMaxWindow 导入窗口最长 366 天
	icsMaxWindow = 366 * timerange.SecondsPerDay
	reasonMaxLen = 200
)

var (
	ErrICSParse         = errors.New("ICS 内容无法解析")
	ErrICSTooManyBlocks = errors.New("ICS 导入的时间块数量超过上限")
	ErrImportWindow     = errors.New("导入窗口不能超过 366 天")
)

// FetchICSContent 从 URL 获取 ICS 内容，webcal:// 按 https:// 处理
func FetchICSContent(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}

	ctx, cancel := context.WithTimeout(ctx, icsFetchTimeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("构建 ICS 请求失败: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("获取 ICS 失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("获取 ICS 失败: HTTP %d", resp.StatusCode)
	}
	// 限制响应体大小，防止超大内容导致 OOM
	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(resp.Body, icsMaxFileSize),
		Closer: closerFunc(func() error {
			defer cancel()
			return resp.Body.Close()
		}),
	}, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// ImportICS 解析 ICS 并在单个事务中批量写入不可用时间块。
// 已存在相同 [start, end) 的时间块会被跳过，因此重复导入同一份日历是幂等的。
func (s *availabilityService) ImportICS(ctx context.Context, householdID, callerID int64, req *dto.ImportICSRequest, content io.Reader) (*dto.ImportICSResponse, error) {
	memberID := callerID
	if req.MemberID != nil {
		memberID = *req.MemberID
	}
	window := timerange.Range{Start: req.Start, End: req.End}
	if !window.Valid() {
		return nil, pkgerrors.NewFieldError("end", ErrInvalidRange)
	}
	if window.Duration() > icsMaxWindow {
		return nil, pkgerrors.NewFieldError("end", ErrImportWindow)
	}

	ok, err := s.repo.Directory.IsMember(ctx, householdID, memberID)
	if err != nil {
		s.logger.Error("查询成员归属失败", zap.Int64("member_id", memberID), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.NewFieldError("member_id", ErrMemberNotInHousehold)
	}
	name, err := s.repo.Directory.DisplayName(ctx, memberID)
	if err != nil {
		s.logger.Error("查询成员显示名失败", zap.Int64("member_id", memberID), zap.Error(err))
		return nil, err
	}

	busy, err := ParseBusyTimes(content, window, s.location)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.Availability.ListByMember(ctx, memberID, householdID, window.Start, window.End)
	if err != nil {
		s.logger.Error("查询成员不可用时间失败", zap.Int64("member_id", memberID), zap.Error(err))
		return nil, err
	}
	seen := make(map[timerange.Range]bool, len(existing))
	for _, b := range existing {
		seen[timerange.Range{Start: b.StartTime, End: b.EndTime}] = true
	}

	result := &dto.ImportICSResponse{MemberID: memberID, DisplayName: name, Blocks: []dto.AvailabilityResponse{}}
	blocks := make([]model.AvailabilityBlock, 0, len(busy))
	for _, bt := range busy {
		if seen[bt.Range] {
			result.Skipped++
			continue
		}
		seen[bt.Range] = true
		blocks = append(blocks, model.AvailabilityBlock{
			MemberID:    memberID,
			HouseholdID: householdID,
			StartTime:   bt.Start,
			EndTime:     bt.End,
			Reason:      bt.reason(),
		})
	}

	if len(blocks) > 0 {
		err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			for i := range blocks {
				if err := tx.Availability.Create(ctx, &blocks[i]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			s.logger.Error("导入不可用时间失败", zap.Int64("member_id", memberID), zap.Error(err))
			return nil, err
		}
	}

	for i := range blocks {
		result.Blocks = append(result.Blocks, *toAvailabilityResponse(&blocks[i]))
	}
	result.Imported = len(blocks)

	s.logger.Info("ICS 导入完成",
		zap.Int64("household_id", householdID),
		zap.Int64("member_id", memberID),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// BusyTime 从 ICS 中解析出的一个忙碌时段
type BusyTime struct {
	timerange.Range
	Summary string
}

func (b BusyTime) reason() *string {
	if b.Summary == "" {
		return nil
	}
	r := b.Summary
	if utf8.RuneCountInString(r) > reasonMaxLen {
		r = string([]rune(r)[:reasonMaxLen])
	}
	return &r
}

// ParseBusyTimes 解析 ICS 内容，返回与 window 重叠的忙碌时段（按开始时间升序、去重）。
// loc 用于解释不带时区的浮动时间与全天事件。
func ParseBusyTimes(reader io.Reader, window timerange.Range, loc *time.Location) ([]BusyTime, error) {
	cal, err := ics.ParseCalendar(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrICSParse, err)
	}
	if loc == nil {
		loc = time.UTC
	}

	var result []BusyTime
	seen := make(map[timerange.Range]bool)
	for _, evt := range cal.Events() {
		if !occupiesTime(evt) {
			continue
		}
		occurrences, err := expandVEvent(evt, window, loc)
		if err != nil {
			// 单个事件无法解析时跳过，不影响其余事件
			continue
		}
		summary := propValue(evt, ics.ComponentPropertySummary)
		for _, r := range occurrences {
			if seen[r] {
				continue
			}
			seen[r] = true
			result = append(result, BusyTime{Range: r, Summary: summary})
			if len(result) > icsMaxBlocks {
				return nil, ErrICSTooManyBlocks
			}
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Start != result[j].Start {
			return result[i].Start < result[j].Start
		}
		return result[i].End < result[j].End
	})
	return result, nil
}

// occupiesTime 透明事件与已取消事件不占用时间
func occupiesTime(evt *ics.VEvent) bool {
	if strings.EqualFold(propValue(evt, ics.ComponentPropertyTransp), "TRANSPARENT") {
		return false
	}
	if strings.EqualFold(propValue(evt, ics.ComponentPropertyStatus), "CANCELLED") {
		return false
	}
	return true
}

// expandVEvent 计算单个 VEVENT 在 window 内的所有实例
func expandVEvent(evt *ics.VEvent, window timerange.Range, loc *time.Location) ([]timerange.Range, error) {
	dtStart, allDay, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return nil, err
	}
	dtEnd, _, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc)
	if err != nil {
		if dur := propValue(evt, ics.ComponentPropertyDuration); dur != "" {
			d, derr := parseICSDuration(dur)
			if derr != nil {
				return nil, derr
			}
			dtEnd = dtStart.Add(d)
		} else if allDay {
			dtEnd = dtStart.AddDate(0, 0, 1)
		} else {
			// 无结束时间的定时事件视为瞬时，不占用时间
			return nil, nil
		}
	}
	duration := dtEnd.Sub(dtStart)
	if duration <= 0 {
		return nil, nil
	}

	rruleValue := propValue(evt, ics.ComponentPropertyRrule)
	if rruleValue == "" {
		r := timerange.Range{Start: dtStart.Unix(), End: dtEnd.Unix()}
		if r.Overlaps(window) {
			return []timerange.Range{r}, nil
		}
		return nil, nil
	}

	opt, err := rrule.StrToROption(strings.TrimPrefix(rruleValue, "RRULE:"))
	if err != nil {
		return nil, err
	}
	opt.Dtstart = dtStart
	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, err
	}
	set := &rrule.Set{}
	set.RRule(rule)
	for _, ex := range exDates(evt, loc) {
		set.ExDate(ex)
	}

	// 开始时间早于窗口但持续到窗口内的实例同样计入
	after := time.Unix(window.Start, 0).Add(-duration)
	before := time.Unix(window.End, 0)
	var result []timerange.Range
	for _, start := range set.Between(after, before, true) {
		r := timerange.Range{Start: start.Unix(), End: start.Add(duration).Unix()}
		if r.Overlaps(window) {
			result = append(result, r)
		}
		if len(result) > icsMaxBlocks {
			return nil, ErrICSTooManyBlocks
		}
	}
	return result, nil
}

// exDates 收集事件中所有 EXDATE（一个属性可含逗号分隔的多个日期）
func exDates(evt *ics.VEvent, loc *time.Location) []time.Time {
	var result []time.Time
	for _, prop := range evt.Properties {
		if prop.IANAToken != string(ics.ComponentPropertyExdate) {
			continue
		}
		zone := tzidLocation(prop.ICalParameters, loc)
		for _, v := range strings.Split(prop.Value, ",") {
			if t, _, err := parseICSValue(strings.TrimSpace(v), zone); err == nil {
				result = append(result, t)
			}
		}
	}
	return result
}

// ── 辅助函数 ──

func propValue(evt *ics.VEvent, name ics.ComponentProperty) string {
	prop := evt.GetProperty(name)
	if prop == nil {
		return ""
	}
	return strings.TrimSpace(prop.Value)
}

// parseICSDateTime 从 VEVENT 中解析日期时间属性，第二个返回值表示是否为全天日期
func parseICSDateTime(evt *ics.VEvent, name ics.ComponentProperty, loc *time.Location) (time.Time, bool, error) {
	prop := evt.GetProperty(name)
	if prop == nil {
		return time.Time{}, false, fmt.Errorf("missing property %s", name)
	}
	return parseICSValue(prop.Value, tzidLocation(prop.ICalParameters, loc))
}

func parseICSValue(val string, loc *time.Location) (time.Time, bool, error) {
	if t, err := time.Parse("20060102T150405Z", val); err == nil {
		return t, false, nil
	}
	if t, err := time.ParseInLocation("20060102T150405", val, loc); err == nil {
		return t, false, nil
	}
	if t, err := time.ParseInLocation("20060102", val, loc); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("无法解析日期: %s", val)
}

// tzidLocation 读取 TZID 参数，无法识别时退回 fallback
func tzidLocation(params map[string][]string, fallback *time.Location) *time.Location {
	for k, v := range params {
		if strings.EqualFold(k, "TZID") && len(v) > 0 {
			if tz, err := time.LoadLocation(strings.Trim(v[0], `"`)); err == nil {
				return tz
			}
		}
	}
	return fallback
}

var icsDurationPattern = regexp.MustCompile(`^([+-])?P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// parseICSDuration 解析 RFC 5545 DURATION，如 PT1H30M、P1D、P2W
func parseICSDuration(v string) (time.Duration, error) {
	m := icsDurationPattern.FindStringSubmatch(strings.ToUpper(v))
	if m == nil || v == "P" || v == "PT" {
		return 0, fmt.Errorf("无法解析时长: %s", v)
	}
	units := []time.Duration{7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, unit := range units {
		if m[i+2] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+2])
		if err != nil {
			return 0, err
		}
		d += time.Duration(n) * unit
	}
	if m[1] == "-" {
		d = -d
	}
	return d, nil
}
