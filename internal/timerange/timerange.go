package timerange

import "time"

// ── 时间区间工具 ──────────────────────────────────────────────
//
// 所有时间戳均为 Unix 秒（UTC），区间一律按半开区间 [start, end) 处理：
// 首尾相接的两个区间不视为重叠。
// ─────────────────────────────────────────────────────────────

const (
	// SecondsPerDay 一天的秒数
	SecondsPerDay int64 = 86400
	// SecondsPerWeek 一周的秒数
	SecondsPerWeek int64 = 7 * SecondsPerDay
)

// Range 半开时间区间 [Start, End)
type Range struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Valid 区间是否满足 Start < End
func (r Range) Valid() bool { return r.Start < r.End }

// Duration 区间长度（秒）
func (r Range) Duration() int64 { return r.End - r.Start }

// Overlaps 判断与另一区间是否重叠
func (r Range) Overlaps(o Range) bool { return Overlaps(r.Start, r.End, o.Start, o.End) }

// Overlaps 半开区间相交判断：aStart < bEnd && aEnd > bStart
func Overlaps(aStart, aEnd, bStart, bEnd int64) bool {
	return aStart < bEnd && aEnd > bStart
}

// Day 返回 anchor 所在 UTC 自然日的区间
func Day(anchor int64) Range {
	t := time.Unix(anchor, 0).UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Range{Start: start.Unix(), End: start.AddDate(0, 0, 1).Unix()}
}

// Week 返回 anchor 所在 UTC 自然周的区间，周一 00:00 为起点
func Week(anchor int64) Range {
	t := time.Unix(anchor, 0).UTC()
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 … Sunday=6
	start := time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC)
	return Range{Start: start.Unix(), End: start.AddDate(0, 0, 7).Unix()}
}

// Month 返回 anchor 所在 UTC 自然月的区间。
// 按年/月推算下月一号，而不是加固定秒数，因此与月份天数无关。
func Month(anchor int64) Range {
	t := time.Unix(anchor, 0).UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Range{Start: start.Unix(), End: start.AddDate(0, 1, 0).Unix()}
}

// View 视图粒度
type View string

const (
	ViewDay   View = "day"
	ViewWeek  View = "week"
	ViewMonth View = "month"
)

// ForView 按视图粒度计算区间，未知粒度返回 false
func ForView(view View, anchor int64) (Range, bool) {
	switch view {
	case ViewDay:
		return Day(anchor), true
	case ViewWeek:
		return Week(anchor), true
	case ViewMonth:
		return Month(anchor), true
	default:
		return Range{}, false
	}
}
