package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"homesync/config"
	"homesync/internal/repository"
	"homesync/internal/timerange"
	pkgerrors "homesync/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - iCalendar 导出按已展开的事件逐条输出，系列子实例通过 RELATED-TO 关联系列头，
//     不再附加 RRULE（实例已物化，附加规则会导致订阅端重复展开）。
//   - Excel 导出按月列出事件，时间按配置的展示时区格式化。
type ExportService interface {
	// ExportICS 导出 [start, end) 内的事件为 iCalendar 文本
	ExportICS(ctx context.Context, householdID, start, end int64) (string, error)
	// ExportMonthXLSX 导出 anchor 所在月份的事件为 Excel
	ExportMonthXLSX(ctx context.Context, householdID, anchor int64) (*bytes.Buffer, string, error)
}

type exportService struct {
	cfg    *config.CalendarConfig
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.CalendarConfig, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{cfg: cfg, repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════
// ExportICS — 导出 iCalendar
// ════════════════════════════════════════════════════════════

func (s *exportService) ExportICS(ctx context.Context, householdID, start, end int64) (string, error) {
	if start >= end {
		return "", pkgerrors.NewFieldError("end", ErrInvalidRange)
	}

	events, err := s.repo.Event.ListByRange(ctx, householdID, start, end)
	if err != nil {
		s.logger.Error("查询导出事件失败", zap.Int64("household_id", householdID), zap.Error(err))
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(s.cfg.ICSProductID)

	for i := range events {
		e := &events[i]
		vevent := cal.AddEvent(eventUID(e.ID))
		vevent.SetDtStampTime(e.UpdatedAt.UTC())
		vevent.SetCreatedTime(e.CreatedAt.UTC())
		vevent.SetModifiedAt(e.UpdatedAt.UTC())
		vevent.SetStartAt(time.Unix(e.StartTime, 0).UTC())
		vevent.SetEndAt(time.Unix(e.EndTime, 0).UTC())
		vevent.SetSummary(e.Title)
		if e.Location != nil {
			vevent.SetLocation(*e.Location)
		}
		if e.Description != nil {
			vevent.SetDescription(*e.Description)
		}
		if e.RecurrenceParentID != nil {
			vevent.AddProperty(ics.ComponentProperty("RELATED-TO"), eventUID(*e.RecurrenceParentID))
		}
	}

	return cal.Serialize(), nil
}

// ════════════════════════════════════════════════════════════
// ExportMonthXLSX — 导出月视图 Excel
// ════════════════════════════════════════════════════════════
//
// 表头: | 日期 | 开始 | 结束 | 标题 | 地点 | 负责人 | 系列 |

func (s *exportService) ExportMonthXLSX(ctx context.Context, householdID, anchor int64) (*bytes.Buffer, string, error) {
	month := timerange.Month(anchor)

	events, err := s.repo.Event.ListByRange(ctx, householdID, month.Start, month.End)
	if err != nil {
		s.logger.Error("查询导出事件失败", zap.Int64("household_id", householdID), zap.Error(err))
		return nil, "", err
	}

	members, err := s.repo.Directory.ListMembers(ctx, householdID)
	if err != nil {
		s.logger.Error("查询家庭成员失败", zap.Int64("household_id", householdID), zap.Error(err))
		return nil, "", err
	}
	names := make(map[int64]string, len(members))
	for _, m := range members {
		names[m.ID] = m.DisplayName
	}

	loc := s.cfg.Location()
	monthLabel := time.Unix(month.Start, 0).UTC().Format("2006-01")

	f := excelize.NewFile()
	defer f.Close()

	sheetName := monthLabel
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		s.logger.Error("初始化工作表失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "C", 8)
	f.SetColWidth(sheetName, "D", "E", 24)
	f.SetColWidth(sheetName, "F", "G", 12)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	headers := []string{"日期", "开始", "结束", "标题", "地点", "负责人", "系列"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(headers)-1), 1), headerStyle)

	row := 2
	for i := range events {
		e := &events[i]
		startAt := time.Unix(e.StartTime, 0).In(loc)
		endAt := time.Unix(e.EndTime, 0).In(loc)

		responsible := "未指派"
		if e.ResponsibleMemberID != nil {
			if name, ok := names[*e.ResponsibleMemberID]; ok {
				responsible = name
			}
		}
		series := "-"
		if e.RecurrenceParentID != nil {
			series = "#" + strconv.FormatInt(*e.RecurrenceParentID, 10)
		} else if e.RecurrenceRule != nil {
			series = "#" + strconv.FormatInt(e.ID, 10)
		}
		location := ""
		if e.Location != nil {
			location = *e.Location
		}

		f.SetCellValue(sheetName, cell("A", row), startAt.Format("2006-01-02"))
		f.SetCellValue(sheetName, cell("B", row), startAt.Format("15:04"))
		f.SetCellValue(sheetName, cell("C", row), endAt.Format("15:04"))
		f.SetCellValue(sheetName, cell("D", row), e.Title)
		f.SetCellValue(sheetName, cell("E", row), location)
		f.SetCellValue(sheetName, cell("F", row), responsible)
		f.SetCellValue(sheetName, cell("G", row), series)
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("家庭日程_%s.xlsx", monthLabel)
	return buf, filename, nil
}

// ── 辅助函数 ──

func eventUID(id int64) string {
	return fmt.Sprintf("event-%d@homesync", id)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
