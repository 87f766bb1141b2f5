package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Vitalis058/school-sms-backend-sub002/config"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/dto"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/model"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
	ErrInvalidAnchorDate  = errors.New("起始日期格式必须为 YYYY-MM-DD")
)

const icsProductID = "-//school-sms//timetable//EN"

// ExportService 课表导出业务接口
//
// 设计说明：
//   - Excel：单个 Sheet，行为周一至周五，列为课表实际使用的时间段
//   - iCalendar：每节课一个按周重复的 VEVENT，首次发生于 from 当天或之后的对应星期
//   - 导出内容以字节返回，由 Handler 层设置下载响应头
type ExportService interface {
	ExportXLSX(ctx context.Context, req *dto.LessonListRequest) (*bytes.Buffer, string, error)
	ExportICS(ctx context.Context, req *dto.ExportICSRequest) ([]byte, string, error)
}

type exportService struct {
	repo    *repository.Repository
	loc     *time.Location
	calName string
	now     func() time.Time
	logger  *zap.Logger
}

// NewExportService 创建 ExportService 实例
// 时区无法加载时回退到 UTC
func NewExportService(repo *repository.Repository, cfg *config.ExportConfig, logger *zap.Logger) ExportService {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("加载导出时区失败，使用 UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
		loc = time.UTC
	}
	return &exportService{
		repo:    repo,
		loc:     loc,
		calName: cfg.CalendarName,
		now:     time.Now,
		logger:  logger,
	}
}

// ═══════════════════════════════════════════════════════════
// ExportXLSX — 课表网格导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// | 星期 | 第1节 08:00-08:40 | 第2节 08:40-09:20 | ...
// | 周一 | 数学 · Grade 7 East · Jane Doe | ...
//
// 同一单元格有多节课（全校视图）时以换行分隔

func (s *exportService) ExportXLSX(ctx context.Context, req *dto.LessonListRequest) (*bytes.Buffer, string, error) {
	lessons, err := listLessons(ctx, s.repo, req)
	if err != nil {
		s.logger.Error("查询课时失败", zap.Error(err))
		return nil, "", err
	}

	buf, err := buildWorkbook(Assemble(lessons))
	if err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("timetable_%s.xlsx", s.now().In(s.loc).Format("20060102"))
	return buf, filename, nil
}

func buildWorkbook(tt Timetable) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "课表"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, err
	}
	bodyStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})
	if err != nil {
		return nil, err
	}

	_ = f.SetColWidth(sheet, "A", "A", 8)
	if n := len(tt.Columns); n > 0 {
		_ = f.SetColWidth(sheet, colName(1), colName(n), 28)
	}

	// 表头
	_ = f.SetCellValue(sheet, cell("A", 1), "星期")
	colIndex := make(map[string]int, len(tt.Columns))
	for i := range tt.Columns {
		ts := &tt.Columns[i]
		colIndex[ts.TimeSlotID] = i + 1
		_ = f.SetCellValue(sheet, cell(colName(i+1), 1),
			fmt.Sprintf("%s\n%s-%s", ts.Name, ts.StartTime(), ts.EndTime()))
	}
	_ = f.SetCellStyle(sheet, "A1", cell(colName(len(tt.Columns)), 1), headerStyle)

	// 数据行：每天一行，同一格多节课换行拼接
	for r, row := range tt.Rows {
		rowNum := r + 2
		_ = f.SetCellValue(sheet, cell("A", rowNum), dayLabels[row.Day])

		cells := make(map[int][]string)
		for i := range row.Lessons {
			l := &row.Lessons[i]
			col, ok := colIndex[l.TimeSlotID]
			if !ok {
				continue
			}
			cells[col] = append(cells[col], lessonCellText(l))
		}
		for col, texts := range cells {
			_ = f.SetCellValue(sheet, cell(colName(col), rowNum), strings.Join(texts, "\n"))
		}
		if len(tt.Columns) > 0 {
			_ = f.SetCellStyle(sheet, cell("B", rowNum), cell(colName(len(tt.Columns)), rowNum), bodyStyle)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func lessonCellText(l *model.Lesson) string {
	return fmt.Sprintf("%s · %s · %s", subjectLabel(l.Subject), streamLabel(l.Stream), teacherLabel(l.Teacher))
}

// ═══════════════════════════════════════════════════════════
// ExportICS — 课表导出为 iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportICS(ctx context.Context, req *dto.ExportICSRequest) ([]byte, string, error) {
	anchor, err := s.anchorDate(req.From)
	if err != nil {
		return nil, "", err
	}

	lessons, err := listLessons(ctx, s.repo, &req.LessonListRequest)
	if err != nil {
		s.logger.Error("查询课时失败", zap.Error(err))
		return nil, "", err
	}

	body := buildCalendar(lessons, anchor, s.calName, s.now().UTC())
	filename := fmt.Sprintf("timetable_%s.ics", anchor.Format("20060102"))
	return []byte(body), filename, nil
}

// anchorDate 解析 from；缺省为本周周一（导出时区）
func (s *exportService) anchorDate(from string) (time.Time, error) {
	if from != "" {
		d, err := time.ParseInLocation("2006-01-02", from, s.loc)
		if err != nil {
			return time.Time{}, ErrInvalidAnchorDate
		}
		return d, nil
	}

	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	offset := (int(today.Weekday()) + 6) % 7 // 周一为 0
	return today.AddDate(0, 0, -offset), nil
}

var icsWeekdays = map[model.Day]string{
	model.Monday:    "MO",
	model.Tuesday:   "TU",
	model.Wednesday: "WE",
	model.Thursday:  "TH",
	model.Friday:    "FR",
}

func buildCalendar(lessons []model.Lesson, anchor time.Time, name string, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	if name != "" {
		cal.SetXWRCalName(name)
	}
	cal.SetXWRTimezone(anchor.Location().String())

	for i := range lessons {
		l := &lessons[i]
		if l.TimeSlot == nil || !l.Day.Valid() {
			continue
		}

		first := firstOccurrence(anchor, l.Day)
		start := first.Add(time.Duration(l.TimeSlot.StartMinutes) * time.Minute)
		end := first.Add(time.Duration(l.TimeSlot.EndMinutes) * time.Minute)

		event := cal.AddEvent(l.LessonID + "@school-sms")
		event.SetDtStampTime(stamp)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(fmt.Sprintf("%s (%s)", l.Name, subjectLabel(l.Subject)))
		event.SetLocation(streamLabel(l.Stream))
		desc := "Teacher: " + teacherLabel(l.Teacher)
		if l.Description != nil && *l.Description != "" {
			desc += "\n" + *l.Description
		}
		event.SetDescription(desc)
		event.AddProperty(ics.ComponentPropertyRrule, "FREQ=WEEKLY;BYDAY="+icsWeekdays[l.Day])
	}

	return cal.Serialize()
}

// firstOccurrence anchor 当天或之后第一个落在 day 的日期（零点）
func firstOccurrence(anchor time.Time, day model.Day) time.Time {
	offset := (int(day.Weekday()) - int(anchor.Weekday()) + 7) % 7
	return anchor.AddDate(0, 0, offset)
}

// ── 辅助函数 ──

// colName 第 idx 个时间段列（从 1 开始）对应的列名，A 列留给星期
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
