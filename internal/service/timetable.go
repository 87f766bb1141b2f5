package service

import (
	"sort"

	"github.com/Vitalis058/school-sms-backend-sub002/internal/model"
)

// Timetable 课表网格的领域表示
type Timetable struct {
	Rows    []TimetableRow   // 固定五行：周一 … 周五
	Columns []model.TimeSlot // 实际被引用的时间段，按 ID 去重、按起始时间升序
	Total   int
}

// TimetableRow 某一天的课时
type TimetableRow struct {
	Day     model.Day
	Lessons []model.Lesson
}

// Assemble 将课时集合整理为课表网格
//
// 纯函数：不访问存储，输入相同则输出相同。全部课时 / 班级课表 / 教师课表
// 三种视图共用，差别只在上游的筛选条件。
func Assemble(lessons []model.Lesson) Timetable {
	rows := make([]TimetableRow, len(model.Weekdays))
	for i, d := range model.Weekdays {
		rows[i] = TimetableRow{Day: d, Lessons: []model.Lesson{}}
	}

	seen := make(map[string]bool)
	columns := []model.TimeSlot{}

	for i := range lessons {
		l := lessons[i]
		if l.Day.Valid() {
			idx := int(l.Day) - 1
			rows[idx].Lessons = append(rows[idx].Lessons, l)
		}
		if l.TimeSlot != nil && !seen[l.TimeSlot.TimeSlotID] {
			seen[l.TimeSlot.TimeSlotID] = true
			columns = append(columns, *l.TimeSlot)
		}
	}

	for i := range rows {
		sortLessons(rows[i].Lessons)
	}
	sortTimeSlots(columns)

	return Timetable{Rows: rows, Columns: columns, Total: len(lessons)}
}

// sortLessons 按 (星期, 起始时间) 稳定排序
func sortLessons(lessons []model.Lesson) {
	sort.SliceStable(lessons, func(i, j int) bool {
		if lessons[i].Day != lessons[j].Day {
			return lessons[i].Day < lessons[j].Day
		}
		return lessons[i].SlotStart() < lessons[j].SlotStart()
	})
}

// sortTimeSlots 按起始时间排序，起始相同按 ID 保证确定性
func sortTimeSlots(slots []model.TimeSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].StartMinutes != slots[j].StartMinutes {
			return slots[i].StartMinutes < slots[j].StartMinutes
		}
		return slots[i].TimeSlotID < slots[j].TimeSlotID
	})
}
