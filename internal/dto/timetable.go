package dto

// ── 课表视图 ──

// TimetableResponse 课表网格：固定五行（周一至周五），列为实际使用到的时间段
type TimetableResponse struct {
	Rows            []TimetableDay  `json:"rows"`
	ColumnTimeSlots []TimeSlotBrief `json:"column_time_slots"`
	TotalLessons    int             `json:"total_lessons"`
}

// TimetableDay 某一天的课时（按时间段起始时间升序）
type TimetableDay struct {
	Day     int              `json:"day"`
	DayName string           `json:"day_name"`
	Lessons []LessonResponse `json:"lessons"`
}

// ExportICSRequest 导出 iCalendar 的查询参数
// From 为学期首周任意一天（YYYY-MM-DD），缺省为本周周一
type ExportICSRequest struct {
	LessonListRequest
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
}
