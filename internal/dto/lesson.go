package dto

// ── 课时模块 DTO ──

// CreateLessonRequest 排课请求
type CreateLessonRequest struct {
	Name        string  `json:"name"         binding:"required,min=1,max=100"`
	Description *string `json:"description"  binding:"omitempty,max=1000"`
	Day         int     `json:"day"          binding:"required,min=1,max=5"`
	TeacherID   string  `json:"teacher_id"   binding:"required,uuid"`
	SubjectID   string  `json:"subject_id"   binding:"required,uuid"`
	StreamID    string  `json:"stream_id"    binding:"required,uuid"`
	TimeSlotID  string  `json:"time_slot_id" binding:"required,uuid"`
}

// UpdateLessonRequest 调课请求（部分更新）
// Version 可选：提供时须与当前版本一致，否则视为并发修改
type UpdateLessonRequest struct {
	Name        *string `json:"name"         binding:"omitempty,min=1,max=100"`
	Description *string `json:"description"  binding:"omitempty,max=1000"`
	Day         *int    `json:"day"          binding:"omitempty,min=1,max=5"`
	TeacherID   *string `json:"teacher_id"   binding:"omitempty,uuid"`
	SubjectID   *string `json:"subject_id"   binding:"omitempty,uuid"`
	StreamID    *string `json:"stream_id"    binding:"omitempty,uuid"`
	TimeSlotID  *string `json:"time_slot_id" binding:"omitempty,uuid"`
	Version     *int    `json:"version"      binding:"omitempty,min=1"`
}

// TouchesSchedule 是否修改了排课元组（教师 / 班级 / 时间段 / 星期）
func (r *UpdateLessonRequest) TouchesSchedule() bool {
	return r.TeacherID != nil || r.StreamID != nil || r.TimeSlotID != nil || r.Day != nil
}

// LessonListRequest 课时列表筛选条件
type LessonListRequest struct {
	StreamID  string `form:"stream_id"  binding:"omitempty,uuid"`
	TeacherID string `form:"teacher_id" binding:"omitempty,uuid"`
	SubjectID string `form:"subject_id" binding:"omitempty,uuid"`
	Day       *int   `form:"day"        binding:"omitempty,min=1,max=5"`
}

// LessonResponse 课时信息响应
type LessonResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	Day         int            `json:"day"`
	DayName     string         `json:"day_name"`
	Teacher     *TeacherBrief  `json:"teacher,omitempty"`
	Subject     *SubjectBrief  `json:"subject,omitempty"`
	Stream      *StreamBrief   `json:"stream,omitempty"`
	TimeSlot    *TimeSlotBrief `json:"time_slot,omitempty"`
	Version     int            `json:"version"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

// ── 冲突 ──

// 冲突类型
const (
	ConflictTeacher = "teacher"
	ConflictStream  = "stream"
)

// LessonConflict 排课冲突详情
// 教师冲突附带对方课时的科目与班级；班级冲突附带科目与教师
type LessonConflict struct {
	Type       string         `json:"type"`
	LessonID   string         `json:"lesson_id"`
	LessonName string         `json:"lesson_name"`
	Day        int            `json:"day"`
	DayName    string         `json:"day_name"`
	TimeSlot   *TimeSlotBrief `json:"time_slot,omitempty"`
	Subject    *SubjectBrief  `json:"subject,omitempty"`
	Stream     *StreamBrief   `json:"stream,omitempty"`
	Teacher    *TeacherBrief  `json:"teacher,omitempty"`
	Message    string         `json:"message"`
}

// UnqualifiedTeacherDetail 教师不具备任教资格的详情
type UnqualifiedTeacherDetail struct {
	Teacher *TeacherBrief `json:"teacher"`
	Subject *SubjectBrief `json:"subject"`
}
