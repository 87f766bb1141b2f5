package model

// Lesson 课时 — 对应 lessons
// (teacher_id, day, time_slot_id) 与 (stream_id, day, time_slot_id) 均唯一
type Lesson struct {
	LessonID    string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"lesson_id"`
	Name        string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Description *string `gorm:"type:text"                                      json:"description,omitempty"`
	Day         Day     `gorm:"type:smallint;not null"                         json:"day"`
	TeacherID   string  `gorm:"type:uuid;not null"                             json:"teacher_id"`
	SubjectID   string  `gorm:"type:uuid;not null"                             json:"subject_id"`
	StreamID    string  `gorm:"type:uuid;not null"                             json:"stream_id"`
	TimeSlotID  string  `gorm:"type:uuid;not null"                             json:"time_slot_id"`
	VersionedModel

	// 关联（仅读取时预加载）
	Teacher  *Teacher  `gorm:"foreignKey:TeacherID;references:TeacherID"   json:"teacher,omitempty"`
	Subject  *Subject  `gorm:"foreignKey:SubjectID;references:SubjectID"   json:"subject,omitempty"`
	Stream   *Stream   `gorm:"foreignKey:StreamID;references:StreamID"     json:"stream,omitempty"`
	TimeSlot *TimeSlot `gorm:"foreignKey:TimeSlotID;references:TimeSlotID" json:"time_slot,omitempty"`
}

// TableName 指定表名
func (Lesson) TableName() string { return "lessons" }

// SlotStart 排序键：时间段起始分钟，未加载时间段时排在最后
func (l *Lesson) SlotStart() int {
	if l.TimeSlot == nil {
		return 1 << 30
	}
	return l.TimeSlot.StartMinutes
}
