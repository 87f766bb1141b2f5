package model

import "github.com/Vitalis058/school-sms-backend-sub002/pkg/timeofday"

// TimeSlot 时间段 — 对应 time_slots
// 全校共用、五个上课日复用；起止以当日分钟数存储，区间为 [Start, End)
type TimeSlot struct {
	TimeSlotID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"time_slot_id"`
	Name         string `gorm:"type:varchar(50);not null"                      json:"name"`
	StartMinutes int    `gorm:"not null"                                       json:"start_minutes"`
	EndMinutes   int    `gorm:"not null"                                       json:"end_minutes"`
	BaseModel
}

// TableName 指定表名
func (TimeSlot) TableName() string { return "time_slots" }

// Overlaps 与另一时间段是否重叠
func (t *TimeSlot) Overlaps(start, end int) bool {
	return timeofday.Overlaps(t.StartMinutes, t.EndMinutes, start, end)
}

// StartTime HH:MM
func (t *TimeSlot) StartTime() string { return timeofday.Format(t.StartMinutes) }

// EndTime HH:MM
func (t *TimeSlot) EndTime() string { return timeofday.Format(t.EndMinutes) }
