package handler

import "github.com/Vitalis058/school-sms-backend-sub002/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	TimeSlot   *TimeSlotHandler
	Lesson     *LessonHandler
	Timetable  *TimetableHandler
	Permission *PermissionHandler
	Health     *HealthHandler
}

// NewHandler 创建 Handler 聚合
// cache 可为 nil（未启用 Redis）
func NewHandler(svc *service.Service, db, cache Pinger) *Handler {
	return &Handler{
		TimeSlot:   NewTimeSlotHandler(svc.TimeSlot),
		Lesson:     NewLessonHandler(svc.Lesson),
		Timetable:  NewTimetableHandler(svc.Timetable, svc.Export),
		Permission: NewPermissionHandler(svc.Permission),
		Health:     NewHealthHandler(db, cache),
	}
}
