package service

import (
	"time"

	"github.com/Vitalis058/school-sms-backend-sub002/internal/dto"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/model"
)

// dayLabels 中文星期名（提示信息与导出表格使用）
var dayLabels = map[model.Day]string{
	model.Monday:    "周一",
	model.Tuesday:   "周二",
	model.Wednesday: "周三",
	model.Thursday:  "周四",
	model.Friday:    "周五",
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toTimeSlotBrief(slot *model.TimeSlot) *dto.TimeSlotBrief {
	if slot == nil {
		return nil
	}
	return &dto.TimeSlotBrief{
		ID:        slot.TimeSlotID,
		Name:      slot.Name,
		StartTime: slot.StartTime(),
		EndTime:   slot.EndTime(),
	}
}

func toTeacherBrief(t *model.Teacher) *dto.TeacherBrief {
	if t == nil {
		return nil
	}
	return &dto.TeacherBrief{ID: t.TeacherID, Name: t.FullName()}
}

func toSubjectBrief(s *model.Subject) *dto.SubjectBrief {
	if s == nil {
		return nil
	}
	return &dto.SubjectBrief{ID: s.SubjectID, Name: s.Name, Code: s.Code}
}

func toStreamBrief(s *model.Stream) *dto.StreamBrief {
	if s == nil {
		return nil
	}
	brief := &dto.StreamBrief{ID: s.StreamID, Name: s.Name, GradeID: s.GradeID}
	if s.Grade != nil {
		brief.GradeName = s.Grade.Name
	}
	return brief
}

func toLessonResponse(l *model.Lesson) dto.LessonResponse {
	return dto.LessonResponse{
		ID:          l.LessonID,
		Name:        l.Name,
		Description: l.Description,
		Day:         int(l.Day),
		DayName:     l.Day.String(),
		Teacher:     toTeacherBrief(l.Teacher),
		Subject:     toSubjectBrief(l.Subject),
		Stream:      toStreamBrief(l.Stream),
		TimeSlot:    toTimeSlotBrief(l.TimeSlot),
		Version:     l.Version,
		CreatedAt:   formatTime(l.CreatedAt),
		UpdatedAt:   formatTime(l.UpdatedAt),
	}
}
