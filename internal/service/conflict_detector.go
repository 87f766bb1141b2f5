package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/Vitalis058/school-sms-backend-sub002/internal/dto"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/model"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/repository"
)

// SlotProbe 待检测的排课元组
type SlotProbe struct {
	TeacherID  string
	StreamID   string
	TimeSlotID string
	Day        model.Day
	// ExcludeLessonID 调课时排除课时自身
	ExcludeLessonID string
}

// DetectConflicts 在已有课时中查找与 probe 撞车的记录
//
// 同一天同一时间段内：教师相同记为教师冲突，班级相同记为班级冲突。
// 两项检查相互独立，同一课时可同时触发两类冲突。结果按
// 教师冲突在前、班级冲突在后排列，同类按课时 ID 排序。
func DetectConflicts(existing []model.Lesson, p SlotProbe) []dto.LessonConflict {
	var teacherHits, streamHits []dto.LessonConflict

	for i := range existing {
		l := &existing[i]
		if l.LessonID == p.ExcludeLessonID && p.ExcludeLessonID != "" {
			continue
		}
		if l.Day != p.Day || l.TimeSlotID != p.TimeSlotID {
			continue
		}
		if l.TeacherID == p.TeacherID {
			teacherHits = append(teacherHits, teacherConflict(l))
		}
		if l.StreamID == p.StreamID {
			streamHits = append(streamHits, streamConflict(l))
		}
	}

	byLesson := func(list []dto.LessonConflict) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].LessonID < list[j].LessonID })
	}
	byLesson(teacherHits)
	byLesson(streamHits)

	return append(teacherHits, streamHits...)
}

// detectConflicts 从存储读取同槽课时后检测
func detectConflicts(ctx context.Context, repo *repository.Repository, p SlotProbe) ([]dto.LessonConflict, error) {
	existing, err := repo.Lesson.FindAtSlot(ctx, p.Day, p.TimeSlotID, p.TeacherID, p.StreamID, p.ExcludeLessonID)
	if err != nil {
		return nil, err
	}
	return DetectConflicts(existing, p), nil
}

func baseConflict(kind string, l *model.Lesson) dto.LessonConflict {
	return dto.LessonConflict{
		Type:       kind,
		LessonID:   l.LessonID,
		LessonName: l.Name,
		Day:        int(l.Day),
		DayName:    l.Day.String(),
		TimeSlot:   toTimeSlotBrief(l.TimeSlot),
		Subject:    toSubjectBrief(l.Subject),
	}
}

func teacherConflict(l *model.Lesson) dto.LessonConflict {
	c := baseConflict(dto.ConflictTeacher, l)
	c.Stream = toStreamBrief(l.Stream)
	c.Message = fmt.Sprintf("该教师%s %s 已在 %s 教授 %s",
		dayLabels[l.Day], slotLabel(l.TimeSlot), streamLabel(l.Stream), subjectLabel(l.Subject))
	return c
}

func streamConflict(l *model.Lesson) dto.LessonConflict {
	c := baseConflict(dto.ConflictStream, l)
	c.Teacher = toTeacherBrief(l.Teacher)
	c.Message = fmt.Sprintf("该班级%s %s 已安排 %s（教师 %s）",
		dayLabels[l.Day], slotLabel(l.TimeSlot), subjectLabel(l.Subject), teacherLabel(l.Teacher))
	return c
}

// ── 展示文本，关联未加载时退化为 ID ──

func slotLabel(t *model.TimeSlot) string {
	if t == nil {
		return "该时间段"
	}
	return t.StartTime() + "-" + t.EndTime()
}

func streamLabel(s *model.Stream) string {
	if s == nil {
		return "其他班级"
	}
	return s.DisplayName()
}

func subjectLabel(s *model.Subject) string {
	if s == nil {
		return "其他科目"
	}
	return s.Name
}

func teacherLabel(t *model.Teacher) string {
	if t == nil {
		return "未知"
	}
	return t.FullName()
}
