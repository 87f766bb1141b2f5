package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Vitalis058/school-sms-backend-sub002/internal/dto"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/repository"
)

// ── TimetableService 接口 ──────────────────────────────────
//
// 只读视图：按筛选条件取课时，再交给 Assemble 组装成网格。
// 班级 / 教师视图会先确认目标存在，避免把"不存在"误报为"空课表"。
// ─────────────────────────────────────────────────────────────

// TimetableService 课表视图业务接口
type TimetableService interface {
	Get(ctx context.Context, req *dto.LessonListRequest) (*dto.TimetableResponse, error)
	ForStream(ctx context.Context, streamID string) (*dto.TimetableResponse, error)
	ForTeacher(ctx context.Context, teacherID string) (*dto.TimetableResponse, error)
}

type timetableService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTimetableService 创建 TimetableService 实例
func NewTimetableService(repo *repository.Repository, logger *zap.Logger) TimetableService {
	return &timetableService{repo: repo, logger: logger}
}

func (s *timetableService) Get(ctx context.Context, req *dto.LessonListRequest) (*dto.TimetableResponse, error) {
	lessons, err := listLessons(ctx, s.repo, req)
	if err != nil {
		s.logger.Error("查询课表失败", zap.Error(err))
		return nil, err
	}
	return toTimetableResponse(Assemble(lessons)), nil
}

func (s *timetableService) ForStream(ctx context.Context, streamID string) (*dto.TimetableResponse, error) {
	if err := ensureStream(ctx, s.repo, streamID); err != nil {
		return nil, err
	}
	return s.Get(ctx, &dto.LessonListRequest{StreamID: streamID})
}

func (s *timetableService) ForTeacher(ctx context.Context, teacherID string) (*dto.TimetableResponse, error) {
	if _, err := s.repo.Teacher.GetByID(ctx, teacherID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.String("id", teacherID), zap.Error(err))
		return nil, err
	}
	return s.Get(ctx, &dto.LessonListRequest{TeacherID: teacherID})
}

func toTimetableResponse(tt Timetable) *dto.TimetableResponse {
	resp := &dto.TimetableResponse{
		Rows:            make([]dto.TimetableDay, 0, len(tt.Rows)),
		ColumnTimeSlots: make([]dto.TimeSlotBrief, 0, len(tt.Columns)),
		TotalLessons:    tt.Total,
	}

	for _, row := range tt.Rows {
		day := dto.TimetableDay{
			Day:     int(row.Day),
			DayName: row.Day.String(),
			Lessons: make([]dto.LessonResponse, 0, len(row.Lessons)),
		}
		for i := range row.Lessons {
			day.Lessons = append(day.Lessons, toLessonResponse(&row.Lessons[i]))
		}
		resp.Rows = append(resp.Rows, day)
	}

	for i := range tt.Columns {
		resp.ColumnTimeSlots = append(resp.ColumnTimeSlots, *toTimeSlotBrief(&tt.Columns[i]))
	}

	return resp
}
