package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Vitalis058/school-sms-backend-sub002/internal/dto"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/model"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/repository"
	pkgerrors "github.com/Vitalis058/school-sms-backend-sub002/pkg/errors"
)

// ── 课时模块业务错误 ──

var (
	ErrLessonNotFound     = errors.New("课时不存在")
	ErrInvalidDay         = errors.New("上课日必须为 1（周一）到 5（周五）")
	ErrScheduleConflict   = errors.New("排课冲突")
	ErrUnqualifiedTeacher = errors.New("教师不具备该科目的任教资格")
	ErrTeacherNotFound    = errors.New("教师不存在")
	ErrSubjectNotFound    = errors.New("科目不存在")
	ErrStreamNotFound     = errors.New("班级不存在")
	ErrScheduleBusy       = errors.New("该时间段正在被其他操作排课，请稍后重试")
)

// ScheduleConflictError 携带完整冲突列表，不做任何自动取舍
type ScheduleConflictError struct {
	Conflicts []dto.LessonConflict
}

func (e *ScheduleConflictError) Error() string {
	msgs := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		msgs = append(msgs, c.Message)
	}
	return fmt.Sprintf("%s：%s", ErrScheduleConflict.Error(), strings.Join(msgs, "；"))
}

func (e *ScheduleConflictError) Unwrap() error { return ErrScheduleConflict }

// LessonService 排课业务接口
//
// 创建的检查顺序：时间段存在 → 冲突检测 → 任教资格 → 班级存在 → 写入。
// 冲突与资格问题同时存在时以冲突为准。
type LessonService interface {
	Create(ctx context.Context, req *dto.CreateLessonRequest) (*dto.LessonResponse, error)
	GetByID(ctx context.Context, id string) (*dto.LessonResponse, error)
	List(ctx context.Context, req *dto.LessonListRequest) ([]dto.LessonResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateLessonRequest) (*dto.LessonResponse, error)
	Delete(ctx context.Context, id string) error
}

type lessonService struct {
	repo    *repository.Repository
	locker  Locker
	lockTTL time.Duration
	logger  *zap.Logger
}

// NewLessonService 创建 LessonService 实例
// locker 为 nil 时不加分布式锁，仅依赖可串行化事务与唯一约束
func NewLessonService(repo *repository.Repository, locker Locker, lockTTL time.Duration, logger *zap.Logger) LessonService {
	return &lessonService{repo: repo, locker: locker, lockTTL: lockTTL, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *lessonService) Create(ctx context.Context, req *dto.CreateLessonRequest) (*dto.LessonResponse, error) {
	day := model.Day(req.Day)
	if !day.Valid() {
		return nil, ErrInvalidDay
	}

	probe := SlotProbe{
		TeacherID:  req.TeacherID,
		StreamID:   req.StreamID,
		TimeSlotID: req.TimeSlotID,
		Day:        day,
	}

	unlock, err := s.lockTuple(ctx, probe)
	if err != nil {
		return nil, err
	}
	defer unlock()

	lesson := &model.Lesson{
		Name:        req.Name,
		Description: req.Description,
		Day:         day,
		TeacherID:   req.TeacherID,
		SubjectID:   req.SubjectID,
		StreamID:    req.StreamID,
		TimeSlotID:  req.TimeSlotID,
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := ensureTimeSlot(ctx, tx, req.TimeSlotID); err != nil {
			return err
		}

		conflicts, err := detectConflicts(ctx, tx, probe)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return &ScheduleConflictError{Conflicts: conflicts}
		}

		if err := checkQualification(ctx, tx, req.TeacherID, req.SubjectID); err != nil {
			return err
		}
		if err := ensureStream(ctx, tx, req.StreamID); err != nil {
			return err
		}

		return tx.Lesson.Create(ctx, lesson)
	})
	if err != nil {
		return nil, s.translateWriteError(ctx, err, probe)
	}

	s.logger.Info("课时已排定",
		zap.String("lesson_id", lesson.LessonID),
		zap.String("teacher_id", lesson.TeacherID),
		zap.String("stream_id", lesson.StreamID),
		zap.Stringer("day", lesson.Day),
		zap.String("time_slot_id", lesson.TimeSlotID))

	return s.reload(ctx, lesson.LessonID)
}

// ────────────────────── GetByID ──────────────────────

func (s *lessonService) GetByID(ctx context.Context, id string) (*dto.LessonResponse, error) {
	return s.reload(ctx, id)
}

// ────────────────────── List ──────────────────────

// List 按星期、时间段起始时间升序
func (s *lessonService) List(ctx context.Context, req *dto.LessonListRequest) ([]dto.LessonResponse, error) {
	lessons, err := listLessons(ctx, s.repo, req)
	if err != nil {
		s.logger.Error("列出课时失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.LessonResponse, 0, len(lessons))
	for i := range lessons {
		result = append(result, toLessonResponse(&lessons[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

// Update 仅当教师 / 班级 / 时间段 / 星期之一出现在请求中时重新检测冲突（排除自身）；
// 教师或科目发生变化时重新校验任教资格
func (s *lessonService) Update(ctx context.Context, id string, req *dto.UpdateLessonRequest) (*dto.LessonResponse, error) {
	current, err := s.repo.Lesson.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		s.logger.Error("查询课时失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if req.Version != nil && *req.Version != current.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}

	merged := mergeLesson(current, req)
	if !merged.Day.Valid() {
		return nil, ErrInvalidDay
	}

	probe := SlotProbe{
		TeacherID:       merged.TeacherID,
		StreamID:        merged.StreamID,
		TimeSlotID:      merged.TimeSlotID,
		Day:             merged.Day,
		ExcludeLessonID: id,
	}

	unlock := func() {}
	if req.TouchesSchedule() {
		if unlock, err = s.lockTuple(ctx, probe); err != nil {
			return nil, err
		}
	}
	defer unlock()

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		latest, err := tx.Lesson.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLessonNotFound
			}
			return err
		}
		if latest.Version != current.Version {
			return pkgerrors.ErrOptimisticLock
		}

		if req.TouchesSchedule() {
			if merged.TimeSlotID != latest.TimeSlotID {
				if err := ensureTimeSlot(ctx, tx, merged.TimeSlotID); err != nil {
					return err
				}
			}
			conflicts, err := detectConflicts(ctx, tx, probe)
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return &ScheduleConflictError{Conflicts: conflicts}
			}
		}

		if merged.TeacherID != latest.TeacherID || merged.SubjectID != latest.SubjectID {
			if err := checkQualification(ctx, tx, merged.TeacherID, merged.SubjectID); err != nil {
				return err
			}
		}
		if merged.StreamID != latest.StreamID {
			if err := ensureStream(ctx, tx, merged.StreamID); err != nil {
				return err
			}
		}

		return tx.Lesson.Update(ctx, &merged)
	})
	if err != nil {
		return nil, s.translateWriteError(ctx, err, probe)
	}

	return s.reload(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *lessonService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Lesson.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLessonNotFound
		}
		s.logger.Error("删除课时失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("课时已删除", zap.String("lesson_id", id))
	return nil
}

// ── 内部辅助方法 ──

func (s *lessonService) reload(ctx context.Context, id string) (*dto.LessonResponse, error) {
	lesson, err := s.repo.Lesson.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		s.logger.Error("查询课时失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	resp := toLessonResponse(lesson)
	return &resp, nil
}

// lockTuple 依次获取教师与班级两个元组锁
// 锁被占用返回 ErrScheduleBusy；Redis 故障时降级为无锁，事务与约束仍然生效
func (s *lessonService) lockTuple(ctx context.Context, p SlotProbe) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}

	keys := []string{
		fmt.Sprintf("schedule:stream:%s:%d:%s", p.StreamID, p.Day, p.TimeSlotID),
		fmt.Sprintf("schedule:teacher:%s:%d:%s", p.TeacherID, p.Day, p.TimeSlotID),
	}

	held := make(map[string]string, len(keys))
	release := func() {
		for key, token := range held {
			if err := s.locker.ReleaseLock(context.Background(), key, token); err != nil {
				s.logger.Warn("释放排课锁失败", zap.String("key", key), zap.Error(err))
			}
		}
	}

	for _, key := range keys {
		token, ok, err := s.locker.AcquireLock(ctx, key, s.lockTTL)
		if err != nil {
			s.logger.Warn("获取排课锁失败，降级为仅依赖事务", zap.String("key", key), zap.Error(err))
			release()
			return noop, nil
		}
		if !ok {
			release()
			return nil, ErrScheduleBusy
		}
		held[key] = token
	}
	return release, nil
}

// translateWriteError 将存储层错误翻译为领域错误
// 唯一约束冲突或串行化失败说明有并发写入抢先：在事务外重新检测并返回真实冲突
func (s *lessonService) translateWriteError(ctx context.Context, err error, p SlotProbe) error {
	if isDomainError(err) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrLessonNotFound
	case pkgerrors.IsUniqueViolation(err), pkgerrors.IsSerializationFailure(err):
		conflicts, derr := detectConflicts(ctx, s.repo, p)
		if derr == nil && len(conflicts) > 0 {
			return &ScheduleConflictError{Conflicts: conflicts}
		}
		s.logger.Warn("并发排课导致事务中止", zap.Error(err))
		return transient(err)
	case pkgerrors.IsForeignKeyViolation(err):
		return referenceError(pkgerrors.ConstraintName(err))
	default:
		s.logger.Error("写入课时失败", zap.Error(err))
		return err
	}
}

// referenceError 按外键约束名定位失效的引用
func referenceError(constraint string) error {
	switch {
	case strings.Contains(constraint, "time_slot"):
		return ErrTimeSlotNotFound
	case strings.Contains(constraint, "teacher"):
		return ErrTeacherNotFound
	case strings.Contains(constraint, "subject"):
		return ErrSubjectNotFound
	default:
		return ErrStreamNotFound
	}
}

func isDomainError(err error) bool {
	var (
		conflict    *ScheduleConflictError
		unqualified *UnqualifiedTeacherError
	)
	if errors.As(err, &conflict) || errors.As(err, &unqualified) {
		return true
	}
	for _, target := range []error{
		ErrLessonNotFound, ErrTimeSlotNotFound, ErrTeacherNotFound, ErrSubjectNotFound,
		ErrStreamNotFound, ErrInvalidDay, pkgerrors.ErrOptimisticLock,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func ensureTimeSlot(ctx context.Context, repo *repository.Repository, id string) error {
	if _, err := repo.TimeSlot.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTimeSlotNotFound
		}
		return err
	}
	return nil
}

func ensureStream(ctx context.Context, repo *repository.Repository, id string) error {
	if _, err := repo.Stream.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStreamNotFound
		}
		return err
	}
	return nil
}

// mergeLesson 请求中出现的字段覆盖原值，关联对象不参与写入
func mergeLesson(current *model.Lesson, req *dto.UpdateLessonRequest) model.Lesson {
	merged := *current
	merged.Teacher, merged.Subject, merged.Stream, merged.TimeSlot = nil, nil, nil, nil

	if req.Name != nil {
		merged.Name = *req.Name
	}
	if req.Description != nil {
		merged.Description = req.Description
	}
	if req.Day != nil {
		merged.Day = model.Day(*req.Day)
	}
	if req.TeacherID != nil {
		merged.TeacherID = *req.TeacherID
	}
	if req.SubjectID != nil {
		merged.SubjectID = *req.SubjectID
	}
	if req.StreamID != nil {
		merged.StreamID = *req.StreamID
	}
	if req.TimeSlotID != nil {
		merged.TimeSlotID = *req.TimeSlotID
	}
	return merged
}

// listLessons 按筛选条件读取课时并保证 (星期, 起始时间) 有序
func listLessons(ctx context.Context, repo *repository.Repository, req *dto.LessonListRequest) ([]model.Lesson, error) {
	filter := repository.LessonFilter{}
	if req != nil {
		filter.StreamID = req.StreamID
		filter.TeacherID = req.TeacherID
		filter.SubjectID = req.SubjectID
		if req.Day != nil {
			filter.Day = model.Day(*req.Day)
		}
	}

	lessons, err := repo.Lesson.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	sortLessons(lessons)
	return lessons, nil
}
