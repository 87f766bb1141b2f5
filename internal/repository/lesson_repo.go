package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Vitalis058/school-sms-backend-sub002/internal/model"
	pkgerrors "github.com/Vitalis058/school-sms-backend-sub002/pkg/errors"
)

// LessonFilter 课时筛选条件，零值字段不参与过滤
type LessonFilter struct {
	StreamID  string
	TeacherID string
	SubjectID string
	Day       model.Day
}

// LessonRepository 课时数据访问接口
type LessonRepository interface {
	Create(ctx context.Context, lesson *model.Lesson) error
	GetByID(ctx context.Context, id string) (*model.Lesson, error)
	List(ctx context.Context, filter LessonFilter) ([]model.Lesson, error)
	// FindAtSlot 查询同一天同一时间段内，教师或班级任一相同的课时
	FindAtSlot(ctx context.Context, day model.Day, timeSlotID, teacherID, streamID, excludeID string) ([]model.Lesson, error)
	CountByTimeSlot(ctx context.Context, timeSlotID string) (int64, error)
	Update(ctx context.Context, lesson *model.Lesson) error
	Delete(ctx context.Context, id string) error
}

type lessonRepo struct {
	db *gorm.DB
}

// NewLessonRepo 创建 LessonRepository 实例
func NewLessonRepo(db *gorm.DB) LessonRepository {
	return &lessonRepo{db: db}
}

// withDetails 预加载展示所需的教师 / 科目 / 班级(年级) / 时间段
func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Teacher").
		Preload("Subject").
		Preload("Stream.Grade").
		Preload("TimeSlot")
}

func (r *lessonRepo) Create(ctx context.Context, lesson *model.Lesson) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Create(lesson).Error
}

func (r *lessonRepo) GetByID(ctx context.Context, id string) (*model.Lesson, error) {
	var lesson model.Lesson
	err := withDetails(r.db.WithContext(ctx)).
		Where("lesson_id = ?", id).
		First(&lesson).Error
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

// List 按星期、时间段起始时间升序排列
func (r *lessonRepo) List(ctx context.Context, filter LessonFilter) ([]model.Lesson, error) {
	db := withDetails(r.db.WithContext(ctx)).
		Joins("JOIN time_slots ts ON ts.time_slot_id = lessons.time_slot_id")

	if filter.StreamID != "" {
		db = db.Where("lessons.stream_id = ?", filter.StreamID)
	}
	if filter.TeacherID != "" {
		db = db.Where("lessons.teacher_id = ?", filter.TeacherID)
	}
	if filter.SubjectID != "" {
		db = db.Where("lessons.subject_id = ?", filter.SubjectID)
	}
	if filter.Day != 0 {
		db = db.Where("lessons.day = ?", filter.Day)
	}

	var lessons []model.Lesson
	err := db.
		Order("lessons.day ASC, ts.start_minutes ASC, lessons.created_at ASC").
		Find(&lessons).Error
	return lessons, err
}

func (r *lessonRepo) FindAtSlot(ctx context.Context, day model.Day, timeSlotID, teacherID, streamID, excludeID string) ([]model.Lesson, error) {
	db := withDetails(r.db.WithContext(ctx)).
		Where("day = ? AND time_slot_id = ?", day, timeSlotID).
		Where("(teacher_id = ? OR stream_id = ?)", teacherID, streamID)
	if excludeID != "" {
		db = db.Where("lesson_id <> ?", excludeID)
	}

	var lessons []model.Lesson
	err := db.Find(&lessons).Error
	return lessons, err
}

func (r *lessonRepo) CountByTimeSlot(ctx context.Context, timeSlotID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Lesson{}).
		Where("time_slot_id = ?", timeSlotID).
		Count(&count).Error
	return count, err
}

// Update 乐观锁更新：版本号不一致返回 ErrOptimisticLock
func (r *lessonRepo) Update(ctx context.Context, lesson *model.Lesson) error {
	oldVersion := lesson.Version
	result := r.db.WithContext(ctx).
		Model(&model.Lesson{}).
		Where("lesson_id = ? AND version = ?", lesson.LessonID, oldVersion).
		Updates(map[string]interface{}{
			"name":         lesson.Name,
			"description":  lesson.Description,
			"day":          lesson.Day,
			"teacher_id":   lesson.TeacherID,
			"subject_id":   lesson.SubjectID,
			"stream_id":    lesson.StreamID,
			"time_slot_id": lesson.TimeSlotID,
			"version":      oldVersion + 1,
			"updated_at":   gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	lesson.Version = oldVersion + 1
	return nil
}

func (r *lessonRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("lesson_id = ?", id).
		Delete(&model.Lesson{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
