package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Vitalis058/school-sms-backend-sub002/internal/model"
)

// ── 目录数据（只读）──

// TeacherRepository 教师查询接口
type TeacherRepository interface {
	// GetByID 返回教师及其任教科目集合
	GetByID(ctx context.Context, id string) (*model.Teacher, error)
}

// SubjectRepository 科目查询接口
type SubjectRepository interface {
	GetByID(ctx context.Context, id string) (*model.Subject, error)
}

// StreamRepository 班级查询接口
type StreamRepository interface {
	GetByID(ctx context.Context, id string) (*model.Stream, error)
}

type teacherRepo struct{ db *gorm.DB }
type subjectRepo struct{ db *gorm.DB }
type streamRepo struct{ db *gorm.DB }

// NewTeacherRepo 创建 TeacherRepository 实例
func NewTeacherRepo(db *gorm.DB) TeacherRepository { return &teacherRepo{db: db} }

// NewSubjectRepo 创建 SubjectRepository 实例
func NewSubjectRepo(db *gorm.DB) SubjectRepository { return &subjectRepo{db: db} }

// NewStreamRepo 创建 StreamRepository 实例
func NewStreamRepo(db *gorm.DB) StreamRepository { return &streamRepo{db: db} }

func (r *teacherRepo) GetByID(ctx context.Context, id string) (*model.Teacher, error) {
	var t model.Teacher
	err := r.db.WithContext(ctx).
		Preload("Subjects").
		Where("teacher_id = ?", id).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *subjectRepo) GetByID(ctx context.Context, id string) (*model.Subject, error) {
	var s model.Subject
	if err := r.db.WithContext(ctx).Where("subject_id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *streamRepo) GetByID(ctx context.Context, id string) (*model.Stream, error) {
	var s model.Stream
	err := r.db.WithContext(ctx).
		Preload("Grade").
		Where("stream_id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}
