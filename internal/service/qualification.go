package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Vitalis058/school-sms-backend-sub002/internal/dto"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/model"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/repository"
)

// UnqualifiedTeacherError 教师未被授权任教该科目
type UnqualifiedTeacherError struct {
	Detail dto.UnqualifiedTeacherDetail
}

func (e *UnqualifiedTeacherError) Error() string {
	return fmt.Sprintf("%s：%s 不任教 %s", ErrUnqualifiedTeacher.Error(), e.Detail.Teacher.Name, e.Detail.Subject.Name)
}

func (e *UnqualifiedTeacherError) Unwrap() error { return ErrUnqualifiedTeacher }

// IsQualified 科目是否属于教师的任教科目集合
func IsQualified(teacher *model.Teacher, subjectID string) bool {
	return teacher != nil && teacher.Teaches(subjectID)
}

// checkQualification 查询教师与科目并校验任教资格
func checkQualification(ctx context.Context, repo *repository.Repository, teacherID, subjectID string) error {
	teacher, err := repo.Teacher.GetByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeacherNotFound
		}
		return err
	}
	if IsQualified(teacher, subjectID) {
		return nil
	}

	subject, err := repo.Subject.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubjectNotFound
		}
		return err
	}

	return &UnqualifiedTeacherError{Detail: dto.UnqualifiedTeacherDetail{
		Teacher: toTeacherBrief(teacher),
		Subject: toSubjectBrief(subject),
	}}
}
