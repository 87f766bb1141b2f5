package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Vitalis058/school-sms-backend-sub002/internal/dto"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/model"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/repository"
	pkgerrors "github.com/Vitalis058/school-sms-backend-sub002/pkg/errors"
	"github.com/Vitalis058/school-sms-backend-sub002/pkg/timeofday"
)

// ── 时间段模块业务错误 ──

var (
	ErrTimeSlotNotFound      = errors.New("时间段不存在")
	ErrInvalidTimeFormat     = errors.New("时间格式必须为 HH:MM（24 小时制）")
	ErrInvalidInterval       = errors.New("开始时间必须早于结束时间")
	ErrSlotOverlap           = errors.New("时间段与已有时间段重叠")
	ErrTimeSlotHasDependents = errors.New("时间段仍被课时引用，无法删除")
)

// SlotOverlapError 携带发生重叠的已有时间段
type SlotOverlapError struct {
	Existing dto.TimeSlotBrief
}

func (e *SlotOverlapError) Error() string {
	return fmt.Sprintf("%s：%s（%s-%s）", ErrSlotOverlap.Error(),
		e.Existing.Name, e.Existing.StartTime, e.Existing.EndTime)
}

func (e *SlotOverlapError) Unwrap() error { return ErrSlotOverlap }

// TimeSlotService 时间段目录业务接口
// 目录与星期无关：同一时间段在周一至周五复用，任意两段不得重叠
type TimeSlotService interface {
	Create(ctx context.Context, req *dto.CreateTimeSlotRequest) (*dto.TimeSlotResponse, error)
	GetByID(ctx context.Context, id string) (*dto.TimeSlotResponse, error)
	List(ctx context.Context) ([]dto.TimeSlotResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateTimeSlotRequest) (*dto.TimeSlotResponse, error)
	Delete(ctx context.Context, id string) error
}

type timeSlotService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTimeSlotService 创建 TimeSlotService 实例
func NewTimeSlotService(repo *repository.Repository, logger *zap.Logger) TimeSlotService {
	return &timeSlotService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *timeSlotService) Create(ctx context.Context, req *dto.CreateTimeSlotRequest) (*dto.TimeSlotResponse, error) {
	start, end, err := parseInterval(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	slot := &model.TimeSlot{
		Name:         req.Name,
		StartMinutes: start,
		EndMinutes:   end,
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		existing, err := tx.TimeSlot.List(ctx)
		if err != nil {
			return err
		}
		if hit := findOverlap(existing, start, end, ""); hit != nil {
			return &SlotOverlapError{Existing: *toTimeSlotBrief(hit)}
		}
		return tx.TimeSlot.Create(ctx, slot)
	})
	if err != nil {
		return nil, s.translateWriteError(ctx, err, "", start, end)
	}

	s.logger.Info("时间段已创建",
		zap.String("time_slot_id", slot.TimeSlotID),
		zap.String("range", timeofday.Format(start)+"-"+timeofday.Format(end)))

	return toTimeSlotResponse(slot), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *timeSlotService) GetByID(ctx context.Context, id string) (*dto.TimeSlotResponse, error) {
	slot, err := s.repo.TimeSlot.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimeSlotNotFound
		}
		s.logger.Error("查询时间段失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toTimeSlotResponse(slot), nil
}

// ────────────────────── List ──────────────────────

// List 按起始时间升序
func (s *timeSlotService) List(ctx context.Context) ([]dto.TimeSlotResponse, error) {
	slots, err := s.repo.TimeSlot.List(ctx)
	if err != nil {
		s.logger.Error("列出时间段失败", zap.Error(err))
		return nil, err
	}
	sortTimeSlots(slots)

	result := make([]dto.TimeSlotResponse, 0, len(slots))
	for i := range slots {
		result = append(result, *toTimeSlotResponse(&slots[i]))
	}

	return result, nil
}

// ────────────────────── Update ──────────────────────

// Update 区间校验与重叠检测均排除自身
func (s *timeSlotService) Update(ctx context.Context, id string, req *dto.UpdateTimeSlotRequest) (*dto.TimeSlotResponse, error) {
	var (
		updated    *model.TimeSlot
		start, end int
	)

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		slot, err := tx.TimeSlot.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTimeSlotNotFound
			}
			return err
		}

		startStr, endStr := slot.StartTime(), slot.EndTime()
		if req.StartTime != nil {
			startStr = *req.StartTime
		}
		if req.EndTime != nil {
			endStr = *req.EndTime
		}
		start, end, err = parseInterval(startStr, endStr)
		if err != nil {
			return err
		}

		existing, err := tx.TimeSlot.List(ctx)
		if err != nil {
			return err
		}
		if hit := findOverlap(existing, start, end, id); hit != nil {
			return &SlotOverlapError{Existing: *toTimeSlotBrief(hit)}
		}

		if req.Name != nil {
			slot.Name = *req.Name
		}
		slot.StartMinutes, slot.EndMinutes = start, end

		if err := tx.TimeSlot.Update(ctx, slot); err != nil {
			return err
		}
		updated = slot
		return nil
	})
	if err != nil {
		return nil, s.translateWriteError(ctx, err, id, start, end)
	}

	return toTimeSlotResponse(updated), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 引用计数与删除在同一可串行化事务内完成
// 计数之后才插入的课时由 ON DELETE RESTRICT 外键拦截
func (s *timeSlotService) Delete(ctx context.Context, id string) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.TimeSlot.GetByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTimeSlotNotFound
			}
			return err
		}

		n, err := tx.Lesson.CountByTimeSlot(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrTimeSlotHasDependents
		}

		return tx.TimeSlot.Delete(ctx, id)
	})

	switch {
	case err == nil:
		s.logger.Info("时间段已删除", zap.String("time_slot_id", id))
		return nil
	case errors.Is(err, ErrTimeSlotNotFound), errors.Is(err, ErrTimeSlotHasDependents):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrTimeSlotNotFound
	case pkgerrors.IsForeignKeyViolation(err):
		return ErrTimeSlotHasDependents
	case pkgerrors.IsSerializationFailure(err):
		// 与并发排课冲突：以事务外的最新状态重新判定
		if n, cerr := s.repo.Lesson.CountByTimeSlot(ctx, id); cerr == nil && n > 0 {
			return ErrTimeSlotHasDependents
		}
		return transient(err)
	default:
		s.logger.Error("删除时间段失败", zap.String("id", id), zap.Error(err))
		return err
	}
}

// ── 内部辅助方法 ──

// translateWriteError 将存储层冲突翻译回领域错误
// 排他约束冲突或串行化失败时重新读取目录定位重叠的时间段
func (s *timeSlotService) translateWriteError(ctx context.Context, err error, excludeID string, start, end int) error {
	var overlap *SlotOverlapError
	switch {
	case errors.As(err, &overlap),
		errors.Is(err, ErrTimeSlotNotFound),
		errors.Is(err, ErrInvalidInterval),
		errors.Is(err, ErrInvalidTimeFormat):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrTimeSlotNotFound
	case pkgerrors.IsExclusionViolation(err), pkgerrors.IsSerializationFailure(err):
		slots, lerr := s.repo.TimeSlot.List(ctx)
		if lerr == nil {
			if hit := findOverlap(slots, start, end, excludeID); hit != nil {
				return &SlotOverlapError{Existing: *toTimeSlotBrief(hit)}
			}
		}
		if pkgerrors.IsExclusionViolation(err) {
			return ErrSlotOverlap
		}
		return transient(err)
	default:
		s.logger.Error("写入时间段失败", zap.Error(err))
		return err
	}
}

// parseInterval 解析并校验 [start, end)
func parseInterval(startStr, endStr string) (int, int, error) {
	start, err := timeofday.Parse(startStr)
	if err != nil {
		return 0, 0, ErrInvalidTimeFormat
	}
	end, err := timeofday.Parse(endStr)
	if err != nil {
		return 0, 0, ErrInvalidTimeFormat
	}
	if start >= end {
		return 0, 0, ErrInvalidInterval
	}
	return start, end, nil
}

// findOverlap 返回首个与 [start, end) 重叠的时间段（按起始时间），excludeID 跳过自身
func findOverlap(slots []model.TimeSlot, start, end int, excludeID string) *model.TimeSlot {
	sortTimeSlots(slots)
	for i := range slots {
		if slots[i].TimeSlotID == excludeID {
			continue
		}
		if slots[i].Overlaps(start, end) {
			return &slots[i]
		}
	}
	return nil
}

func toTimeSlotResponse(slot *model.TimeSlot) *dto.TimeSlotResponse {
	return &dto.TimeSlotResponse{
		ID:        slot.TimeSlotID,
		Name:      slot.Name,
		StartTime: slot.StartTime(),
		EndTime:   slot.EndTime(),
		CreatedAt: formatTime(slot.CreatedAt),
		UpdatedAt: formatTime(slot.UpdatedAt),
	}
}
