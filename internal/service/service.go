package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Vitalis058/school-sms-backend-sub002/config"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/permission"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/repository"
)

// ErrTransient 存储层暂时性故障（连接中断、事务中止），与业务错误区分，由调用方决定是否重试
var ErrTransient = errors.New("存储暂时不可用，请稍后重试")

func transient(err error) error {
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

// Locker 短期互斥锁（Redis 客户端满足该接口）
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// Service 所有 Service 的聚合入口
type Service struct {
	TimeSlot   TimeSlotService
	Lesson     LessonService
	Timetable  TimetableService
	Export     ExportService
	Permission PermissionService
}

// NewService 创建 Service 聚合
// locker 可为 nil（未启用 Redis）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	locker Locker,
	rules *permission.RuleCache,
	logger *zap.Logger,
) *Service {
	return &Service{
		TimeSlot:   NewTimeSlotService(repo, logger),
		Lesson:     NewLessonService(repo, locker, cfg.Scheduling.LockTTL, logger),
		Timetable:  NewTimetableService(repo, logger),
		Export:     NewExportService(repo, &cfg.Export, logger),
		Permission: NewPermissionService(repo, rules, logger),
	}
}
