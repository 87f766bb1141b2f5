package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	TimeSlot   TimeSlotRepository
	Lesson     LessonRepository
	Teacher    TeacherRepository
	Subject    SubjectRepository
	Stream     StreamRepository
	Permission PermissionRepository

	db *gorm.DB
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		TimeSlot:   NewTimeSlotRepo(db),
		Lesson:     NewLessonRepo(db),
		Teacher:    NewTeacherRepo(db),
		Subject:    NewSubjectRepo(db),
		Stream:     NewStreamRepo(db),
		Permission: NewPermissionRepo(db),
		db:         db,
	}
}

// Transaction 在可串行化事务中执行 fn，fn 内须使用 tx 聚合访问数据
// 检测-写入在同一事务内完成，并发写入同一元组时至少一方以 40001 中止
// 未绑定数据库（单元测试中手工组装的聚合）时直接以自身调用 fn
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}

// Ping 数据库健康检查
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
