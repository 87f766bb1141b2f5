package errors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgExclusionViolation   = "23P01"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

func pgCode(err error) (string, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

// IsUniqueViolation 唯一约束冲突
func IsUniqueViolation(err error) bool {
	code, _ := pgCode(err)
	return code == pgUniqueViolation
}

// IsForeignKeyViolation 外键约束冲突
func IsForeignKeyViolation(err error) bool {
	code, _ := pgCode(err)
	return code == pgForeignKeyViolation
}

// IsExclusionViolation 排他约束冲突（时间段区间重叠）
func IsExclusionViolation(err error) bool {
	code, _ := pgCode(err)
	return code == pgExclusionViolation
}

// IsSerializationFailure 可串行化事务冲突或死锁，调用方可按冲突重新判定
func IsSerializationFailure(err error) bool {
	code, _ := pgCode(err)
	return code == pgSerializationFailure || code == pgDeadlockDetected
}

// ConstraintName 返回违反的约束名，非 PostgreSQL 错误返回空串
func ConstraintName(err error) string {
	_, name := pgCode(err)
	return name
}
