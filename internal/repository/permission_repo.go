package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Vitalis058/school-sms-backend-sub002/internal/model"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/permission"
)

// PermissionRepository 角色权限规则数据访问接口
// 同时作为权限规则缓存的回源 Loader
type PermissionRepository interface {
	ListByRole(ctx context.Context, role string) ([]model.RolePermission, error)
	ReplaceForRole(ctx context.Context, role string, rules []model.RolePermission) error
	RulesForRole(ctx context.Context, role string) ([]permission.Rule, error)
}

type permissionRepo struct {
	db *gorm.DB
}

// NewPermissionRepo 创建 PermissionRepository 实例
func NewPermissionRepo(db *gorm.DB) PermissionRepository {
	return &permissionRepo{db: db}
}

func (r *permissionRepo) ListByRole(ctx context.Context, role string) ([]model.RolePermission, error) {
	var perms []model.RolePermission
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("resource ASC, action ASC").
		Find(&perms).Error
	return perms, err
}

// ReplaceForRole 在同一事务内删除旧规则并写入新规则
func (r *permissionRepo) ReplaceForRole(ctx context.Context, role string, rules []model.RolePermission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role = ?", role).Delete(&model.RolePermission{}).Error; err != nil {
			return err
		}
		if len(rules) == 0 {
			return nil
		}
		for i := range rules {
			rules[i].Role = role
		}
		return tx.Create(&rules).Error
	})
}

func (r *permissionRepo) RulesForRole(ctx context.Context, role string) ([]permission.Rule, error) {
	perms, err := r.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	rules := make([]permission.Rule, 0, len(perms))
	for i := range perms {
		rules = append(rules, perms[i].ToRule())
	}
	return rules, nil
}
