package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Vitalis058/school-sms-backend-sub002/internal/dto"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/model"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/permission"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/repository"
)

var ErrInvalidRule = errors.New("权限规则不合法")

// PermissionService 角色权限规则管理
type PermissionService interface {
	ListRules(ctx context.Context, role string) ([]dto.RuleResponse, error)
	// ReplaceRules 整体替换角色规则，并显式失效该角色的规则缓存
	ReplaceRules(ctx context.Context, role string, req *dto.ReplaceRulesRequest) ([]dto.RuleResponse, error)
}

type permissionService struct {
	repo   *repository.Repository
	cache  *permission.RuleCache
	logger *zap.Logger
}

// NewPermissionService 创建 PermissionService 实例
func NewPermissionService(repo *repository.Repository, cache *permission.RuleCache, logger *zap.Logger) PermissionService {
	return &permissionService{repo: repo, cache: cache, logger: logger}
}

func (s *permissionService) ListRules(ctx context.Context, role string) ([]dto.RuleResponse, error) {
	perms, err := s.repo.Permission.ListByRole(ctx, role)
	if err != nil {
		s.logger.Error("查询权限规则失败", zap.String("role", role), zap.Error(err))
		return nil, err
	}
	return toRuleResponses(perms), nil
}

func (s *permissionService) ReplaceRules(ctx context.Context, role string, req *dto.ReplaceRulesRequest) ([]dto.RuleResponse, error) {
	perms := make([]model.RolePermission, 0, len(req.Rules))
	for _, r := range req.Rules {
		rule := permission.Rule{
			Role:       role,
			Resource:   r.Resource,
			Action:     r.Action,
			Conditions: r.Conditions,
		}
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
		}
		perms = append(perms, model.NewRolePermission(rule))
	}

	if err := s.repo.Permission.ReplaceForRole(ctx, role, perms); err != nil {
		s.logger.Error("保存权限规则失败", zap.String("role", role), zap.Error(err))
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, role); err != nil {
			s.logger.Warn("失效权限缓存失败，旧规则将在 TTL 后过期", zap.String("role", role), zap.Error(err))
		}
	}

	s.logger.Info("权限规则已更新", zap.String("role", role), zap.Int("count", len(perms)))
	return toRuleResponses(perms), nil
}

func toRuleResponses(perms []model.RolePermission) []dto.RuleResponse {
	result := make([]dto.RuleResponse, 0, len(perms))
	for i := range perms {
		r := perms[i].ToRule()
		if r.Conditions == nil {
			r.Conditions = []permission.Condition{}
		}
		result = append(result, dto.RuleResponse{
			Role:       r.Role,
			Resource:   r.Resource,
			Action:     r.Action,
			Conditions: r.Conditions,
		})
	}
	return result
}
