package permission

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const cacheKeyPrefix = "perm:rules:"

// Backend 规则缓存存储（Redis 客户端满足该接口）
type Backend interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Loader 规则的权威来源（数据库）
type Loader interface {
	RulesForRole(ctx context.Context, role string) ([]Rule, error)
}

// RuleCache 按角色读穿缓存规则
// backend 为 nil 时直接读取 loader；缓存读写失败只记日志，不影响鉴权结果
type RuleCache struct {
	backend Backend
	loader  Loader
	ttl     time.Duration
	logger  *zap.Logger
}

// NewRuleCache 创建规则缓存
func NewRuleCache(backend Backend, loader Loader, ttl time.Duration, logger *zap.Logger) *RuleCache {
	return &RuleCache{backend: backend, loader: loader, ttl: ttl, logger: logger}
}

func cacheKey(role string) string { return cacheKeyPrefix + role }

// Rules 读取角色的全部规则
func (c *RuleCache) Rules(ctx context.Context, role string) ([]Rule, error) {
	if c.backend != nil {
		var cached []Rule
		found, err := c.backend.GetJSON(ctx, cacheKey(role), &cached)
		if err != nil {
			c.logger.Warn("读取权限缓存失败，回源数据库", zap.String("role", role), zap.Error(err))
		} else if found {
			return cached, nil
		}
	}

	rules, err := c.loader.RulesForRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("加载角色规则失败: %w", err)
	}
	if rules == nil {
		rules = []Rule{}
	}

	if c.backend != nil {
		if err := c.backend.SetJSON(ctx, cacheKey(role), rules, c.ttl); err != nil {
			c.logger.Warn("写入权限缓存失败", zap.String("role", role), zap.Error(err))
		}
	}
	return rules, nil
}

// Invalidate 规则变更后显式失效缓存
func (c *RuleCache) Invalidate(ctx context.Context, role string) error {
	if c.backend == nil {
		return nil
	}
	return c.backend.Del(ctx, cacheKey(role))
}
