package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const lockPrefix = "lock:"

// 仅当持有者令牌匹配时才删除，避免误删他人在 TTL 过期后重新获得的锁
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AcquireLock 尝试获取短期互斥锁（SET NX PX）
// 获取成功返回持有者令牌；锁已被占用返回 ok=false
func (c *Client) AcquireLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error) {
	token = uuid.NewString()
	ok, err = c.rdb.SetNX(ctx, lockPrefix+key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// ReleaseLock 释放锁；令牌不匹配（锁已过期被他人获得）时静默忽略
func (c *Client) ReleaseLock(ctx context.Context, key, token string) error {
	n, err := releaseScript.Run(ctx, c.rdb, []string{lockPrefix + key}, token).Int()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return err
	}
	if n == 0 {
		c.logger.Debug("锁已过期或被他人持有", zap.String("key", key))
	}
	return nil
}
