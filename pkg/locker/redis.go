package locker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig redis lock configuration
// RedisConfig redis 锁配置
type RedisConfig struct {
	// Prefix 键前缀
	Prefix string
	// TTL lock expiry, protects against crashed holders
	// TTL 锁过期时间，防止持有者崩溃后锁无法释放
	// The lease is not renewed, a holder outliving TTL is caught by the unique slug index.
	TTL time.Duration
	// RetryInterval 获取失败后的重试间隔
	RetryInterval time.Duration
}

// Redis is a lock shared by every process using the same redis
// Redis 使用同一 redis 的所有进程共享的锁
type Redis struct {
	client redis.UniversalClient
	config RedisConfig
	logger *zap.Logger
}

// NewRedis 创建 redis 锁
func NewRedis(client redis.UniversalClient, cfg RedisConfig, logger *zap.Logger) *Redis {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 25 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, config: cfg, logger: logger}
}

func (r *Redis) Lock(ctx context.Context, key string) (Unlock, error) {
	name := r.config.Prefix + key
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, name, token, r.config.TTL).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, errors.Wrapf(err, "redis lock %s", name)
		}
		if ok {
			break
		}

		timer := time.NewTimer(r.config.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller's context may already be cancelled
			relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(relCtx, r.client, []string{name}, token).Err(); err != nil {
				r.logger.Warn("redis lock release failed", zap.String("key", name), zap.Error(err))
			}
		})
	}, nil
}
