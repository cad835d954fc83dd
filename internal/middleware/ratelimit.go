package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"

	"github.com/yockii/slide_stream/internal/constant"
	"github.com/yockii/slide_stream/internal/service"
	"github.com/yockii/slide_stream/pkg/logger"
)

// Quota 一次计数后的窗口状态
type Quota struct {
	Allowed   bool
	Remaining int
	// Reset 距当前窗口结束的时间
	Reset time.Duration
}

// Limiter 固定窗口计数
type Limiter interface {
	Take(ctx context.Context, clientID string) (Quota, error)
}

type window struct {
	count int
	start time.Time
}

type memoryLimiter struct {
	max    int
	period time.Duration
	mu     sync.Mutex
	wins   map[string]*window
	now    func() time.Time
}

// NewMemoryLimiter 进程内限流，多实例部署时各自计数
func NewMemoryLimiter(maxRequests int, period time.Duration) *memoryLimiter {
	return &memoryLimiter{
		max:    maxRequests,
		period: period,
		wins:   make(map[string]*window),
		now:    time.Now,
	}
}

func (l *memoryLimiter) Take(_ context.Context, clientID string) (Quota, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.wins[clientID]
	if !ok || now.Sub(w.start) >= l.period {
		w = &window{start: now}
		l.wins[clientID] = w
	}
	w.count++
	return Quota{
		Allowed:   w.count <= l.max,
		Remaining: max(l.max-w.count, 0),
		Reset:     l.period - now.Sub(w.start),
	}, nil
}

// sweep 删除已过期两个周期以上的窗口
func (l *memoryLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for id, w := range l.wins {
		if now.Sub(w.start) >= l.period*2 {
			delete(l.wins, id)
		}
	}
}

// StartSweeper 定期清理过期窗口，ctx 结束时退出
func (l *memoryLimiter) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.sweep()
			}
		}
	}()
}

type redisLimiter struct {
	rdb    redis.Cmdable
	prefix string
	max    int
	period time.Duration
}

// NewRedisLimiter 多实例共享计数
func NewRedisLimiter(rdb redis.Cmdable, prefix string, maxRequests int, period time.Duration) Limiter {
	return &redisLimiter{rdb: rdb, prefix: prefix, max: maxRequests, period: period}
}

func (l *redisLimiter) Take(ctx context.Context, clientID string) (Quota, error) {
	key := l.prefix + clientID
	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return Quota{}, err
	}
	reset := l.period
	if n == 1 {
		err = l.rdb.PExpire(ctx, key, l.period).Err()
	} else if reset, err = l.rdb.PTTL(ctx, key).Result(); err == nil && reset < 0 {
		// 计数键丢失了过期时间
		reset = l.period
		err = l.rdb.PExpire(ctx, key, l.period).Err()
	}
	if err != nil {
		return Quota{}, err
	}
	return Quota{
		Allowed:   int(n) <= l.max,
		Remaining: max(l.max-int(n), 0),
		Reset:     reset,
	}, nil
}

// RateLimit 限流中间件，需放在鉴权之后才能按 key 区分调用方。
// 计数后端出错时放行
func RateLimit(limiter Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID := c.IP()
		if client, ok := c.Locals(LocalsClientKey).(string); ok && client != "" {
			clientID = client
		}

		q, err := limiter.Take(c.UserContext(), clientID)
		if err != nil {
			logger.Warn("限流计数失败", logger.F("clientId", clientID), logger.F("error", err))
			return c.Next()
		}
		c.Set("X-RateLimit-Remaining", strconv.Itoa(q.Remaining))
		if !q.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(q.Reset.Round(time.Second)/time.Second)))
			logger.Warn("rate limit exceeded",
				logger.F("clientId", clientID),
				logger.F("path", c.Path()),
			)
			return c.Status(fiber.StatusTooManyRequests).JSON(service.NewResponse(nil, constant.ErrTooManyRequests))
		}
		return c.Next()
	}
}
