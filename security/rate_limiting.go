package security

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// UserIDKey is the request store key the auth middleware sets for signed-in
// requests.
const UserIDKey = "user_id"

// Limiter decides whether one more request for key fits in the budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter counts requests per fixed window with INCR/EXPIRE, so the
// budget is shared between instances.
type RedisLimiter struct {
	redis  *redis.Client
	limit  int64
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, perMinute int) *RedisLimiter {
	return &RedisLimiter{redis: client, limit: int64(perMinute), window: time.Minute}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := l.redis.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= l.limit, nil
}

// LocalLimiter is a per-key token bucket kept in process memory.
type LocalLimiter struct {
	every time.Duration
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewLocalLimiter(perMinute int) *LocalLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &LocalLimiter{
		every:    time.Minute / time.Duration(perMinute),
		burst:    perMinute,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(l.every), l.burst)
		l.limiters[key] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow(), nil
}

type RateLimiter struct {
	limiter Limiter
}

func NewRateLimiter(limiter Limiter) *RateLimiter {
	return &RateLimiter{limiter: limiter}
}

// RateLimit limits by user id for signed-in requests and by client IP
// otherwise. Limiter errors let the request through.
func (r *RateLimiter) RateLimit(e *core.RequestEvent) error {
	key := e.RemoteIP()
	if userID, ok := e.Get(UserIDKey).(string); ok && userID != "" {
		key = "user:" + userID
	}

	allowed, err := r.limiter.Allow(e.Request.Context(), key)
	if err != nil {
		slog.Warn("Rate limiter unavailable", "error", err, "key", key)
		return e.Next()
	}
	if !allowed {
		return apis.NewTooManyRequestsError("Rate limit exceeded. Please try again later.", nil)
	}
	return e.Next()
}

// AntiBot rejects clients that identify as crawlers.
func (r *RateLimiter) AntiBot(e *core.RequestEvent) error {
	if isSuspiciousUserAgent(e.Request.Header.Get("User-Agent")) {
		return apis.NewForbiddenError("Access denied", nil)
	}
	return e.Next()
}

func isSuspiciousUserAgent(ua string) bool {
	ua = strings.ToLower(ua)
	for _, pattern := range []string{"bot", "crawler", "spider", "scraper"} {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}
