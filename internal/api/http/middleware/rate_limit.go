package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/verso-press/verso-backend/internal/auth"
)

// RateLimiterConfig sets the per-user token bucket for post creation.
type RateLimiterConfig struct {
	Rate            rate.Limit
	Burst           int
	CleanupInterval time.Duration
}

// DefaultRateLimiterConfig allows 10 posts per minute per user.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Rate:            rate.Limit(10.0 / 60.0),
		Burst:           10,
		CleanupInterval: 5 * time.Minute,
	}
}

type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter keeps one token bucket per authenticated user and evicts
// buckets that have gone quiet.
type RateLimiter struct {
	config RateLimiterConfig
	log    zerolog.Logger

	mu       sync.Mutex
	limiters map[string]*userLimiter

	stopCh chan struct{}
}

func NewRateLimiter(config RateLimiterConfig, log zerolog.Logger) *RateLimiter {
	rl := &RateLimiter{
		config:   config,
		log:      log,
		limiters: make(map[string]*userLimiter),
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop ends the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// Middleware limits requests per user. It must run after the auth
// middleware so the user id is in the context.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := auth.UserFirebaseUID(c)
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			return
		}

		if !rl.limiterFor(uid).Allow() {
			retryAfter := int(math.Ceil(1.0 / float64(rl.config.Rate)))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			rl.log.Warn().Str("user_id", uid).Msg("rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, please try again later"})
			return
		}

		c.Next()
	}
}

// LimiterCount reports how many buckets are live. Test and metrics hook.
func (rl *RateLimiter) LimiterCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) limiterFor(uid string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if ul, ok := rl.limiters[uid]; ok {
		ul.lastAccess = time.Now()
		return ul.limiter
	}

	limiter := rate.NewLimiter(rl.config.Rate, rl.config.Burst)
	rl.limiters[uid] = &userLimiter{limiter: limiter, lastAccess: time.Now()}
	return limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	ttl := rl.config.CleanupInterval * 2
	now := time.Now()

	rl.mu.Lock()
	for uid, ul := range rl.limiters {
		if now.Sub(ul.lastAccess) > ttl {
			delete(rl.limiters, uid)
		}
	}
	rl.mu.Unlock()
}
