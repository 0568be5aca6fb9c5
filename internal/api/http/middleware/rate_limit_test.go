package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/verso-press/verso-backend/internal/auth"
)

func limitedRouter(rl *RateLimiter, uid string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/posts",
		func(c *gin.Context) {
			if uid != "" {
				c.Set(auth.CtxFirebaseUID, uid)
			}
		},
		rl.Middleware(),
		func(c *gin.Context) { c.Status(http.StatusCreated) },
	)
	return r
}

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 3, CleanupInterval: time.Minute}, zerolog.Nop())
	defer rl.Stop()
	r := limitedRouter(rl, "u1")

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts", nil))
		assert.Equal(t, http.StatusCreated, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimiterIsPerUser(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1, CleanupInterval: time.Minute}, zerolog.Nop())
	defer rl.Stop()

	alice := limitedRouter(rl, "alice")
	bob := limitedRouter(rl, "bob")

	w := httptest.NewRecorder()
	alice.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	// Alice is out of tokens but Bob still has his.
	w = httptest.NewRecorder()
	alice.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = httptest.NewRecorder()
	bob.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, 2, rl.LimiterCount())
}

func TestRateLimiterRejectsAnonymousCaller(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig(), zerolog.Nop())
	defer rl.Stop()
	r := limitedRouter(rl, "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
