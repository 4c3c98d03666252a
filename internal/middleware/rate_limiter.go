package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== CooldownLimiter 冷却限流器 ====================

// CooldownLimiter 按 key 的冷却限流器
// 防止用户连续点击提交
type CooldownLimiter struct {
	locks sync.Map // key -> *lockEntry
	now   func() time.Time
}

// lockEntry 锁条目
type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// NewCooldownLimiter 创建限流器
func NewCooldownLimiter() *CooldownLimiter {
	return &CooldownLimiter{now: time.Now}
}

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查是否允许执行，允许时记录本次时间
func (r *CooldownLimiter) Check(key string, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := r.now()
	elapsed := now.Sub(entry.lastTime)
	if elapsed < interval {
		return CheckResult{
			Allowed:    false,
			RetryAfter: interval - elapsed,
		}
	}

	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Reset 重置指定 key 的限流
func (r *CooldownLimiter) Reset(key string) {
	r.locks.Delete(key)
}

// Prune 清理冷却已结束的 key，返回清理数量
func (r *CooldownLimiter) Prune(interval time.Duration) int {
	now := r.now()
	removed := 0
	r.locks.Range(func(k, v any) bool {
		entry := v.(*lockEntry)
		entry.mu.Lock()
		expired := now.Sub(entry.lastTime) >= interval
		entry.mu.Unlock()
		if expired && r.locks.CompareAndDelete(k, entry) {
			removed++
		}
		return true
	})
	return removed
}

// SubmitKey 生成提交限流 key：用户 + 表单会话
func SubmitKey(userID, sessionID string) string {
	return fmt.Sprintf("submit:%s:%s", userID, sessionID)
}

// ==================== 提交冷却中间件 ====================

// SubmitCooldown 提交冷却中间件，需挂在 SessionAuth 之后
func SubmitCooldown(limiter *CooldownLimiter, interval time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := SubmitKey(GetUserID(c), c.Param("session_id"))

		result := limiter.Check(key, interval)
		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": fmt.Sprintf("提交过于频繁，请 %d 秒后重试", retryAfter),
				"data": gin.H{
					"retry_after": retryAfter,
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
