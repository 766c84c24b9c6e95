package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"homesync/pkg/redis"
	"homesync/pkg/response"
)

// RateLimit 基于 Redis 滑动窗口的速率限制中间件
// scope: 限流维度（接口名），按当前成员计数，未认证时按客户端 IP 计数
// limit: 窗口内允许的最大请求数
// window: 滑动窗口时长
// rdb 为 nil 时降级放行（与 JWTAuth 策略一致）
func RateLimit(rdb *redis.Client, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		subject := "ip:" + c.ClientIP()
		if v, ok := c.Get(CtxMemberID); ok {
			if memberID, ok := v.(int64); ok {
				subject = "member:" + strconv.FormatInt(memberID, 10)
			}
		}
		key := redis.RateLimitKey(scope, subject)

		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			// Redis 出错时降级放行
			c.Next()
			return
		}

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			response.Error(c, http.StatusTooManyRequests, 10004, "请求过于频繁，请稍后再试")
			return
		}

		c.Next()
	}
}
