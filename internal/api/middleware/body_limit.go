package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyLimit 请求体大小限制中间件
// maxBytes: 默认最大请求体字节数；overrides 按路由模板（c.FullPath()）单独放宽，
// 超限时读取请求体返回 *http.MaxBytesError，由 Handler 统一转换为 413
func BodyLimit(maxBytes int64, overrides map[string]int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			limit := maxBytes
			if v, ok := overrides[c.FullPath()]; ok {
				limit = v
			}
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
