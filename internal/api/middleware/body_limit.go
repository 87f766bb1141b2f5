package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Vitalis058/school-sms-backend-sub002/pkg/response"
)

// BodyLimit 请求体大小限制中间件
// 超限的请求在声明了 Content-Length 时直接拒绝，否则在读取时由 MaxBytesReader 截断
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
