package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPObserver 接收每個請求的結果
type HTTPObserver interface {
	ObserveHTTP(route, method string, status int, d time.Duration)
}

// Metrics 以路由樣板記錄請求數與延遲
func Metrics(obs HTTPObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		obs.ObserveHTTP(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
