package middleware

import (
	"fmt"
	"net/http"

	"recipe-recommender/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BodySizeLimit caps request bodies at limit bytes. A declared length over
// the limit is rejected up front; chunked bodies fail while being read.
func BodySizeLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			err := common.ErrRequestTooLarge.WithError(
				fmt.Errorf("content length %d exceeds %d bytes", c.Request.ContentLength, limit))
			common.LogWarn("Request body rejected",
				zap.Int64("limit", limit),
				zap.String("route", c.FullPath()),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, err.Response(true))
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
