package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"recipe-recommender/internal/core/similarity"
	"recipe-recommender/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RespondError 將錯誤轉為統一的 JSON 錯誤響應
func RespondError(c *gin.Context, err error, debug bool) {
	ce := common.AsCustomError(err)
	fields := []zap.Field{
		zap.String("code", ce.Code),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestid.Get(c)),
		zap.Error(err),
	}
	if ce.Status >= 500 {
		common.LogError("Request failed", fields...)
	} else {
		common.LogDebug("Request rejected", fields...)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(ce.Status, ce.Response(debug))
}

// ParseTopK parses an optional top_k value. Empty means "use the default"
// and yields 0; anything else must be a positive integer.
func ParseTopK(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, common.ErrInvalidTopK.WithError(err)
	}
	return CheckTopK(n)
}

// CheckTopK 驗證明確指定的 top_k
func CheckTopK(n int) (int, error) {
	if n <= 0 {
		return 0, common.ErrInvalidTopK.WithError(strconv.ErrRange)
	}
	return n, nil
}

// ParseMethod parses an optional scoring method given by number or name.
// Empty yields nil.
func ParseMethod(raw string) (*similarity.Method, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	m, err := similarity.ParseMethod(raw)
	if err != nil {
		return nil, common.ErrInvalidMethod.WithError(err)
	}
	return &m, nil
}

// BindJSON 解析請求體，超過大小限制時回傳 413
func BindJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return common.ErrRequestTooLarge.WithError(err)
		}
		return common.ErrInvalidRequest.WithError(err)
	}
	return nil
}
