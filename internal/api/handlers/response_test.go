package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"recipe-recommender/internal/core/similarity"
	"recipe-recommender/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestParseTopK(t *testing.T) {
	n, err := ParseTopK("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = ParseTopK(" 7 ")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	for _, raw := range []string{"0", "-1", "ten"} {
		_, err = ParseTopK(raw)
		assert.ErrorIs(t, err, common.ErrInvalidTopK, raw)
	}
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("")
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = ParseMethod("1")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, similarity.NormalizedOverlap, *m)

	_, err = ParseMethod("5")
	assert.ErrorIs(t, err, common.ErrInvalidMethod)
}

type payload struct {
	Query string `json:"query" binding:"required"`
}

func bindRouter(limit int64) *gin.Engine {
	r := gin.New()
	r.POST("/bind", func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		var p payload
		if err := BindJSON(c, &p); err != nil {
			RespondError(c, err, false)
			return
		}
		c.JSON(http.StatusOK, p)
	})
	return r
}

func TestBindJSON(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"ok", `{"query":"p1"}`, http.StatusOK, ""},
		{"missing field", `{}`, http.StatusBadRequest, common.ErrInvalidRequest.Code},
		{"too large", `{"query":"` + strings.Repeat("x", 200) + `"}`, http.StatusRequestEntityTooLarge, common.ErrRequestTooLarge.Code},
	}
	r := bindRouter(64)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.code != "" {
				assert.Contains(t, w.Body.String(), tc.code)
			}
		})
	}
}
