package common

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestPayloadRoundTrip(t *testing.T) {
	type entry struct {
		ID    int64   `json:"id"`
		Score float64 `json:"score"`
	}
	data, err := EncodePayload([]entry{{ID: 2, Score: 0.5}})
	require.NoError(t, err)

	var out []entry
	require.NoError(t, DecodePayload(data, &out))
	assert.Equal(t, []entry{{ID: 2, Score: 0.5}}, out)
}

func TestDecodePayloadRejectsTrailingData(t *testing.T) {
	var out map[string]any
	assert.Error(t, DecodePayload([]byte(`{"a":1} {"b":2}`), &out))
	assert.Error(t, DecodePayload([]byte(`{"a":`), &out))
}

func TestShortID(t *testing.T) {
	id := NewSnapshotID()
	assert.Len(t, id, 36)
	assert.Len(t, ShortID(id), 8)
	assert.NotContains(t, ShortID(id), "-")
	assert.Equal(t, "abc", ShortID("abc"))
}

func TestCustomErrorMatchesByCode(t *testing.T) {
	cause := errors.New("boom")
	err := ErrRecipeNotFound.WithError(cause)

	assert.ErrorIs(t, err, ErrRecipeNotFound)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, http.StatusNotFound, AsCustomError(err).Status)

	resp := err.Response(true)
	assert.Equal(t, "RECIPE_NOT_FOUND", resp.Code)
	assert.Equal(t, "boom", resp.Details)
	assert.Empty(t, err.Response(false).Details)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(" WARNING "))
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestFileLogIsPlainJSON(t *testing.T) {
	t.Cleanup(func() { Logger = zap.NewNop() })
	dir := t.TempDir()
	require.NoError(t, InitLoggerWithDir("info", dir))

	LogWarn("snapshot build slow", zap.Int("nodes", 3))
	LogDebug("filtered out")
	Sync()

	data, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"level":"warn"`)
	assert.Contains(t, string(data), `"nodes":3`)
	assert.NotContains(t, string(data), "filtered out")
	assert.NotContains(t, string(data), "\033")
	assert.NotContains(t, string(data), "\u001b")
}
