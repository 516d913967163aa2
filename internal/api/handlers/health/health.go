package health

import (
	"net/http"
	"runtime"
	"time"

	"recipe-recommender/internal/core/recommender"
	"recipe-recommender/internal/infrastructure/config"
	"recipe-recommender/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                    `json:"status"`
	Timestamp time.Time                 `json:"timestamp"`
	Version   string                    `json:"version"`
	Runtime   map[string]interface{}    `json:"runtime"`
	Snapshot  *SnapshotStatus           `json:"snapshot,omitempty"`
	Reloader  *recommender.ReloadStatus `json:"reloader,omitempty"`
}

// SnapshotStatus 目前快照狀態
type SnapshotStatus struct {
	ID      string    `json:"id"`
	BuiltAt time.Time `json:"built_at"`
	Nodes   int       `json:"nodes"`
	Edges   int       `json:"edges"`
}

// Handler 健康檢查處理程序
type Handler struct {
	cfg      *config.Config
	rec      *recommender.Recommender
	reloader *recommender.Reloader
}

// NewHandler 創建健康檢查處理程序，rec 與 reloader 可為 nil
func NewHandler(cfg *config.Config, rec *recommender.Recommender, reloader *recommender.Reloader) *Handler {
	return &Handler{cfg: cfg, rec: rec, reloader: reloader}
}

func (h *Handler) snapshot() *SnapshotStatus {
	if h.rec == nil {
		return nil
	}
	snap := h.rec.Snapshot()
	if snap == nil {
		return nil
	}
	g := snap.Graph()
	return &SnapshotStatus{
		ID:      snap.ID,
		BuiltAt: snap.BuiltAt,
		Nodes:   g.NodeCount(),
		Edges:   g.EdgeCount(),
	}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	// 構建響應
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.cfg.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Snapshot: h.snapshot(),
	}
	if h.reloader != nil {
		s := h.reloader.Status()
		response.Reloader = &s
	}

	// 記錄請求
	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器，快照建好才算就緒
func (h *Handler) ReadinessCheck(c *gin.Context) {
	snap := h.snapshot()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"code":   common.ErrSnapshotNotReady.Code,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"snapshot": snap.ID,
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
