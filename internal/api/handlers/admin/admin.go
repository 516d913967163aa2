package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"recipe-recommender/internal/api/handlers"
	"recipe-recommender/internal/core/cache"
	"recipe-recommender/internal/core/recommender"
	"recipe-recommender/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ConfigureRequest 更新查詢預設值
type ConfigureRequest struct {
	TopK   *int `json:"top_k"`
	Method any  `json:"method"`
}

// ReloadResponse 重新載入請求的結果
type ReloadResponse struct {
	Status     string                   `json:"status"`
	Coalesced  bool                     `json:"coalesced"`
	SnapshotID string                   `json:"snapshot_id,omitempty"`
	Duration   string                   `json:"duration,omitempty"`
	Reloader   recommender.ReloadStatus `json:"reloader"`
}

// StatsResponse 服務統計
type StatsResponse struct {
	recommender.Stats
	Cache    *cache.Stats              `json:"cache,omitempty"`
	Reloader *recommender.ReloadStatus `json:"reloader,omitempty"`
}

// Handler 管理端點處理程序
type Handler struct {
	rec      *recommender.Recommender
	reloader *recommender.Reloader
	store    cache.Store
	debug    bool
}

// NewHandler 創建管理處理程序，reloader 與 store 可為 nil
func NewHandler(rec *recommender.Recommender, reloader *recommender.Reloader, store cache.Store, debug bool) *Handler {
	return &Handler{
		rec:      rec,
		reloader: reloader,
		store:    store,
		debug:    debug,
	}
}

// HandleStats 回傳快照、緩存與重新載入統計
func (h *Handler) HandleStats(c *gin.Context) {
	resp := StatsResponse{Stats: h.rec.Stats()}
	if h.store != nil {
		s := h.store.Stats()
		resp.Cache = &s
	}
	if h.reloader != nil {
		s := h.reloader.Status()
		resp.Reloader = &s
	}
	c.JSON(http.StatusOK, resp)
}

// HandleReload queues a corpus reload. With wait=true the response carries
// the outcome; otherwise it returns 202 as soon as the reload is queued.
func (h *Handler) HandleReload(c *gin.Context) {
	if h.reloader == nil {
		handlers.RespondError(c, common.ErrServiceUnavailable.WithError(errors.New("reload is not available")), h.debug)
		return
	}

	wait, _ := strconv.ParseBool(c.DefaultQuery("wait", "false"))

	ticket, coalesced, err := h.reloader.Enqueue()
	if err != nil {
		handlers.RespondError(c, common.ErrServiceUnavailable.WithError(err), h.debug)
		return
	}

	common.LogInfo("Reload requested",
		zap.String("request_id", requestid.Get(c)),
		zap.Bool("coalesced", coalesced),
		zap.Bool("wait", wait),
	)

	if !wait {
		c.JSON(http.StatusAccepted, ReloadResponse{
			Status:    "queued",
			Coalesced: coalesced,
			Reloader:  h.reloader.Status(),
		})
		return
	}

	res, err := ticket.Wait(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, common.ErrGatewayTimeout.WithError(err), h.debug)
		return
	}
	if res.Err != nil {
		handlers.RespondError(c, res.Err, h.debug)
		return
	}

	c.JSON(http.StatusOK, ReloadResponse{
		Status:     "reloaded",
		Coalesced:  coalesced,
		SnapshotID: res.SnapshotID,
		Duration:   res.Duration.String(),
		Reloader:   h.reloader.Status(),
	})
}

// HandleConfigure 更新預設 top_k 與計算方式，未填的欄位保持不變
func (h *Handler) HandleConfigure(c *gin.Context) {
	var req ConfigureRequest
	if err := handlers.BindJSON(c, &req); err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}

	d := h.rec.Defaults()
	if req.TopK != nil {
		d.TopK = *req.TopK
	}
	if req.Method != nil {
		m, err := handlers.ParseMethod(fmt.Sprint(req.Method))
		if err != nil {
			handlers.RespondError(c, err, h.debug)
			return
		}
		if m != nil {
			d.Method = *m
		}
	}

	if err := h.rec.Configure(d.TopK, d.Method); err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}

	common.LogInfo("Defaults updated",
		zap.String("request_id", requestid.Get(c)),
		zap.Int("top_k", d.TopK),
		zap.String("method", d.Method.String()),
	)
	c.JSON(http.StatusOK, h.rec.Defaults())
}
