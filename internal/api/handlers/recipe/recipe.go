package recipe

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"recipe-recommender/internal/api/handlers"
	"recipe-recommender/internal/core/cache"
	"recipe-recommender/internal/core/recommender"
	"recipe-recommender/internal/core/resolver"
	"recipe-recommender/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CacheObserver 接收緩存命中結果
type CacheObserver interface {
	CacheLookup(hit bool)
}

// QueryRequest 以名稱或 id 查詢推薦
type QueryRequest struct {
	Query  string `json:"query" binding:"required"` // 食譜名稱或數字 id
	TopK   *int   `json:"top_k,omitempty"`          // 推薦數量，未填用預設
	Method any    `json:"method,omitempty"`         // 0/1/2 或方法名稱
}

// ResolveResponse 名稱解析結果
type ResolveResponse struct {
	SnapshotID  string                `json:"snapshot_id"`
	Query       string                `json:"query"`
	Found       bool                  `json:"found"`
	ID          *int64                `json:"id,omitempty"`
	Suggestions []resolver.Suggestion `json:"suggestions"`
}

// Handler 食譜推薦處理程序
type Handler struct {
	rec      *recommender.Recommender
	store    cache.Store
	observer CacheObserver
	debug    bool
}

// NewHandler 創建新的食譜推薦處理程序，store 與 observer 可為 nil
func NewHandler(rec *recommender.Recommender, store cache.Store, observer CacheObserver, debug bool) *Handler {
	return &Handler{
		rec:      rec,
		store:    store,
		observer: observer,
		debug:    debug,
	}
}

func (h *Handler) lookup(hit bool) {
	if h.store != nil && h.observer != nil {
		h.observer.CacheLookup(hit)
	}
}

// HandleResolve 名稱解析
func (h *Handler) HandleResolve(c *gin.Context) {
	q := c.Query("q")
	if strings.TrimSpace(q) == "" {
		handlers.RespondError(c, common.ErrInvalidRequest.WithError(fmt.Errorf("query parameter q is required")), h.debug)
		return
	}

	snapID := h.rec.Snapshot().ID
	res := h.rec.Resolve(q)

	resp := ResolveResponse{
		SnapshotID:  snapID,
		Query:       q,
		Found:       res.Found,
		Suggestions: res.Suggestions,
	}
	if res.Found {
		id := res.ID
		resp.ID = &id
	}
	if resp.Suggestions == nil {
		resp.Suggestions = []resolver.Suggestion{}
	}
	c.JSON(http.StatusOK, resp)
}

// HandleRecommendations 依食譜 id 取得推薦清單
func (h *Handler) HandleRecommendations(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	topK, err := handlers.ParseTopK(c.Query("top_k"))
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	method, err := handlers.ParseMethod(c.Query("method"))
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}

	opts := recommender.QueryOptions{TopK: topK, Method: method}
	ctx := c.Request.Context()
	key := h.cacheKey("recommend", h.rec.Snapshot().ID, strconv.FormatInt(id, 10), opts)
	if cached, ok := cache.GetJSON[recommender.Recommendation](ctx, h.store, key); ok {
		h.lookup(true)
		c.JSON(http.StatusOK, cached)
		return
	}
	h.lookup(false)

	result, err := h.rec.Recommend(id, opts)
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	cache.SetJSON(ctx, h.store, h.cacheKey("recommend", result.SnapshotID, strconv.FormatInt(id, 10), opts), result)

	c.JSON(http.StatusOK, result)
}

// HandleRecipe 取得單一食譜
func (h *Handler) HandleRecipe(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	detail, ok := h.rec.Recipe(id)
	if !ok {
		handlers.RespondError(c, common.ErrRecipeNotFound.WithError(fmt.Errorf("recipe %d is not in the graph", id)), h.debug)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// HandleQuery 以名稱或 id 查詢並回傳推薦或候選清單
func (h *Handler) HandleQuery(c *gin.Context) {
	common.LogDebug("開始處理推薦查詢",
		zap.String("request_id", requestid.Get(c)),
		zap.String("client_ip", c.ClientIP()),
	)

	var req QueryRequest
	if err := handlers.BindJSON(c, &req); err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		handlers.RespondError(c, common.ErrInvalidRequest.WithError(fmt.Errorf("query must not be blank")), h.debug)
		return
	}

	var opts recommender.QueryOptions
	if req.TopK != nil {
		topK, err := handlers.CheckTopK(*req.TopK)
		if err != nil {
			handlers.RespondError(c, err, h.debug)
			return
		}
		opts.TopK = topK
	}
	if req.Method != nil {
		method, err := handlers.ParseMethod(fmt.Sprint(req.Method))
		if err != nil {
			handlers.RespondError(c, err, h.debug)
			return
		}
		opts.Method = method
	}

	ctx := c.Request.Context()
	key := h.cacheKey("query", h.rec.Snapshot().ID, req.Query, opts)
	if cached, ok := cache.GetJSON[recommender.QueryResult](ctx, h.store, key); ok {
		h.lookup(true)
		c.JSON(http.StatusOK, cached)
		return
	}
	h.lookup(false)

	result, err := h.rec.Query(req.Query, opts)
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	cache.SetJSON(ctx, h.store, h.cacheKey("query", result.SnapshotID, req.Query, opts), result)

	c.JSON(http.StatusOK, result)
}

// cacheKey scopes a cached response to the snapshot and to the effective
// defaults, since a configure call changes what an empty override means.
func (h *Handler) cacheKey(kind, snapshotID, subject string, opts recommender.QueryOptions) string {
	d := h.rec.Defaults()
	method := "-"
	if opts.Method != nil {
		method = strconv.Itoa(int(*opts.Method))
	}
	return cache.Key(kind, snapshotID,
		subject,
		strconv.Itoa(opts.TopK),
		method,
		strconv.Itoa(d.TopK),
		strconv.Itoa(int(d.Method)),
	)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, common.ErrInvalidRequest.WithError(fmt.Errorf("invalid recipe id %q", raw))
	}
	return id, nil
}
