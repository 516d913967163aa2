package recommender

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"recipe-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrReloaderClosed 重新載入佇列已關閉
var ErrReloaderClosed = errors.New("reload queue is closed")

// ReloadResult 重新載入結果
type ReloadResult struct {
	SnapshotID string        `json:"snapshot_id,omitempty"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
}

// ReloadTicket is shared by every caller whose request was coalesced into
// the same pending reload.
type ReloadTicket struct {
	done   chan struct{}
	result ReloadResult
}

// Done 重新載入完成時關閉
func (t *ReloadTicket) Done() <-chan struct{} {
	return t.done
}

// Wait 等待重新載入完成
func (t *ReloadTicket) Wait(ctx context.Context) (ReloadResult, error) {
	select {
	case <-t.done:
		return t.result, t.result.Err
	case <-ctx.Done():
		return ReloadResult{}, ctx.Err()
	}
}

func (t *ReloadTicket) finish(res ReloadResult) {
	t.result = res
	close(t.done)
}

// ReloadStatus 重新載入佇列狀態
type ReloadStatus struct {
	Pending   bool   `json:"pending"`
	Running   bool   `json:"running"`
	Processed int64  `json:"processed"`
	Failed    int64  `json:"failed"`
	LastError string `json:"last_error,omitempty"`
}

// Reloader runs reloads one at a time on a single worker. At most one
// request waits behind the running reload; further requests join it.
type Reloader struct {
	rec     *Recommender
	queue   chan *ReloadTicket
	done    chan struct{}
	wg      sync.WaitGroup
	timeout time.Duration

	mu        sync.Mutex
	pending   *ReloadTicket
	closed    bool
	lastError string

	running   atomic.Bool
	processed atomic.Int64
	failed    atomic.Int64
}

// NewReloader 建立重新載入佇列並啟動背景 worker；timeout 為 0 時不設上限
func NewReloader(rec *Recommender, timeout time.Duration) *Reloader {
	rl := &Reloader{
		rec:     rec,
		queue:   make(chan *ReloadTicket, 1),
		done:    make(chan struct{}),
		timeout: timeout,
	}
	rl.wg.Add(1)
	go rl.worker()
	return rl
}

// Enqueue requests a reload. coalesced is true when the request joined one
// that was already waiting.
func (rl *Reloader) Enqueue() (ticket *ReloadTicket, coalesced bool, err error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.closed {
		return nil, false, ErrReloaderClosed
	}
	if rl.pending != nil {
		common.LogInfo("Reload request coalesced into pending reload")
		return rl.pending, true, nil
	}

	t := &ReloadTicket{done: make(chan struct{})}
	rl.pending = t
	rl.queue <- t
	common.LogInfo("Reload request enqueued", zap.Bool("reload_running", rl.running.Load()))
	return t, false, nil
}

// Trigger 不等待結果的重新載入
func (rl *Reloader) Trigger() {
	if _, _, err := rl.Enqueue(); err != nil {
		common.LogWarn("Reload request dropped", zap.Error(err))
	}
}

func (rl *Reloader) worker() {
	defer rl.wg.Done()
	for {
		select {
		case t := <-rl.queue:
			rl.mu.Lock()
			rl.pending = nil
			rl.mu.Unlock()
			rl.run(t)
		case <-rl.done:
			return
		}
	}
}

func (rl *Reloader) run(t *ReloadTicket) {
	rl.running.Store(true)
	defer rl.running.Store(false)

	ctx := context.Background()
	if rl.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rl.timeout)
		defer cancel()
	}

	start := time.Now()
	snap, err := rl.rec.Reload(ctx)
	res := ReloadResult{Duration: time.Since(start), Err: err}
	rl.processed.Add(1)

	rl.mu.Lock()
	if err != nil {
		rl.failed.Add(1)
		rl.lastError = err.Error()
	} else {
		res.SnapshotID = snap.ID
		rl.lastError = ""
	}
	rl.mu.Unlock()

	t.finish(res)
}

// Status 佇列狀態
func (rl *Reloader) Status() ReloadStatus {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return ReloadStatus{
		Pending:   rl.pending != nil,
		Running:   rl.running.Load(),
		Processed: rl.processed.Load(),
		Failed:    rl.failed.Load(),
		LastError: rl.lastError,
	}
}

// Close stops the worker after the running reload finishes. A request still
// waiting is answered with ErrReloaderClosed.
func (rl *Reloader) Close() {
	rl.mu.Lock()
	if rl.closed {
		rl.mu.Unlock()
		return
	}
	rl.closed = true
	rl.mu.Unlock()

	close(rl.done)
	rl.wg.Wait()

	select {
	case t := <-rl.queue:
		t.finish(ReloadResult{Err: ErrReloaderClosed})
	default:
	}
}
