package corpus

import (
	"math"
)

// Rating 單一食譜的評分摘要
type Rating struct {
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// RatingTable maps recipe ids to their rating summary. Absence means the
// rating is unknown, never zero.
type RatingTable struct {
	entries map[int64]Rating
}

// Get 取得評分，無評分時 ok 為 false
func (t *RatingTable) Get(id int64) (Rating, bool) {
	if t == nil {
		return Rating{}, false
	}
	r, ok := t.entries[id]
	return r, ok
}

// Len 有評分的食譜數
func (t *RatingTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// MeanOfMeans 所有已評分食譜平均分數的平均，無資料時回傳 0 與 false
func (t *RatingTable) MeanOfMeans() (float64, bool) {
	if t.Len() == 0 {
		return 0, false
	}
	var sum float64
	for _, r := range t.entries {
		sum += r.Mean
	}
	return sum / float64(len(t.entries)), true
}

// RatingAggregator 將評分事件彙總為 RatingTable
type RatingAggregator struct {
	keep    func(int64) bool
	sums    map[int64]float64
	counts  map[int64]int
	skipped int
}

// NewRatingAggregator 建立彙總器；keep 為 nil 時接受所有食譜
func NewRatingAggregator(keep func(id int64) bool) *RatingAggregator {
	return &RatingAggregator{
		keep:   keep,
		sums:   make(map[int64]float64),
		counts: make(map[int64]int),
	}
}

// Add 加入一筆評分事件，被過濾或數值無效時回傳 false
func (a *RatingAggregator) Add(ev RatingEvent) bool {
	if math.IsNaN(ev.Rating) || math.IsInf(ev.Rating, 0) {
		a.skipped++
		return false
	}
	if a.keep != nil && !a.keep(ev.RecipeID) {
		a.skipped++
		return false
	}
	a.sums[ev.RecipeID] += ev.Rating
	a.counts[ev.RecipeID]++
	return true
}

// Skipped 被略過的事件數
func (a *RatingAggregator) Skipped() int {
	return a.skipped
}

// Table 產生評分表
func (a *RatingAggregator) Table() *RatingTable {
	entries := make(map[int64]Rating, len(a.counts))
	for id, n := range a.counts {
		entries[id] = Rating{Mean: a.sums[id] / float64(n), Count: n}
	}
	return &RatingTable{entries: entries}
}

// AggregateRatings 一次彙總所有評分事件
func AggregateRatings(events []RatingEvent, keep func(id int64) bool) *RatingTable {
	agg := NewRatingAggregator(keep)
	for _, ev := range events {
		agg.Add(ev)
	}
	return agg.Table()
}
