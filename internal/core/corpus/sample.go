package corpus

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// Sampling 語料抽樣方式
type Sampling string

const (
	// SampleRandom 以固定種子隨機抽取子集，結果可重現
	SampleRandom Sampling = "random"
	// SampleFirst 依來源順序取前 N 筆
	SampleFirst Sampling = "first"
)

// ParseSampling 解析抽樣方式
func ParseSampling(s string) (Sampling, error) {
	switch Sampling(s) {
	case SampleRandom, SampleFirst:
		return Sampling(s), nil
	}
	return "", fmt.Errorf("unknown sampling mode %q", s)
}

// Sample limits rows to at most limit entries. A non-positive limit keeps
// every row. Random sampling draws a seeded subset and returns it in source
// order, so the same seed and input always give the same corpus.
func Sample(rows []RecipeRow, limit int, mode Sampling, seed uint64) []RecipeRow {
	if limit <= 0 || limit >= len(rows) {
		return rows
	}

	if mode == SampleFirst {
		return rows[:limit]
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	// partial Fisher-Yates: the first limit slots are the sample
	for i := 0; i < limit; i++ {
		j := i + rng.IntN(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	picked := idx[:limit]
	slices.Sort(picked)

	out := make([]RecipeRow, 0, limit)
	for _, i := range picked {
		out = append(out, rows[i])
	}
	return out
}
