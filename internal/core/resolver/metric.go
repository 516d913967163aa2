package resolver

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Metric 字串相似度，回傳值介於 0 與 1 之間，1 表示相同
type Metric interface {
	Name() string
	Similarity(a, b string) float64
}

// Metric names accepted by MetricByName.
const (
	MetricLevenshtein = "levenshtein"
	MetricJaroWinkler = "jaro-winkler"
	MetricBigram      = "bigram"
)

// MetricByName 依名稱取得 Metric
func MetricByName(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case MetricLevenshtein, "":
		return Levenshtein{}, nil
	case MetricJaroWinkler:
		return JaroWinkler{}, nil
	case MetricBigram:
		return Bigram{}, nil
	default:
		return nil, fmt.Errorf("unknown similarity metric %q", name)
	}
}

// Levenshtein normalizes edit distance by the longer string's rune length.
type Levenshtein struct{}

func (Levenshtein) Name() string { return MetricLevenshtein }

func (Levenshtein) Similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

// JaroWinkler Jaro 相似度加上共同前綴加權（最多 4 個字元，係數 0.1）
type JaroWinkler struct{}

func (JaroWinkler) Name() string { return MetricJaroWinkler }

func (JaroWinkler) Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	window := max(len(ra), len(rb))/2 - 1
	if window < 0 {
		window = 0
	}
	matchedA := make([]bool, len(ra))
	matchedB := make([]bool, len(rb))

	matches := 0
	for i := range ra {
		lo := max(0, i-window)
		hi := min(len(rb), i+window+1)
		for j := lo; j < hi; j++ {
			if matchedB[j] || ra[i] != rb[j] {
				continue
			}
			matchedA[i] = true
			matchedB[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	transpositions := 0
	j := 0
	for i := range ra {
		if !matchedA[i] {
			continue
		}
		for !matchedB[j] {
			j++
		}
		if ra[i] != rb[j] {
			transpositions++
		}
		j++
	}

	m := float64(matches)
	jaro := (m/float64(len(ra)) + m/float64(len(rb)) + (m-float64(transpositions/2))/m) / 3

	prefix := 0
	for prefix < min(4, len(ra), len(rb)) && ra[prefix] == rb[prefix] {
		prefix++
	}
	return jaro + float64(prefix)*0.1*(1-jaro)
}

// Bigram 以字元 bigram 計算 Dice 係數
type Bigram struct{}

func (Bigram) Name() string { return MetricBigram }

func (Bigram) Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ga, gb := bigrams(a), bigrams(b)
	if len(ga) == 0 || len(gb) == 0 {
		return 0
	}

	counts := make(map[[2]rune]int, len(ga))
	for _, g := range ga {
		counts[g]++
	}
	shared := 0
	for _, g := range gb {
		if counts[g] > 0 {
			counts[g]--
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(ga)+len(gb))
}

func bigrams(s string) [][2]rune {
	r := []rune(s)
	if len(r) < 2 {
		return nil
	}
	out := make([][2]rune, 0, len(r)-1)
	for i := 0; i+1 < len(r); i++ {
		out = append(out, [2]rune{r[i], r[i+1]})
	}
	return out
}
