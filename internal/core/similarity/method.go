package similarity

import (
	"fmt"
	"strconv"
	"strings"
)

// Method selects one of the closed set of scoring formulas.
type Method int

const (
	// RawOverlap scores by the absolute shared-ingredient count.
	RawOverlap Method = iota
	// NormalizedOverlap divides the shared count by the neighbor's ingredient count.
	NormalizedOverlap
	// NormalizedOverlapRating adds the neighbor's mean rating / 5 to NormalizedOverlap.
	NormalizedOverlapRating
)

// DefaultMethod 預設評分方式
const DefaultMethod = NormalizedOverlap

// MaxRating 評分上限
const MaxRating = 5.0

var methodNames = [...]string{"raw", "normalized", "normalized+rating"}

// Valid 是否為已知的評分方式
func (m Method) Valid() bool {
	return m >= RawOverlap && m <= NormalizedOverlapRating
}

func (m Method) String() string {
	if !m.Valid() {
		return "method(" + strconv.Itoa(int(m)) + ")"
	}
	return methodNames[m]
}

// ParseMethod accepts the numeric tag ("0".."2") or the method name.
func ParseMethod(s string) (Method, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		m := Method(n)
		if !m.Valid() {
			return 0, fmt.Errorf("scoring method %d out of range [0,2]", n)
		}
		return m, nil
	}
	for i, name := range methodNames {
		if s == name {
			return Method(i), nil
		}
	}
	return 0, fmt.Errorf("unknown scoring method %q", s)
}

// Inputs 計算分數所需的數值
type Inputs struct {
	Weight              int
	NeighborIngredients int
	Rating              float64
	Rated               bool
}

type scoreFunc func(in Inputs) float64

var scorers = [...]scoreFunc{
	RawOverlap: func(in Inputs) float64 {
		return float64(in.Weight)
	},
	NormalizedOverlap: normalized,
	NormalizedOverlapRating: func(in Inputs) float64 {
		s := normalized(in)
		if in.Rated {
			s += in.Rating / MaxRating
		}
		return s
	},
}

func normalized(in Inputs) float64 {
	if in.NeighborIngredients == 0 {
		return 0
	}
	return float64(in.Weight) / float64(in.NeighborIngredients)
}

// Score applies the method's formula. An unrated neighbor contributes 0 to
// the rating term. Unknown methods score 0.
func (m Method) Score(in Inputs) float64 {
	if !m.Valid() {
		return 0
	}
	return scorers[m](in)
}
