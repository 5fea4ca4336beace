package types

import "math"

// ScoreSet 是一次评估产出的分数集，各分量取值 [0,1]。
// 一旦由 Evaluator 产出即视为不可变。
type ScoreSet struct {
	Relevance    float64 `json:"relevance"`
	Completeness float64 `json:"completeness"`
	Efficiency   float64 `json:"efficiency"`
	Overall      float64 `json:"overall"`
}

// NewScoreSet 由三个分量构造分数集。
// Overall 为三者算术平均，保留三位小数。
func NewScoreSet(relevance, completeness, efficiency float64) ScoreSet {
	relevance = ClampFloat(relevance, 0, 1)
	completeness = ClampFloat(completeness, 0, 1)
	efficiency = ClampFloat(efficiency, 0, 1)
	overall := math.Round((relevance+completeness+efficiency)/3*1000) / 1000
	return ScoreSet{
		Relevance:    relevance,
		Completeness: completeness,
		Efficiency:   efficiency,
		Overall:      overall,
	}
}

// ClampFloat 将 v 截断到 [min, max]。
func ClampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// ClampInt 将 v 截断到 [min, max]。
func ClampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
