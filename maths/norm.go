package maths

import "math"

// WeightedNorm 加权均方根范数 sqrt(mean((v/w)^2))
func WeightedNorm(v, w []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for i, x := range v {
		r := x / w[i]
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(v)))
}

// IsFinite 检查全部元素有限
func IsFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
