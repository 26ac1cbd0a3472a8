package maths

import (
	"errors"

	"gonum.org/v1/gonum/interp"
)

// ErrNotIncreasing 坐标不是严格递增
var ErrNotIncreasing = errors.New("coordinates not strictly increasing")

// StrictlyIncreasing 检查序列严格递增
func StrictlyIncreasing(x []float64) bool {
	for i := 1; i < len(x); i++ {
		if !(x[i] > x[i-1]) {
			return false
		}
	}
	return true
}

// Normalize 网格归一化到 [0,1]，单点返回 0
func Normalize(z []float64) []float64 {
	out := make([]float64, len(z))
	if len(z) < 2 {
		return out
	}
	z0, span := z[0], z[len(z)-1]-z[0]
	for i, v := range z {
		out[i] = (v - z0) / span
	}
	out[len(out)-1] = 1
	return out
}

// Linear 分段线性插值器，区间外取端点值
type Linear struct {
	pl   interp.PiecewiseLinear
	flat bool
	v    float64
}

// NewLinear 由节点 (xs, ys) 创建插值器，单节点为常数
func NewLinear(xs, ys []float64) (*Linear, error) {
	switch {
	case len(xs) != len(ys) || len(xs) == 0:
		return nil, errors.New("interpolation table size mismatch")
	case len(xs) == 1:
		return &Linear{flat: true, v: ys[0]}, nil
	case !StrictlyIncreasing(xs):
		return nil, ErrNotIncreasing
	}
	l := new(Linear)
	if err := l.pl.Fit(xs, ys); err != nil {
		return nil, err
	}
	return l, nil
}

// At 插值
func (l *Linear) At(x float64) float64 {
	if l.flat {
		return l.v
	}
	return l.pl.Predict(x)
}

// Regrid 将旧网格上的值插值到新网格（两者都按各自归一化坐标）
func Regrid(zOld, vOld, zNew []float64) ([]float64, error) {
	l, err := NewLinear(Normalize(zOld), vOld)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(zNew))
	for i, s := range Normalize(zNew) {
		out[i] = l.At(s)
	}
	return out, nil
}
