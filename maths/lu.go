package maths

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular 矩阵奇异
var ErrSingular = errors.New("matrix is singular or nearly singular")

// luDense 稠密矩阵LU分解器（A=PLU，带部分主元，基于 gonum）
// 分解结果在下次 Decompose 之前一直有效，可供多次迭代复用
type luDense struct {
	n     int
	a     *mat.Dense // 待分解矩阵
	lu    mat.LU     // 分解结果
	b, x  *mat.VecDense
	valid bool // 分解结果是否有效
}

// NewLU 创建维度为 n 的LU分解器
func NewLU(n int) (Solver, error) {
	if n < 1 {
		return nil, errors.New("lu dimension must be positive")
	}
	l := &luDense{}
	l.Resize(n)
	return l, nil
}

// Resize 重置维度，矩阵清零且分解失效
func (l *luDense) Resize(n int) {
	l.n = n
	l.a = mat.NewDense(n, n, nil)
	l.b = mat.NewVecDense(n, nil)
	l.x = mat.NewVecDense(n, nil)
	l.valid = false
}

// Zero 矩阵清零（不影响已有分解结果）
func (l *luDense) Zero() { l.a.Zero() }

func (l *luDense) Set(row, col int, value float64) { l.a.Set(row, col, value) }
func (l *luDense) Get(row, col int) float64        { return l.a.At(row, col) }

// Decompose 分解当前矩阵
func (l *luDense) Decompose() error {
	l.valid = false
	for i := 0; i < l.n; i++ {
		for j := 0; j < l.n; j++ {
			if v := l.a.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("矩阵元素(%d,%d)无效: %v", i, j, v)
			}
		}
	}
	l.lu.Factorize(l.a)
	// 零主元或条件数无穷视为奇异
	if logDet, _ := l.lu.LogDet(); math.IsInf(logDet, -1) || math.IsInf(l.lu.Cond(), 1) {
		return ErrSingular
	}
	l.valid = true
	return nil
}

// SolveReuse 利用已有分解求解 Ax=b
func (l *luDense) SolveReuse(b, x []float64) error {
	if len(b) != l.n || len(x) != l.n {
		return errors.New("vector dimension mismatch")
	}
	if !l.valid {
		return errors.New("lu not decomposed")
	}
	copy(l.b.RawVector().Data, b)
	if err := l.lu.SolveVecTo(l.x, false, l.b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return fmt.Errorf("%w: %v", ErrSingular, err)
		}
		// 病态但可解，结果仍可用
	}
	copy(x, l.x.RawVector().Data)
	return nil
}
