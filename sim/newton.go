package sim

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"onedim/maths"
	"onedim/types"
)

func isNonFinite(err error) bool { return errors.Is(err, errNonFinite) }

// weights 按分量计算步长范数权重 rtol*mean|x| + atol
func (s *Session) weights(x []float64, transient bool) {
	for _, d := range s.Domains {
		nc, np := d.NComponents(), d.NPoints()
		for n := range nc {
			rtol, atol := d.Tolerances(n, transient)
			sum := 0.0
			for j := range np {
				sum += math.Abs(x[d.Offset()+j*nc+n])
			}
			w := rtol*sum/float64(np) + atol
			for j := range np {
				s.w[d.Offset()+j*nc+n] = w
			}
		}
	}
}

// norm 加权步长范数
func (s *Session) norm(x, dx []float64, transient bool) float64 {
	s.weights(x, transient)
	return maths.WeightedNorm(dx, s.w)
}

// boundStep 使 x+f*dx 不越过分量上下界的最大 f（不超过 1）
func (s *Session) boundStep(x, dx []float64) float64 {
	f := 1.0
	for _, d := range s.Domains {
		nc := d.NComponents()
		for j := range d.NPoints() {
			for n := range nc {
				i := d.Offset() + j*nc + n
				lower, upper := d.Bounds(n)
				switch v := x[i] + dx[i]; {
				case v > upper:
					f = math.Min(f, (upper-x[i])/dx[i])
				case v < lower:
					f = math.Min(f, (lower-x[i])/dx[i])
				}
			}
		}
	}
	return math.Max(f, 0)
}

// step 牛顿步 dx = -J⁻¹F(x)
func (s *Session) step(x, dx []float64, rdt float64) error {
	if err := s.asm.Eval(x, s.prev, s.r, rdt, -1, true); err != nil {
		return err
	}
	if err := s.lu.SolveReuse(s.r, dx); err != nil {
		return err
	}
	floats.Scale(-1, dx)
	if !maths.IsFinite(dx) {
		return errNonFinite
	}
	return nil
}

// evalJacobian 在 x 处计算并分解雅可比
func (s *Session) evalJacobian(x []float64, rdt float64) error {
	start := time.Now()
	defer func() {
		d := time.Since(start)
		s.stats.Jacobians++
		s.stats.JacobianTime += d
		s.Metrics.ObserveJacobian(d)
	}()
	s.jac.invalidate()
	if err := s.asm.Eval(x, s.prev, s.r, rdt, -1, false); err != nil {
		return err
	}
	if err := s.asm.Jacobian(s.lu, x, s.prev, s.r, rdt, s.FiniteDiffRel, s.FiniteDiffAbs); err != nil {
		return err
	}
	s.jac.reset(rdt)
	return nil
}

// dampStep 阻尼牛顿步
// 从满足上下界的最大步长开始，下一步的无阻尼步长范数减小（或已小于 1）即接受，
// 否则步长除以 DampingFactor，最多 DampingTries 次
func (s *Session) dampStep(x []float64, rdt float64, log zerolog.Logger) (accepted, converged bool) {
	transient := rdt != 0
	if err := s.step(x, s.dx, rdt); err != nil {
		log.Trace().Err(err).Msg("牛顿步计算失败")
		return false, false
	}
	norm0 := s.norm(x, s.dx, transient)
	f := s.boundStep(x, s.dx)
	if f < 1e-10 {
		log.Trace().Float64("bound", f).Msg("牛顿步被上下界阻断")
		return false, false
	}
	for m := range s.DampingTries {
		floats.AddScaledTo(s.x1, x, f, s.dx)
		if err := s.step(s.x1, s.dx1, rdt); err == nil {
			norm1 := s.norm(s.x1, s.dx1, transient)
			log.Trace().Int("try", m).Float64("damping", f).Float64("norm0", norm0).
				Float64("norm1", norm1).Int("age", s.jac.age).Msg("阻尼试探")
			if norm1 < 1 || norm1 < norm0 {
				copy(x, s.x1)
				return true, norm1 < 1
			}
		}
		f /= s.DampingFactor
	}
	return false, false
}

// newton 阻尼牛顿迭代，rdt=0 为稳态
// 返回 false 表示停滞；仅在取消时返回错误
func (s *Session) newton(ctx context.Context, rdt float64, log zerolog.Logger) (bool, error) {
	limit := s.SteadyJacAge
	if rdt != 0 {
		limit = s.TransientJacAge
	}
	x := s.x.Data()
	for iter := 0; iter < s.MaxNewtonIter; iter++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if s.jac.due(limit, rdt) {
			if err := s.evalJacobian(x, rdt); err != nil {
				log.Debug().Err(err).Int("iter", iter).Msg("雅可比计算失败")
				return false, nil
			}
		}
		s.stats.NewtonIterations++
		s.Metrics.ObserveNewton(rdt != 0)
		accepted, converged := s.dampStep(x, rdt, log)
		if !accepted {
			if s.jac.age > 0 {
				// 旧雅可比导致阻尼失败，重新计算后再试
				s.jac.invalidate()
				s.stats.JacobianRetries++
				continue
			}
			log.Debug().Int("iter", iter).Float64("rdt", rdt).Msg("牛顿迭代停滞")
			return false, nil
		}
		s.jac.advance()
		if converged {
			log.Debug().Int("iter", iter+1).Float64("rdt", rdt).Msg("牛顿迭代收敛")
			return true, nil
		}
	}
	log.Debug().Int("max", s.MaxNewtonIter).Msg("牛顿迭代次数用尽")
	return false, nil
}

// errTimeStep 伪时间推进失败（步长低于下限）
var errTimeStep = errors.New("time step below minimum")

// timeStep 进行 nsteps 个伪时间步，返回下一步的步长
func (s *Session) timeStep(ctx context.Context, nsteps int, dt float64, log zerolog.Logger) (float64, error) {
	x := s.x.Data()
	for done := 0; done < nsteps; {
		copy(s.prev, x)
		s.x.Update()
		ok, err := s.newton(ctx, 1/dt, log)
		if err != nil {
			return dt, err
		}
		s.Metrics.ObserveTimeStep(ok)
		if ok {
			done++
			s.time += dt
			s.stats.TimeSteps++
			log.Trace().Int("step", done).Float64("dt", dt).Float64("time", s.time).Msg("时间步完成")
			s.notify(types.StageTimeStep, 0)
			dt = math.Min(dt*s.TimeStepGrowth, s.MaxTimeStep)
			continue
		}
		s.x.Rollback()
		s.stats.FailedTimeSteps++
		dt *= s.TimeStepShrink
		log.Trace().Float64("dt", dt).Msg("时间步失败，缩小步长")
		if dt < s.MinTimeStep {
			return dt, errTimeStep
		}
	}
	return dt, nil
}
