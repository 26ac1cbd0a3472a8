package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"onedim/types"
)

// Solve 牛顿/伪时间推进交替求解，refine 为 true 时在收敛后细化网格并重新求解
func (s *Session) Solve(ctx context.Context, refine bool) error {
	id := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, "solve", trace.WithAttributes(
		attribute.String("solve.id", id),
		attribute.Bool("solve.refine", refine),
		attribute.Int("solve.unknowns", s.asm.Size()),
	))
	defer span.End()
	log := s.log.With().Str("solve", id).Logger()
	start := time.Now()
	s.stats.Solves++
	err := s.solve(ctx, refine, log)
	// 之后的瞬态残差以求解结束时的解为上一时间步
	s.Commit()
	s.Metrics.ObserveSolve(err == nil, time.Since(start))
	span.SetAttributes(
		attribute.Int("solve.newton_iterations", s.stats.NewtonIterations),
		attribute.Int("solve.jacobians", s.stats.Jacobians),
		attribute.Int("solve.points", s.asm.Points()),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Info().Err(err).Dur("elapsed", time.Since(start)).Msg("求解失败")
		return err
	}
	span.SetStatus(codes.Ok, "")
	log.Info().Dur("elapsed", time.Since(start)).Int("newton", s.stats.NewtonIterations).
		Int("jacobians", s.stats.Jacobians).Int("timesteps", s.stats.TimeSteps).Msg("求解完成")
	return nil
}

func (s *Session) solve(ctx context.Context, refine bool, log zerolog.Logger) error {
	const op = "solve"
	s.x.Update()
	copy(s.prev, s.x.Data())
	for cycle := 0; ; cycle++ {
		dt, istep := s.TimeStep, 0
		for alt := 0; ; alt++ {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%s cancelled: %w", op, err)
			}
			ok, err := s.newton(ctx, 0, log)
			if err != nil {
				return fmt.Errorf("%s cancelled: %w", op, err)
			}
			if ok {
				s.x.Update()
				s.notify(types.StageSteady, 0)
				break
			}
			s.x.Rollback()
			if alt >= s.MaxAlternations {
				return types.Errorf(op, types.ErrSolveFailed, "no convergence after %d newton/time-step alternations", alt)
			}
			n := s.Steps[istep]
			if istep < len(s.Steps)-1 {
				istep++
			}
			log.Debug().Int("attempt", alt+1).Int("steps", n).Float64("dt", dt).Msg("稳态求解失败，进行时间推进")
			tctx, ts := s.tracer.Start(ctx, "time_step", trace.WithAttributes(
				attribute.Int("steps", n), attribute.Float64("dt", dt)))
			dt, err = s.timeStep(tctx, n, dt, log)
			ts.End()
			if err != nil {
				if errors.Is(err, errTimeStep) {
					return types.Errorf(op, types.ErrSolveFailed, "time integration failed at t=%g: %v", s.time, err)
				}
				return fmt.Errorf("%s cancelled: %w", op, err)
			}
			s.x.Update()
		}
		if !refine {
			return nil
		}
		_, rs := s.tracer.Start(ctx, "refine", trace.WithAttributes(attribute.Int("cycle", cycle)))
		changed, err := s.Refine(log)
		rs.SetAttributes(attribute.Int("changed", changed), attribute.Int("points", s.asm.Points()))
		rs.End()
		if err != nil {
			return err
		}
		if changed == 0 {
			return nil
		}
		if cycle+1 >= s.MaxRefineCycles {
			// 在最后的网格上再求解一次
			log.Warn().Int("cycles", cycle+1).Msg("细化轮数用尽")
			refine = false
		}
	}
}
