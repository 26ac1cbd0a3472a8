package sim

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"
)

// DomainStats 区域残差计算统计
type DomainStats struct {
	Name  string
	Evals int
	Time  time.Duration
}

// Stats 求解统计
type Stats struct {
	Domains          []DomainStats
	Jacobians        int
	JacobianTime     time.Duration
	JacobianRetries  int // 阻尼失败后提前重新计算的次数
	NewtonIterations int
	ParallelEvals    int // 扩展区域并行计算的全局残差次数
	TimeSteps        int
	FailedTimeSteps  int
	Regrids          int
	Solves           int
}

// Clone 副本
func (s *Stats) Clone() Stats {
	c := *s
	c.Domains = append([]DomainStats(nil), s.Domains...)
	return c
}

// Reset 清零
func (s *Stats) Reset() {
	domains := s.Domains
	for i := range domains {
		domains[i].Evals, domains[i].Time = 0, 0
	}
	*s = Stats{Domains: domains}
}

func (s *Stats) String() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "domain\tevaluations\ttime")
	for _, d := range s.Domains {
		fmt.Fprintf(w, "%s\t%d\t%v\n", d.Name, d.Evals, d.Time)
	}
	w.Flush()
	fmt.Fprintf(&b, "jacobians: %d (%v)\n", s.Jacobians, s.JacobianTime)
	fmt.Fprintf(&b, "newton iterations: %d\n", s.NewtonIterations)
	fmt.Fprintf(&b, "time steps: %d accepted, %d failed\n", s.TimeSteps, s.FailedTimeSteps)
	fmt.Fprintf(&b, "regrids: %d\n", s.Regrids)
	if s.ParallelEvals > 0 {
		fmt.Fprintf(&b, "parallel evaluations: %d\n", s.ParallelEvals)
	}
	return b.String()
}
