package debug

import (
	"encoding/json"
	"io"

	"onedim/types"
)

// Record 记录求解过程中的快照
type Record struct {
	Snapshots []*types.Snapshot `json:"snapshots"`
	Limit     int               `json:"-"` // 最多保留的快照数，<=0 不限制
}

func (*Record) IsDebug() bool { return true }

// Update 记录快照
func (r *Record) Update(s *types.Snapshot) {
	r.Snapshots = append(r.Snapshots, s)
	if r.Limit > 0 && len(r.Snapshots) > r.Limit {
		r.Snapshots = append(r.Snapshots[:0], r.Snapshots[len(r.Snapshots)-r.Limit:]...)
	}
}

// Last 最后一个快照
func (r *Record) Last() *types.Snapshot {
	if len(r.Snapshots) == 0 {
		return nil
	}
	return r.Snapshots[len(r.Snapshots)-1]
}

// Count 各阶段快照数
func (r *Record) Count(stage types.Stage) int {
	n := 0
	for _, s := range r.Snapshots {
		if s.Stage == stage {
			n++
		}
	}
	return n
}

// Render 以 JSON 输出
func (r *Record) Render(w io.Writer) error { return json.NewEncoder(w).Encode(r) }
