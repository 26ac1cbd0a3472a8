package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"onedim/maths"
	"onedim/types"
)

// DomainData 单个区域的保存数据
type DomainData struct {
	Name       string      `yaml:"name"`
	Type       string      `yaml:"type"`
	Components []string    `yaml:"components,flow"`
	Grid       []float64   `yaml:"grid,flow"`
	Values     [][]float64 `yaml:"values"` // [分量][点]
}

// Solution 一组以 id 标识的解
type Solution struct {
	ID          string       `yaml:"id"`
	Description string       `yaml:"description,omitempty"`
	Saved       time.Time    `yaml:"saved"`
	Domains     []DomainData `yaml:"domains"`
}

// Document 解文件
type Document struct {
	Solutions []Solution `yaml:"solutions"`
}

// Find 按 id 查找解
func (doc *Document) Find(id string) (*Solution, error) {
	for i := range doc.Solutions {
		if doc.Solutions[i].ID == id {
			return &doc.Solutions[i], nil
		}
	}
	return nil, types.Errorf("find solution", types.ErrNameNotFound, "no solution with id %q", id)
}

// Put 替换同 id 的解，否则追加
func (doc *Document) Put(s Solution) {
	for i := range doc.Solutions {
		if doc.Solutions[i].ID == s.ID {
			doc.Solutions[i] = s
			return
		}
	}
	doc.Solutions = append(doc.Solutions, s)
}

// IDs 全部解的 id
func (doc *Document) IDs() []string {
	ids := make([]string, len(doc.Solutions))
	for i, s := range doc.Solutions {
		ids[i] = s.ID
	}
	return ids
}

// Load 读取解文件，文件不存在时返回 fs.ErrNotExist
func Load(file string) (*Document, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	doc := new(Document)
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	return doc, nil
}

// Save 把解写入文件（替换同 id 的解），先写临时文件再改名
func Save(file string, s Solution) error {
	doc, err := Load(file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		doc = new(Document)
	case err != nil:
		return err
	}
	if s.Saved.IsZero() {
		s.Saved = time.Now().UTC()
	}
	doc.Put(s)
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode solution: %w", err)
	}
	return writeFile(file, data)
}

// writeFile 原子写文件
func writeFile(file string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(file), "."+filepath.Base(file)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), file)
}

// Restore 从文件读取指定 id 的解
func Restore(file, id string) (*Solution, error) {
	doc, err := Load(file)
	if err != nil {
		return nil, err
	}
	return doc.Find(id)
}

// Check 检查解与当前栈的结构是否一致
func (s *Solution) Check(live []DomainData) error {
	const op = "restore"
	if len(s.Domains) != len(live) {
		return types.Errorf(op, types.ErrIncompatibleSolution, "%d domains stored, stack has %d", len(s.Domains), len(live))
	}
	for i, d := range s.Domains {
		l := live[i]
		switch {
		case d.Name != l.Name:
			return types.Errorf(op, types.ErrIncompatibleSolution, "domain %d is %q, stack has %q", i, d.Name, l.Name)
		case d.Type != l.Type:
			return types.DomainErrorf(op, l.Name, types.ErrIncompatibleSolution, "type %q, stack has %q", d.Type, l.Type)
		case !equal(d.Components, l.Components):
			return types.DomainErrorf(op, l.Name, types.ErrIncompatibleSolution, "components %v, stack has %v", d.Components, l.Components)
		case len(d.Values) != len(d.Components):
			return types.DomainErrorf(op, l.Name, types.ErrIncompatibleSolution, "%d value rows for %d components", len(d.Values), len(d.Components))
		}
		for _, v := range d.Values {
			if len(v) != len(d.Grid) {
				return types.DomainErrorf(op, l.Name, types.ErrIncompatibleSolution, "%d values on %d grid points", len(v), len(d.Grid))
			}
			if !maths.IsFinite(v) {
				return types.DomainErrorf(op, l.Name, types.ErrIncompatibleSolution, "non-finite stored values")
			}
		}
		// 连接区域只有一个点，扩展区域网格至少两点且严格递增
		if len(l.Grid) == 1 {
			if len(d.Grid) != 1 {
				return types.DomainErrorf(op, l.Name, types.ErrIncompatibleSolution, "connector stored with %d points", len(d.Grid))
			}
		} else if len(d.Grid) < 2 || !maths.IsFinite(d.Grid) || !maths.StrictlyIncreasing(d.Grid) {
			return types.DomainErrorf(op, l.Name, types.ErrIncompatibleSolution, "stored grid is not strictly increasing with at least two points")
		}
	}
	return nil
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
