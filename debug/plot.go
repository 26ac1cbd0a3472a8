package debug

import (
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"onedim/types"
)

// ErrNoData 快照中没有可绘制的数据
var ErrNoData = errors.New("nothing to plot")

// Profile 绘制快照中各扩展区域某一分量沿网格的分布
func Profile(s *types.Snapshot, component string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%s)", component, s.Stage)
	p.X.Label.Text = "z"
	p.Y.Label.Text = component
	var lines []any
	for i, name := range s.Domains {
		grid := s.Grids[i]
		if len(grid) < 2 {
			continue
		}
		for n, c := range s.Names[i] {
			if c != component {
				continue
			}
			xy := make(plotter.XYs, len(grid))
			for j := range grid {
				xy[j].X, xy[j].Y = grid[j], s.Values[i][n][j]
			}
			lines = append(lines, name, xy)
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: component %q", ErrNoData, component)
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return nil, err
	}
	return p, nil
}

// WritePNG 绘制分布并以 PNG 写出
func WritePNG(w io.Writer, s *types.Snapshot, component string, width, height vg.Length) error {
	p, err := Profile(s, component)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// Charts 记录快照并把最后一个快照绘制为 PNG
type Charts struct {
	Record
	Component string
	Width     vg.Length
	Height    vg.Length
}

// Render 绘制最后一个快照
func (c *Charts) Render(w io.Writer) error {
	s := c.Last()
	if s == nil {
		return ErrNoData
	}
	width, height := c.Width, c.Height
	if width == 0 {
		width, height = 16*vg.Centimeter, 10*vg.Centimeter
	}
	return WritePNG(w, s, c.Component, width, height)
}
