package report

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"emt/metrics"
	"emt/trajectory"
)

// 图片尺寸
const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// Signal 绘制指标使用的状态列，format 为 png、svg 或 pdf
func Signal(w io.Writer, res *trajectory.Results, format string) error {
	col := metrics.StateIndex(res.Scenario)
	y, err := res.Column(col)
	if err != nil {
		return err
	}
	xys := make(plotter.XYs, len(y))
	for i := range y {
		xys[i].X = res.Time[i]
		xys[i].Y = y[i]
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s  S%d  x[%d]", res.Scenario, res.SystemN, col)
	p.X.Label.Text = "t (s)"
	p.Y.Label.Text = "pu"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("plot %s: %w", res.Scenario, err)
	}
	line.Color = plotutil.Color(col)
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add(res.Scenario, line)
	p.Legend.Top = true

	wt, err := p.WriterTo(plotWidth, plotHeight, format)
	if err != nil {
		return fmt.Errorf("plot %s: %w", res.Scenario, err)
	}
	_, err = wt.WriteTo(w)
	return err
}
