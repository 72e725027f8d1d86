// Package report 将结果文件绘制为网页曲线与静态图片。
package report

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"emt/device"
	"emt/errs"
	"emt/trajectory"
)

// Page 曲线页面，每个场景一组曲线
type Page struct {
	Results []*trajectory.Results
}

// lineChart 统一样式的曲线图
func lineChart(title, subtitle string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithLegendOpts(opts.Legend{
			Type:   "scroll",
			Orient: "vertical",
			Right:  "10",
			Top:    "20",
			Bottom: "20",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			SplitNumber: 20,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale: opts.Bool(true),
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			Start:      0,
			End:        100,
			XAxisIndex: []int{0},
		}),
		charts.WithAnimation(false),
	)
	return line
}

// stack 按保存序号取出各时刻的状态向量
func stack(res *trajectory.Results, field string, m map[int][]float64, keys []int) ([][]float64, error) {
	rows := make([][]float64, len(keys))
	for i, k := range keys {
		row, ok := m[k]
		if !ok {
			return nil, &errs.DataShapeError{Scenario: res.Scenario, Reason: fmt.Sprintf("%s has no sample %d", field, k)}
		}
		rows[i] = row
	}
	return rows, nil
}

// addSeries 把逐时刻的扁平状态向量按 stride 拆成每个设备一条曲线
func addSeries(line *charts.Line, rows [][]float64, stride, offset int, name func(int) string) {
	if len(rows) == 0 || stride <= 0 {
		return
	}
	units := len(rows[0]) / stride
	for u := 0; u < units; u++ {
		items := make([]opts.LineData, len(rows))
		col := u*stride + offset
		for i, row := range rows {
			if col < len(row) {
				items[i].Value = row[col]
			}
		}
		line.AddSeries(name(u), items, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	}
}

func (p *Page) build(res *trajectory.Results) ([]components.Charter, error) {
	keys := res.Indices()
	if len(keys) == 0 || len(keys) != len(res.Time) {
		return nil, &errs.DataShapeError{Scenario: res.Scenario, Reason: fmt.Sprintf("%d samples for %d time points", len(keys), len(res.Time))}
	}
	gen, err := stack(res, "x", res.X, keys)
	if err != nil {
		return nil, err
	}
	bus, err := stack(res, "x_bus", res.XBus, keys)
	if err != nil {
		return nil, err
	}
	axis := make([]string, len(res.Time))
	for i, t := range res.Time {
		axis[i] = fmt.Sprintf("%.4f", t)
	}
	genName := func(i int) string { return fmt.Sprintf("Gen(%d)", i+1) }
	busName := func(i int) string { return fmt.Sprintf("Bus(%d)", i+1) }

	delta := lineChart(res.Scenario+" 功角", "发电机功角随时间变化曲线 (rad)")
	delta.SetXAxis(axis)
	addSeries(delta, gen, device.GenStates, device.GenDelta, genName)

	omega := lineChart(res.Scenario+" 转速", "发电机转速随时间变化曲线 (pu)")
	omega.SetXAxis(axis)
	addSeries(omega, gen, device.GenStates, device.GenOmega, genName)

	vm := lineChart(res.Scenario+" 电压", "母线电压幅值随时间变化曲线 (pu)")
	vm.SetXAxis(axis)
	addSeries(vm, bus, device.BusStates, device.BusVm, busName)

	freq := lineChart(res.Scenario+" 频率", "母线测量频率随时间变化曲线 (pu)")
	freq.SetXAxis(axis)
	addSeries(freq, bus, device.BusStates, device.BusFreq, busName)

	return []components.Charter{delta, omega, vm, freq}, nil
}

// Render 输出全部场景的曲线页面
func (p *Page) Render(w io.Writer) error {
	page := components.NewPage()
	for _, res := range p.Results {
		cs, err := p.build(res)
		if err != nil {
			return err
		}
		page.AddCharts(cs...)
	}
	return page.Render(w)
}

// ServeHTTP 发布到网页面
func (p *Page) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	if err := p.Render(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
