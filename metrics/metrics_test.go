package metrics

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emt/errs"
	"emt/scenario"
	"emt/trajectory"
)

func timeAxis(n int, dt float64) []float64 {
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i+1) * dt
	}
	return t
}

func TestStateIndex(t *testing.T) {
	assert.Equal(t, 0, StateIndex(scenario.FaultLLG))
	for _, name := range []string{scenario.Baseline, scenario.StrongGrid, scenario.HeavyLoad, scenario.Islanding} {
		assert.Equal(t, 1, StateIndex(name), name)
	}
}

// TestComputeConstant 常数信号：无跌落、变化率为零、第一个点即稳定
func TestComputeConstant(t *testing.T) {
	tt := timeAxis(50, 0.5e-3)
	y := make([]float64, len(tt))
	for i := range y {
		y[i] = 1
	}
	row, err := Compute(scenario.Baseline, tt, y)
	require.NoError(t, err)
	assert.Equal(t, 50, row.Timesteps)
	assert.Equal(t, tt[49], row.Duration)
	assert.Equal(t, 1.0, row.Mean)
	assert.Equal(t, 1.0, row.Min)
	assert.Equal(t, 1.0, row.Max)
	assert.Zero(t, row.Std)
	assert.Zero(t, row.NadirDepth)
	assert.Zero(t, row.MaxRoCoF)
	require.NotNil(t, row.Settling)
	assert.Equal(t, tt[0], *row.Settling)
}

// TestComputeStep 阶跃信号：终值取最后 1000 点，稳定时间为阶跃时刻
func TestComputeStep(t *testing.T) {
	tt := timeAxis(2000, 1e-3)
	y := make([]float64, len(tt))
	for i := 500; i < len(y); i++ {
		y[i] = 2
	}
	row, err := Compute("step", tt, y)
	require.NoError(t, err)
	assert.Equal(t, 0.0, row.Min)
	assert.Equal(t, 2.0, row.Max)
	assert.InDelta(t, 1.5, row.Mean, 1e-12)
	assert.InDelta(t, 1.5, row.NadirDepth, 1e-12)
	assert.InDelta(t, 0.75, row.Std*row.Std, 1e-12)
	assert.InDelta(t, 2/(tt[1]-tt[0]), row.MaxRoCoF, 1e-6)
	require.NotNil(t, row.Settling)
	assert.Equal(t, tt[500], *row.Settling)
}

// TestComputeNeverSettles 终值落在两个平台之间时不会进入 1% 带
func TestComputeNeverSettles(t *testing.T) {
	tt := timeAxis(10, 1e-3)
	y := []float64{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}
	row, err := Compute("split", tt, y)
	require.NoError(t, err)
	assert.Nil(t, row.Settling)
}

func TestComputeSingleSample(t *testing.T) {
	row, err := Compute("one", []float64{0.1}, []float64{3})
	require.NoError(t, err)
	assert.Zero(t, row.MaxRoCoF)
	assert.Equal(t, 1, row.Timesteps)
}

func TestComputeShapeErrors(t *testing.T) {
	_, err := Compute("empty", nil, nil)
	assert.ErrorIs(t, err, errs.ErrDataShape)

	_, err = Compute("short", []float64{1, 2}, []float64{1})
	assert.ErrorIs(t, err, errs.ErrDataShape)

	// 重复或倒退的时间戳会使变化率为 Inf 或 NaN
	for _, ts := range [][]float64{{0.5, 0.5, 1}, {1, 0.5, 0}} {
		_, err = Compute("time", ts, []float64{1, 0.9, 1})
		assert.ErrorIs(t, err, errs.ErrDataShape, "t = %v", ts)
	}
}

func results(name string, n int) *trajectory.Results {
	res := &trajectory.Results{Scenario: name, SystemN: 6, TS: 50e-6, DSRate: 10, X: map[int][]float64{}}
	for k := 1; k <= n; k++ {
		res.Time = append(res.Time, float64(k)*5e-4)
		res.X[k] = []float64{0.1 * float64(k), 1 + 1e-4*float64(k%3), 0.8}
	}
	return res
}

// TestSummarizeSkips 缺失文件与空轨迹的场景被跳过，其余场景按顺序汇总
func TestSummarizeSkips(t *testing.T) {
	store := trajectory.Store{Dir: t.TempDir()}
	key := func(name string) trajectory.Key { return trajectory.Key{SystemN: 6, TS: 50e-6, Tag: name} }
	require.NoError(t, store.SaveResults(key(scenario.Baseline), results(scenario.Baseline, 30)))
	require.NoError(t, store.SaveResults(key(scenario.FaultLLG), results(scenario.FaultLLG, 20)))
	require.NoError(t, store.SaveResults(key(scenario.HeavyLoad), results(scenario.HeavyLoad, 0)))

	names := []string{scenario.Baseline, scenario.Islanding, scenario.FaultLLG, scenario.HeavyLoad}
	sum, err := Summarize(store, 6, 50e-6, names, nil)
	require.NoError(t, err)

	require.Len(t, sum.Rows, 2)
	assert.Equal(t, scenario.Baseline, sum.Rows[0].Scenario)
	assert.Equal(t, 30, sum.Rows[0].Timesteps)
	assert.InDelta(t, 1, sum.Rows[0].Mean, 1e-3)
	assert.Equal(t, scenario.FaultLLG, sum.Rows[1].Scenario)
	assert.InDelta(t, 0.1, sum.Rows[1].Min, 1e-12)
	assert.InDelta(t, 2.0, sum.Rows[1].Max, 1e-12)

	require.Len(t, sum.Skipped, 2)
	assert.Equal(t, scenario.Islanding, sum.Skipped[0].Scenario)
	assert.ErrorIs(t, sum.Skipped[0].Err, errs.ErrMissing)
	assert.Equal(t, scenario.HeavyLoad, sum.Skipped[1].Scenario)
	assert.ErrorIs(t, sum.Skipped[1].Err, errs.ErrDataShape)
}

func TestWriteCSV(t *testing.T) {
	settle := 0.25
	rows := []Row{
		{Scenario: "A", Duration: 10, Timesteps: 20000, Mean: 1, Min: 0.99, Max: 1.01, Std: 0.002, NadirDepth: 0.01, MaxRoCoF: 0.5, Settling: &settle},
		{Scenario: "B", Duration: 10, Timesteps: 20000},
	}
	path := filepath.Join(t.TempDir(), "out", "all_metrics_fresh.csv")
	require.NoError(t, SaveCSV(path, rows))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, []string{"A", "10", "20000", "1", "0.99", "1.01", "0.002", "0.01", "0.5", "0.25"}, records[1])
	assert.Equal(t, "", records[2][9])
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, nil))
	assert.Contains(t, buf.String(), "No metrics extracted.")

	buf.Reset()
	require.NoError(t, WriteTable(&buf, []Row{{Scenario: scenario.Islanding, Timesteps: 3}}))
	out := buf.String()
	assert.Contains(t, out, "SettlingTime_s")
	assert.Contains(t, out, scenario.Islanding)
	assert.Contains(t, out, "0.000000")
}
