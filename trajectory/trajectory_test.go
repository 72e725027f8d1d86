package trajectory

import (
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emt/errs"
	"emt/integrator"
)

func TestKeyNames(t *testing.T) {
	k := Key{SystemN: 6, TS: 50e-6, Tag: "Fault_LLG"}
	assert.Equal(t, "sim_snp_S6_50u_Fault_LLG.gob", k.SnapshotName())
	assert.Equal(t, "sim_snp_S6_50u_1pt_Fault_LLG.gob", k.PointName())
	assert.Equal(t, "sim_res_S6_50u_Fault_LLG.json", k.ResultsName())

	// 步长换算为微秒时四舍五入
	k.TS = 0.1e-3 * 0.5
	assert.Equal(t, "sim_res_S6_50u_Fault_LLG.json", k.ResultsName())
}

// TestDownsampleCount 10 s、50 µs、每 10 步保存一次，共 20000 个保存点
func TestDownsampleCount(t *testing.T) {
	const (
		ts     = 50e-6
		dsRate = 10
		steps  = 200000
	)
	r := NewRecorder("Baseline", 6, ts, dsRate)
	var progress int
	r.Progress = func(index int, tm float64) { progress++ }

	s := &integrator.State{Gen: []float64{0}}
	for step := 1; step <= steps; step++ {
		s.Time = float64(step) * ts
		s.Gen[0] = float64(step)
		r.Observe(step, s)
	}
	require.Equal(t, int(math.Floor(10.0/ts/dsRate+1e-9)), r.Record.Len())
	assert.Equal(t, 20000, progress)
	for i, e := range r.Record.Entries {
		k := i + 1
		require.Equal(t, k, e.Index)
		require.Equal(t, float64(k*dsRate)*ts, e.Time)
		require.Equal(t, float64(k*dsRate), e.Gen[0])
	}
}

// TestObserveCopiesState 保存点与后续状态变化相互独立
func TestObserveCopiesState(t *testing.T) {
	r := NewRecorder("Baseline", 3, 1e-3, 1)
	s := &integrator.State{Gen: []float64{1, 2}, V: []complex128{1i}}
	assert.False(t, r.Observe(0, s))
	assert.True(t, r.Observe(1, s))
	s.Gen[0] = 9
	s.V[0] = 0
	assert.Equal(t, []float64{1, 2}, r.Record.Entries[0].Gen)
	assert.Equal(t, []complex128{1i}, r.Record.Entries[0].V)
}

func sampleRecord() *Record {
	r := &Record{Scenario: "Baseline", SystemN: 3, TS: 1e-3, DSRate: 2}
	for k := 1; k <= 4; k++ {
		r.Entries = append(r.Entries, Entry{
			Index: k,
			Time:  float64(2*k) * 1e-3,
			Gen:   []float64{float64(k), 1 + float64(k)/10},
			IBR:   []float64{0.2, 0},
			Bus:   []float64{1, 0, 1},
			Load:  []float64{0.98},
			V:     []complex128{complex(1, -0.1*float64(k))},
		})
	}
	return r
}

func TestResultsRoundTrip(t *testing.T) {
	store := Store{Dir: t.TempDir()}
	k := Key{SystemN: 3, TS: 1e-3, Tag: "Baseline"}
	require.NoError(t, store.SaveResults(k, sampleRecord().Results()))

	res, err := store.LoadResults("Baseline", k)
	require.NoError(t, err)
	var wantTime, wantCol []float64
	for k := 1; k <= 4; k++ {
		wantTime = append(wantTime, float64(2*k)*1e-3)
		wantCol = append(wantCol, 1+float64(k)/10)
	}
	assert.Equal(t, wantTime, res.Time)
	assert.Equal(t, [][2]float64{{1, -0.2}}, res.V[2])

	col, err := res.Column(1)
	require.NoError(t, err)
	assert.Equal(t, wantCol, col)

	_, err = res.Column(5)
	assert.ErrorIs(t, err, errs.ErrDataShape)

	_, err = os.Stat(store.Path(k.ResultsName() + ".tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestResultsShapeErrors(t *testing.T) {
	_, err := (&Results{Scenario: "Islanding"}).Matrix()
	assert.ErrorIs(t, err, errs.ErrDataShape)

	res := sampleRecord().Results()
	delete(res.X, 3)
	_, err = res.Matrix()
	assert.ErrorIs(t, err, errs.ErrDataShape)
}

// TestPointRoundTripExact 单点快照逐位恢复状态
func TestPointRoundTripExact(t *testing.T) {
	store := Store{Dir: t.TempDir()}
	k := Key{SystemN: 3, TS: 1e-3, Tag: "Islanding"}

	h := integrator.NewHistory(2)
	h.Push([]float64{1.0 / 3, math.Pi})
	h.Push([]float64{math.SmallestNonzeroFloat64, -0.1})
	s := &integrator.State{
		Step:    7,
		Time:    7e-3,
		Gen:     []float64{0.1 + 0.2, 1 - 1e-17},
		V:       []complex128{complex(1.0/7, -2.0/3)},
		History: integrator.StateBuffer{Gen: h, IBR: integrator.NewHistory(1), Load: integrator.NewHistory(1)},
	}
	s.Topology.FaultBus = -1
	s.Targets.GenOnline = []bool{false, true}
	require.NoError(t, store.SavePoint(k, &Point{Meta: Meta{Scenario: "Islanding", SystemN: 3, TS: 1e-3, Step: 7, Time: 7e-3}, State: s}))

	p, err := store.LoadPoint("Islanding", k)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Step)
	assert.Equal(t, s.Gen, p.State.Gen)
	assert.Equal(t, s.V, p.State.V)
	assert.Equal(t, s.History.Gen, p.State.History.Gen)
	assert.Equal(t, -1, p.State.Topology.FaultBus)
	assert.Equal(t, []bool{false, true}, p.State.Targets.GenOnline)
}

func TestMissingArtifact(t *testing.T) {
	store := Store{Dir: t.TempDir()}
	k := Key{SystemN: 6, TS: 50e-6, Tag: "Baseline"}
	_, err := store.LoadPoint("Baseline", k)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrMissing)
	assert.ErrorIs(t, err, os.ErrNotExist)

	var missing *errs.MissingArtifact
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, store.Path(k.PointName()), missing.Path)

	_, err = store.LoadResults("Baseline", k)
	assert.ErrorIs(t, err, errs.ErrMissing)
}

func TestSnapshotKeepsRecord(t *testing.T) {
	store := Store{Dir: t.TempDir()}
	k := Key{SystemN: 3, TS: 1e-3, Tag: "Baseline"}
	rec := sampleRecord()
	require.NoError(t, store.SaveSnapshot(k, &Snapshot{Meta: Meta{Scenario: "Baseline"}, Record: rec}))
	snap, err := store.LoadSnapshot("Baseline", k)
	require.NoError(t, err)
	assert.Equal(t, rec.Entries, snap.Record.Entries)
}

// TestContinueRecorder 续算记录器接在原记录之后追加，序号连续
func TestContinueRecorder(t *testing.T) {
	const dsRate = 5
	r := NewRecorder("Baseline", 3, 1e-3, dsRate)
	s := &integrator.State{Gen: []float64{0}}
	for step := 1; step <= 12; step++ {
		s.Time = float64(step) * 1e-3
		r.Observe(step, s)
	}
	require.Equal(t, 2, r.Record.LastIndex())

	c, err := ContinueRecorder(r.Record, 12)
	require.NoError(t, err)
	for step := 13; step <= 20; step++ {
		c.Observe(step, s)
	}
	require.Equal(t, 4, c.Record.Len())
	for i, e := range c.Record.Entries {
		assert.Equal(t, i+1, e.Index)
	}

	_, err = ContinueRecorder(r.Record, 30)
	assert.ErrorIs(t, err, errs.ErrConfiguration)
	_, err = ContinueRecorder(nil, 0)
	assert.ErrorIs(t, err, errs.ErrConfiguration)

	empty := NewRecorder("Baseline", 3, 1e-3, dsRate).Record
	assert.Zero(t, empty.LastIndex())
	_, err = ContinueRecorder(empty, 4)
	assert.NoError(t, err)
}
