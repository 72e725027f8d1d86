package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emt/cases"
	"emt/errs"
)

// TestLookupTable 场景参数表
func TestLookupTable(t *testing.T) {
	tests := []struct {
		name    string
		model   cases.LoadModel
		release float64
		variant string
		scale   float64
		fault   bool
	}{
		{Baseline, cases.ConstantImpedance, 0, cases.VariantBase, 1, false},
		{StrongGrid, cases.ConstantImpedance, 0, cases.VariantStiff, 1, false},
		{HeavyLoad, cases.ConstantImpedance, 0, cases.VariantBase, 1.5, false},
		{Islanding, cases.ConstantPower, 1.5, cases.VariantBase, 1, false},
		{FaultLLG, cases.ConstantImpedance, 0, cases.VariantBase, 1, true},
	}
	require.Len(t, tests, len(Names()))
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Names()[i], tt.name)
			p, err := Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.model, p.LoadModel)
			assert.Equal(t, tt.release, p.ReleaseTime)
			assert.Equal(t, tt.variant, p.Variant)
			assert.Equal(t, tt.scale, p.LoadScale)
			assert.Equal(t, tt.fault, p.Fault.Enabled)
			assert.Equal(t, SentinelTime, p.GenTrip.Time)
			assert.Equal(t, SentinelTime, p.StepChange.Time)
			require.NoError(t, p.Validate(cases.System6()))
		})
	}

	p, _ := Lookup(FaultLLG)
	assert.Equal(t, 7, p.Fault.Bus)
	assert.Equal(t, 0.01, p.Fault.Resistance)
	assert.Equal(t, 2.0, p.Fault.Time)
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("Blackout")
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

// TestFaultCapability 不支持故障的案例或不存在的母线在建立时报错
func TestFaultCapability(t *testing.T) {
	p, err := Lookup(FaultLLG)
	require.NoError(t, err)

	c := cases.System6()
	c.FaultCapable = false
	assert.ErrorIs(t, p.Validate(c), errs.ErrConfiguration)

	p.Fault.Bus = 77
	assert.ErrorIs(t, p.Validate(cases.System6()), errs.ErrConfiguration)

	p, _ = Lookup(Baseline)
	assert.NoError(t, p.Validate(c))
}

// TestSentinelNeverFires 10 s 仿真内远期事件不会触发
func TestSentinelNeverFires(t *testing.T) {
	for _, name := range Names() {
		p, err := Lookup(name)
		require.NoError(t, err)
		p.Fault.Enabled = false
		s := NewScheduler(p, EventState{})
		ts := 1e-3
		for step := 1; step <= 10000; step++ {
			require.Equal(t, Events(0), s.Evaluate(step, float64(step)*ts), "%s step %d", name, step)
		}
	}
}

// TestEventsFireOnce 一次性事件只在首次越过时间点时触发
func TestEventsFireOnce(t *testing.T) {
	p, _ := Lookup(Baseline)
	p.GenTrip.Time = 0.5
	p.StepChange.Time = 0.5
	p.Fault = Fault{Enabled: true, Bus: 7, Resistance: 0.01, Time: 1.0, Duration: 0.1}
	p.LoadSwitch = LoadSwitch{Enabled: true, Time: 2.0, Model: cases.ConstantPower}
	p.LoadStep = LoadStep{Enabled: true, Time: 2.0, Scale: 1.2}

	s := NewScheduler(p, EventState{})
	counts := map[Events]int{}
	var faultOn, faultOff float64
	ts := 0.01
	for step := 0; step <= 300; step++ {
		tm := float64(step) * ts
		ev := s.Evaluate(step, tm)
		for _, n := range eventNames {
			if ev.Has(n.e) {
				counts[n.e]++
			}
		}
		if ev.Has(EventFault) {
			faultOn = tm
			assert.True(t, s.State.FaultActive)
		}
		if ev.Has(EventFaultClear) {
			faultOff = tm
			assert.False(t, s.State.FaultActive)
		}
	}
	for _, n := range eventNames {
		assert.Equal(t, 1, counts[n.e], n.name)
	}
	assert.InDelta(t, 1.0, faultOn, 0.011)
	assert.InDelta(t, 1.1, faultOff, 0.011)
	assert.Equal(t, "load_scale|load_model_switch", (EventLoadScale | EventLoadModelSwitch).String())
	assert.Equal(t, "none", Events(0).String())
}

// TestSchedulerDoesNotMutateParameters 参数值在运行期保持不变
func TestSchedulerDoesNotMutateParameters(t *testing.T) {
	p, _ := Lookup(FaultLLG)
	before := p
	s := NewScheduler(p, EventState{})
	for step := 0; step < 400; step++ {
		s.Evaluate(step, float64(step)*0.01)
	}
	assert.Equal(t, before, s.Params())
	assert.Equal(t, before, p)
	assert.True(t, s.State.FaultActive)
}
