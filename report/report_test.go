package report

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emt/errs"
	"emt/scenario"
	"emt/trajectory"
)

// sample 两台发电机、三条母线的结果
func sample(name string, n int) *trajectory.Results {
	res := &trajectory.Results{
		Scenario: name,
		SystemN:  3,
		TS:       1e-3,
		DSRate:   5,
		X:        map[int][]float64{},
		XBus:     map[int][]float64{},
	}
	for k := 1; k <= n; k++ {
		res.Time = append(res.Time, float64(k)*5e-3)
		d := 0.01 * float64(k)
		res.X[k] = []float64{0.2 + d, 1, 0.5, 0.1 + d, 1 - d/100, 0.3}
		res.XBus[k] = []float64{1.02, 0, 1, 0.99, -0.05, 1, 0.97, -0.1, 1}
	}
	return res
}

func TestRenderPage(t *testing.T) {
	page := &Page{Results: []*trajectory.Results{sample(scenario.Baseline, 20), sample(scenario.FaultLLG, 20)}}
	var buf bytes.Buffer
	require.NoError(t, page.Render(&buf))
	html := buf.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, scenario.Baseline)
	assert.Contains(t, html, scenario.FaultLLG)
	assert.Contains(t, html, "Gen(2)")
	assert.Contains(t, html, "Bus(3)")
}

func TestRenderShapeError(t *testing.T) {
	res := sample(scenario.Baseline, 5)
	delete(res.XBus, 3)
	err := (&Page{Results: []*trajectory.Results{res}}).Render(&bytes.Buffer{})
	assert.ErrorIs(t, err, errs.ErrDataShape)

	err = (&Page{Results: []*trajectory.Results{sample("empty", 0)}}).Render(&bytes.Buffer{})
	assert.ErrorIs(t, err, errs.ErrDataShape)
}

func TestServeHTTP(t *testing.T) {
	page := &Page{Results: []*trajectory.Results{sample(scenario.Islanding, 10)}}
	rec := httptest.NewRecorder()
	page.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), scenario.Islanding)

	bad := &Page{Results: []*trajectory.Results{sample("empty", 0)}}
	rec = httptest.NewRecorder()
	bad.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, 500, rec.Code)
}

func TestSignalPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Signal(&buf, sample(scenario.Baseline, 50), "png"))
	require.Greater(t, buf.Len(), 8)
	assert.Equal(t, []byte("\x89PNG"), buf.Bytes()[:4])

	buf.Reset()
	require.NoError(t, Signal(&buf, sample(scenario.FaultLLG, 50), "svg"))
	assert.Contains(t, buf.String(), "<svg")
}

func TestSignalErrors(t *testing.T) {
	err := Signal(&bytes.Buffer{}, sample("empty", 0), "png")
	assert.ErrorIs(t, err, errs.ErrDataShape)

	err = Signal(&bytes.Buffer{}, sample(scenario.Baseline, 5), "bmp")
	assert.Error(t, err)
}
