package optics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombShape(t *testing.T) {
	g := NewCombGenerator()
	lines := g.Generate(650, Dot)
	require.Len(t, lines, 21)

	center := lines[10]
	assert.Equal(t, 0, center.Index)
	assert.InDelta(t, 650, center.WavelengthNM, 1e-9)
	assert.Equal(t, 1.0, center.Intensity)
	assert.Equal(t, ".", center.Symbol)

	assert.Equal(t, -10, lines[0].Index)
	assert.Equal(t, 10, lines[20].Index)
	// Higher frequency, shorter wavelength.
	assert.Less(t, lines[20].WavelengthNM, center.WavelengthNM)
	assert.Greater(t, lines[0].WavelengthNM, center.WavelengthNM)
	assert.InDelta(t, math.Exp(-1.5), lines[11].Intensity, 1e-15)
	assert.Equal(t, lines[9].Intensity, lines[11].Intensity)
}

func TestCombDashIsBrighter(t *testing.T) {
	g := NewCombGenerator()
	dot := g.Efficiency(g.Generate(650, Dot))
	dash := g.Efficiency(g.Generate(650, Dash))
	assert.InDelta(t, 2.5*dot, dash, 1e-12)

	// 1 + 2·Σ e^{-1.5k}, k=1..10, over 20 reference lines.
	want := 1.0
	for k := 1; k <= 10; k++ {
		want += 2 * math.Exp(-1.5*float64(k))
	}
	assert.InDelta(t, want/20, dot, 1e-12)
}

func TestCombNegativeLines(t *testing.T) {
	g := NewCombGenerator()
	for _, n := range []int{-1, -2, -5} {
		g.Lines = n
		assert.NotPanics(t, func() { assert.Nil(t, g.Generate(500, Dot)) }, "lines=%d", n)
	}
}

func TestCombEfficiencyWithoutLines(t *testing.T) {
	g := &CombGenerator{}
	assert.Equal(t, 0.0, g.Efficiency(g.Generate(600, Dot)))
}

func TestQuantumDotEmit(t *testing.T) {
	q := NewQuantumDot()
	dot := q.Emit(Dot)
	dash := q.Emit(Dash)

	require.Len(t, dot.TimeNS, 1000)
	assert.Equal(t, 0.0, dot.TimeNS[0])
	assert.InDelta(t, 7.5, dot.TimeNS[999], 1e-12)
	assert.Equal(t, 1300.0, dot.WavelengthNM)

	assert.InDelta(t, 1.0, dot.Peak(), 1e-12)
	assert.InDelta(t, 1.4, dash.Peak(), 1e-12)
}

func TestQuantumDotConvert(t *testing.T) {
	q := NewQuantumDot()
	sf := q.Convert(q.Emit(Dot))

	assert.True(t, sf.Converted)
	assert.Equal(t, 710.0, sf.WavelengthNM)
	assert.InDelta(t, 0.15, sf.Peak(), 1e-12)
	for i := range sf.Amplitude {
		assert.LessOrEqual(t, sf.Amplitude[i], 0.15+1e-12)
	}
}

func TestSumFrequencyWavelength(t *testing.T) {
	assert.InDelta(t, 707.0, SumFrequencyWavelength(1300, 1550), 0.1)
	assert.InDelta(t, 775, SumFrequencyWavelength(1550, 1550), 1e-9)
}

func TestLinspace(t *testing.T) {
	assert.Nil(t, linspace(0, 1, 0))
	assert.Equal(t, []float64{2}, linspace(2, 5, 1))
	assert.Equal(t, []float64{0, 0.5, 1}, linspace(0, 1, 3))
}
