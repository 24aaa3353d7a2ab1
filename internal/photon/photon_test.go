package photon

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromWavelength_SpeedOfLightIdentity(t *testing.T) {
	for nm := 0.5; nm <= 1000; nm += 7.25 {
		d, err := FromWavelength(nm)
		require.NoError(t, err)
		assert.InEpsilon(t, SpeedOfLight, d.FrequencyHz*d.WavelengthNM*1e-9, 1e-12, "λ=%v", nm)
	}
}

func TestFromWavelength_EnergyIsExact(t *testing.T) {
	for _, nm := range []float64{1, 397, 450.5, 620, 637, 1550} {
		d, err := FromWavelength(nm)
		require.NoError(t, err)
		assert.Equal(t, 1240/nm, d.EnergyEV)
	}
}

func TestFromWavelength_Red(t *testing.T) {
	d, err := FromWavelength(620)
	require.NoError(t, err)
	assert.InDelta(t, 4.835e14, d.FrequencyHz, 0.001e14)
	assert.InDelta(t, 2.0, d.EnergyEV, 1e-12)
}

func TestFromWavelength_Invalid(t *testing.T) {
	for _, nm := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1), 1e-300, math.SmallestNonzeroFloat64} {
		_, err := FromWavelength(nm)
		assert.ErrorIs(t, err, ErrInvalidWavelength, "λ=%v", nm)
	}
}

func TestFromFrequency_InvertsWavelength(t *testing.T) {
	d, err := FromWavelength(532)
	require.NoError(t, err)

	back, err := FromFrequency(d.FrequencyHz)
	require.NoError(t, err)
	assert.InDelta(t, 532, back.WavelengthNM, 1e-9)
	assert.InDelta(t, d.EnergyEV, back.EnergyEV, 1e-12)

	for _, hz := range []float64{0, -3, math.NaN(), math.Inf(1), 1e-300} {
		_, err = FromFrequency(hz)
		assert.ErrorIs(t, err, ErrInvalidFrequency, "f=%v", hz)
	}
}

func TestBand(t *testing.T) {
	cases := map[float64]NVBand{
		400:    VioletSideband,
		634.99: VioletSideband,
		635:    ZeroPhonon,
		637:    ZeroPhonon,
		640:    ZeroPhonon,
		640.01: RedSideband,
		700:    RedSideband,
	}
	for nm, want := range cases {
		assert.Equal(t, want, Band(nm), "λ=%v", nm)
	}
	assert.Equal(t, "zero_phonon", ZeroPhonon.String())
}

func TestHue(t *testing.T) {
	assert.Equal(t, 0.0, Hue(380))
	assert.Equal(t, 0.0, Hue(400))
	assert.Equal(t, 180.0, Hue(550))
	assert.Equal(t, 360.0, Hue(700))
	assert.Equal(t, 360.0, Hue(900))
	assert.Equal(t, "hsl(180, 70%, 60%)", HSL(550))
}
