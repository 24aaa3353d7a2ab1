// Package optics models the two photon sources behind Morse light pulses:
// a Kerr microresonator frequency comb and a quantum-dot single-photon
// emitter with sum-frequency conversion to the visible band.
package optics

import (
	"math"

	"github.com/nicheai/luxbin/internal/photon"
)

// Morse element symbols.
const (
	Dot  = '.'
	Dash = '-'
)

// Default microresonator parameters.
const (
	DefaultPumpWavelengthNM = 1550.0 // telecom pump for Kerr comb generation
	DefaultCombSpacingNM    = 0.1
	DefaultCombLines        = 20
	DefaultKerr             = 1.5
)

// CombLine is one tooth of a generated comb.
type CombLine struct {
	WavelengthNM float64 `json:"wavelength_nm"`
	FrequencyHz  float64 `json:"frequency_hz"`
	Intensity    float64 `json:"intensity"`
	Index        int     `json:"comb_line"`
	Symbol       string  `json:"morse_symbol"`
}

// CombGenerator produces frequency combs around a carrier wavelength.
type CombGenerator struct {
	PumpWavelengthNM float64
	SpacingNM        float64
	Lines            int
	Kerr             float64
}

// NewCombGenerator returns a generator with the default microresonator setup.
func NewCombGenerator() *CombGenerator {
	return &CombGenerator{
		PumpWavelengthNM: DefaultPumpWavelengthNM,
		SpacingNM:        DefaultCombSpacingNM,
		Lines:            DefaultCombLines,
		Kerr:             DefaultKerr,
	}
}

// Generate returns comb lines -Lines/2..Lines/2 around the carrier. Dashes
// are pumped 2.5x brighter than dots; intensity falls off as exp(-|i|·Kerr).
// A negative line count yields no comb.
func (g *CombGenerator) Generate(carrierNM float64, symbol rune) []CombLine {
	if g.Lines < 0 {
		return nil
	}
	base := photon.SpeedOfLight / (carrierNM * 1e-9)

	amplitude := 1.0
	if symbol != Dot {
		amplitude = 2.5
	}

	half := g.Lines / 2
	lines := make([]CombLine, 0, 2*half+1)
	for i := -half; i <= half; i++ {
		freq := base + float64(i)*g.SpacingNM*1e12
		lines = append(lines, CombLine{
			WavelengthNM: photon.SpeedOfLight / freq * 1e9,
			FrequencyHz:  freq,
			Intensity:    amplitude * math.Exp(-math.Abs(float64(i))*g.Kerr),
			Index:        i,
			Symbol:       string(symbol),
		})
	}
	return lines
}

// Efficiency is total comb intensity relative to the pump reference.
func (g *CombGenerator) Efficiency(lines []CombLine) float64 {
	if g.Lines <= 0 {
		return 0
	}
	var total float64
	for _, l := range lines {
		total += l.Intensity
	}
	return total / float64(g.Lines)
}
