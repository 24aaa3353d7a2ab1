package optics

import "math"

// Default quantum-dot source parameters.
const (
	DefaultQDEmissionNM         = 1300.0
	DefaultQDLifetimeNS         = 1.5
	DefaultSFGPumpNM            = 1550.0
	DefaultSFGOutputNM          = 710.0
	DefaultModulationS          = 350e-12
	DefaultConversionEfficiency = 0.15
	DefaultWaveformSamples      = 1000
)

// Waveform is a sampled single-photon temporal profile.
type Waveform struct {
	WavelengthNM float64   `json:"wavelength_nm"`
	TimeNS       []float64 `json:"time_ns"`
	Amplitude    []float64 `json:"amplitude"`
	Symbol       string    `json:"morse_symbol"`
	Converted    bool      `json:"converted"`
}

// Peak returns the largest sampled amplitude.
func (w Waveform) Peak() float64 {
	var peak float64
	for _, a := range w.Amplitude {
		if a > peak {
			peak = a
		}
	}
	return peak
}

// QuantumDot is a single-photon emitter followed by a sum-frequency stage.
type QuantumDot struct {
	EmissionNM           float64
	LifetimeNS           float64
	PumpNM               float64
	OutputNM             float64
	ModulationS          float64
	ConversionEfficiency float64
	Samples              int
}

// NewQuantumDot returns an emitter with the default 1300 nm → 710 nm setup.
func NewQuantumDot() *QuantumDot {
	return &QuantumDot{
		EmissionNM:           DefaultQDEmissionNM,
		LifetimeNS:           DefaultQDLifetimeNS,
		PumpNM:               DefaultSFGPumpNM,
		OutputNM:             DefaultSFGOutputNM,
		ModulationS:          DefaultModulationS,
		ConversionEfficiency: DefaultConversionEfficiency,
		Samples:              DefaultWaveformSamples,
	}
}

// Emit samples five lifetimes of exponential decay, modulated fast for dots
// and three times slower (and stronger) for dashes.
func (q *QuantumDot) Emit(symbol rune) Waveform {
	t := linspace(0, 5*q.LifetimeNS, q.Samples)
	amp := make([]float64, len(t))

	freq := 1 / (q.ModulationS * 1e9)
	depth := 0.5
	if symbol != Dot {
		freq /= 3
		depth = 0.7
	}
	for i, ti := range t {
		amp[i] = math.Exp(-ti/q.LifetimeNS) * depth * (1 + math.Cos(2*math.Pi*freq*ti))
	}

	return Waveform{
		WavelengthNM: q.EmissionNM,
		TimeNS:       t,
		Amplitude:    amp,
		Symbol:       string(symbol),
	}
}

// Convert shifts an emitted photon to OutputNM, scaling by the conversion
// efficiency and the modulation envelope.
func (q *QuantumDot) Convert(w Waveform) Waveform {
	amp := make([]float64, len(w.Amplitude))
	tau := q.ModulationS * 1e12
	for i, a := range w.Amplitude {
		amp[i] = a * q.ConversionEfficiency * math.Exp(-w.TimeNS[i]/tau)
	}
	return Waveform{
		WavelengthNM: q.OutputNM,
		TimeNS:       w.TimeNS,
		Amplitude:    amp,
		Symbol:       w.Symbol,
		Converted:    true,
	}
}

// SumFrequencyWavelength is the output wavelength when photons at a and b
// combine: 1/λ = 1/a + 1/b.
func SumFrequencyWavelength(aNM, bNM float64) float64 {
	return 1 / (1/aNM + 1/bNM)
}

func linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
