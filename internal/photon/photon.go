// Package photon converts between wavelength, frequency and photon energy.
// All conversions are closed-form; nothing here holds state.
package photon

import (
	"errors"
	"fmt"
	"math"
)

// Physical constants.
const (
	SpeedOfLight     = 299792458.0 // c (m/s)
	HCElectronVoltNM = 1240.0      // h·c (eV·nm), the usual 1240 approximation

	NVZeroPhononLineNM = 637.0 // diamond NV⁻ zero-phonon line (nm)
	NVZeroPhononMinNM  = 635.0
	NVZeroPhononMaxNM  = 640.0

	VisibleMinNM = 400.0
	VisibleMaxNM = 700.0
)

// ErrInvalidWavelength is returned for non-positive or non-finite input.
var ErrInvalidWavelength = errors.New("wavelength must be a positive finite number")

// ErrInvalidFrequency is returned for non-positive or non-finite input.
var ErrInvalidFrequency = errors.New("frequency must be a positive finite number")

// Descriptor is the wavelength/frequency/energy triple of a single photon.
type Descriptor struct {
	WavelengthNM float64 `json:"wavelength_nm"`
	FrequencyHz  float64 `json:"frequency_hz"`
	EnergyEV     float64 `json:"energy_ev"`
}

// FromWavelength derives the photon descriptor for a wavelength in nanometres.
func FromWavelength(wavelengthNM float64) (Descriptor, error) {
	if !positiveFinite(wavelengthNM) {
		return Descriptor{}, fmt.Errorf("%w: %v nm", ErrInvalidWavelength, wavelengthNM)
	}
	d := Descriptor{
		WavelengthNM: wavelengthNM,
		FrequencyHz:  SpeedOfLight / (wavelengthNM * 1e-9),
		EnergyEV:     HCElectronVoltNM / wavelengthNM,
	}
	if !d.valid() {
		return Descriptor{}, fmt.Errorf("%w: %v nm overflows", ErrInvalidWavelength, wavelengthNM)
	}
	return d, nil
}

// FromFrequency derives the photon descriptor for a frequency in hertz.
func FromFrequency(frequencyHz float64) (Descriptor, error) {
	if !positiveFinite(frequencyHz) {
		return Descriptor{}, fmt.Errorf("%w: %v Hz", ErrInvalidFrequency, frequencyHz)
	}
	wavelengthNM := SpeedOfLight / frequencyHz * 1e9
	d := Descriptor{
		WavelengthNM: wavelengthNM,
		FrequencyHz:  frequencyHz,
		EnergyEV:     HCElectronVoltNM / wavelengthNM,
	}
	if !d.valid() {
		return Descriptor{}, fmt.Errorf("%w: %v Hz overflows", ErrInvalidFrequency, frequencyHz)
	}
	return d, nil
}

// valid reports whether every field is positive and finite.
func (d Descriptor) valid() bool {
	return positiveFinite(d.WavelengthNM) && positiveFinite(d.FrequencyHz) && positiveFinite(d.EnergyEV)
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1) && !math.IsNaN(v)
}
