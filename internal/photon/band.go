package photon

import "fmt"

// NVBand classifies a wavelength against the diamond NV-centre emission lines.
type NVBand uint8

const (
	VioletSideband NVBand = iota // below the zero-phonon window
	ZeroPhonon                   // 635–640 nm inclusive
	RedSideband                  // above the zero-phonon window
)

// String returns the JSON-facing name of the band.
func (b NVBand) String() string {
	switch b {
	case ZeroPhonon:
		return "zero_phonon"
	case VioletSideband:
		return "violet_sideband"
	case RedSideband:
		return "red_sideband"
	}
	return "unknown"
}

// Band returns the NV band a wavelength falls in.
func Band(wavelengthNM float64) NVBand {
	switch {
	case wavelengthNM < NVZeroPhononMinNM:
		return VioletSideband
	case wavelengthNM <= NVZeroPhononMaxNM:
		return ZeroPhonon
	default:
		return RedSideband
	}
}

// Hue maps the visible band onto the colour wheel (degrees), clamped to [0, 360].
func Hue(wavelengthNM float64) float64 {
	h := (wavelengthNM - VisibleMinNM) / (VisibleMaxNM - VisibleMinNM) * 360
	if h < 0 {
		return 0
	}
	if h > 360 {
		return 360
	}
	return h
}

// HSL renders the display colour for a wavelength.
func HSL(wavelengthNM float64) string {
	return fmt.Sprintf("hsl(%.0f, 70%%, 60%%)", Hue(wavelengthNM))
}
