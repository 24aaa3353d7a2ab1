package luxbin

import (
	"fmt"
	"math"

	"github.com/nicheai/luxbin/internal/photon"
)

// wavelengthStep is the spacing between adjacent symbols on the visible band.
const wavelengthStep = (photon.VisibleMaxNM - photon.VisibleMinNM) / float64(Size-1)

// Wavelength returns the emission wavelength (nm) for a code. Codes are
// spread linearly across 400–700 nm in alphabet order.
func Wavelength(index int) (float64, error) {
	if index < 0 || index >= Size {
		return 0, &IndexError{Index: index}
	}
	return photon.VisibleMinNM + float64(index)*wavelengthStep, nil
}

// SymbolWavelength is Wavelength for a symbol.
func SymbolWavelength(r rune) (float64, error) {
	i, err := Encode(r)
	if err != nil {
		return 0, err
	}
	return Wavelength(i)
}

// IndexOfWavelength returns the code whose wavelength is nearest to nm.
// Wavelengths more than half a step from every code are rejected.
func IndexOfWavelength(nm float64) (int, error) {
	pos := (nm - photon.VisibleMinNM) / wavelengthStep
	i := int(math.Round(pos))
	if math.IsNaN(pos) || i < 0 || i >= Size || math.Abs(pos-float64(i)) > 0.5 {
		return 0, fmt.Errorf("%w: no symbol at %.3f nm", ErrOutOfRange, nm)
	}
	return i, nil
}
