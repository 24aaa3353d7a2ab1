package lightshow

import (
	"math"
	"unicode"
)

// IonTransition is an atomic line an ion-trap laser can drive.
type IonTransition struct {
	WavelengthNM float64 `json:"wavelength_nm"`
	Ion          string  `json:"ion_type"`
	Operation    string  `json:"operation"`
	Transition   string  `json:"transition"`
}

// IonTransitions are the supported trap lines, shortest wavelength first.
var IonTransitions = []IonTransition{
	{397, "calcium_40", "single_qubit_gate", "S1/2-P1/2"},
	{422, "strontium_88", "state_preparation", "5S1/2-5P1/2"},
	{729, "ytterbium_171", "two_qubit_gate", "S1/2-D5/2"},
	{854, "rubidium_87", "cooling_cycle", "D5/2-P3/2"},
}

// ControlParameters are the laser settings for one ion operation.
type ControlParameters struct {
	LaserWavelengthNM float64 `json:"laser_wavelength_nm"`
	DetuningNM        float64 `json:"detuning_nm"`
	PulseUS           float64 `json:"pulse_us"`
}

// IonOperation is one gate derived from a light.
type IonOperation struct {
	Character    string            `json:"character"`
	WavelengthNM float64           `json:"wavelength"`
	Operation    string            `json:"operation"`
	Ion          string            `json:"ion_type"`
	Transition   string            `json:"transition"`
	DurationS    float64           `json:"duration"`
	Control      ControlParameters `json:"control_parameters"`
}

// IonTrapOperations maps every non-space light onto the nearest trap line.
func IonTrapOperations(seq []Light) []IonOperation {
	ops := make([]IonOperation, 0, len(seq))
	for _, l := range seq {
		if l.Character == " " {
			continue
		}
		tr := nearestTransition(l.WavelengthNM)
		ops = append(ops, IonOperation{
			Character:    l.Character,
			WavelengthNM: l.WavelengthNM,
			Operation:    tr.Operation,
			Ion:          tr.Ion,
			Transition:   tr.Transition,
			DurationS:    l.DurationS,
			Control: ControlParameters{
				LaserWavelengthNM: tr.WavelengthNM,
				DetuningNM:        l.WavelengthNM - tr.WavelengthNM,
				PulseUS:           l.DurationS * 1e6,
			},
		})
	}
	return ops
}

func nearestTransition(nm float64) IonTransition {
	best := IonTransitions[0]
	for _, tr := range IonTransitions[1:] {
		if math.Abs(nm-tr.WavelengthNM) < math.Abs(nm-best.WavelengthNM) {
			best = tr
		}
	}
	return best
}

// Satellite link parameters.
const (
	SatelliteProtocol     = "LUXBIN-OOK/1550"
	SatelliteDataRateGbps = 10.0
)

// SatelliteOperation is one laser frame for a light.
type SatelliteOperation struct {
	Character    string  `json:"character"`
	WavelengthNM float64 `json:"wavelength"`
	Operation    string  `json:"operation"`
	Protocol     string  `json:"protocol"`
	DataRateGbps float64 `json:"data_rate"`
	DurationS    float64 `json:"duration"`
}

// SatelliteOperations frames each light by symbol class.
func SatelliteOperations(seq []Light) []SatelliteOperation {
	ops := make([]SatelliteOperation, len(seq))
	for i, l := range seq {
		ops[i] = SatelliteOperation{
			Character:    l.Character,
			WavelengthNM: l.WavelengthNM,
			Operation:    frameType(l.Character),
			Protocol:     SatelliteProtocol,
			DataRateGbps: SatelliteDataRateGbps,
			DurationS:    l.DurationS,
		}
	}
	return ops
}

func frameType(ch string) string {
	r := []rune(ch)
	if len(r) != 1 {
		return "control_frame"
	}
	switch {
	case r[0] == ' ':
		return "frame_sync"
	case unicode.IsLetter(r[0]):
		return "data_frame"
	case unicode.IsDigit(r[0]):
		return "numeric_frame"
	default:
		return "control_frame"
	}
}

// TotalDuration sums the duration of a set of lights.
func TotalDuration(seq []Light) float64 {
	var total float64
	for _, l := range seq {
		total += l.DurationS
	}
	return total
}
