// Package lightshow converts text and binary payloads into LUXBIN light
// sequences and derives the hardware views of a sequence: NV-centre
// transitions, ion-trap gate operations and satellite laser frames.
package lightshow

import (
	"errors"
	"unicode"

	"github.com/nicheai/luxbin/internal/luxbin"
	"github.com/nicheai/luxbin/internal/photon"
)

// Per-symbol display durations in seconds.
const (
	SymbolDurationS      = 0.10
	PunctuationDurationS = 0.15
	SpaceDurationS       = 0.05

	// NVCoherenceUS is the storage time budgeted per NV-centre state.
	NVCoherenceUS = 100.0
)

// ErrEmpty is returned when the input carries no encodable symbols.
var ErrEmpty = errors.New("input contains no LUXBIN symbols")

// Light is one step of a light show.
type Light struct {
	Character string `json:"character"`
	Index     int    `json:"index"`
	photon.Descriptor
	HSL       string  `json:"hsl"`
	DurationS float64 `json:"duration_s"`
}

// NVState is the NV-centre programming step for one light.
type NVState struct {
	Step         int     `json:"step"`
	WavelengthNM float64 `json:"wavelength_nm"`
	Band         string  `json:"band"`
	PulseUS      float64 `json:"pulse_us"`
}

// QuantumData describes how a sequence is stored in NV centres.
type QuantumData struct {
	TotalStates            int       `json:"total_states"`
	NVCenterStates         []NVState `json:"nv_center_states"`
	EstimatedStorageTimeUS float64   `json:"estimated_storage_time"`
}

// Show is a complete light show.
type Show struct {
	LuxbinText     string       `json:"luxbin_text"`
	Dropped        int          `json:"dropped_characters"`
	Sequence       []Light      `json:"light_sequence"`
	TotalDurationS float64      `json:"total_duration"`
	Quantum        *QuantumData `json:"quantum_data,omitempty"`

	Satellite []SatelliteOperation `json:"satellite_operations,omitempty"`
}

// Converter builds light shows. In quantum mode spaces are held on the NV
// zero-phonon line and NV storage data is attached. In satellite mode the
// laser frame for each light is attached.
type Converter struct {
	Quantum   bool
	Satellite bool
}

// Translate builds a light show for free text. Lower case is folded and
// symbols outside the alphabet are dropped.
func (c Converter) Translate(text string) (*Show, error) {
	lx, dropped := luxbin.Sanitize(text)
	if lx == "" {
		return nil, ErrEmpty
	}
	show, err := c.build(lx)
	if err != nil {
		return nil, err
	}
	show.Dropped = dropped
	return show, nil
}

func (c Converter) build(lx string) (*Show, error) {
	show := &Show{LuxbinText: lx}
	for _, r := range lx {
		idx, err := luxbin.Encode(r)
		if err != nil {
			return nil, err
		}
		nm, err := luxbin.Wavelength(idx)
		if err != nil {
			return nil, err
		}
		if c.Quantum && r == ' ' {
			nm = photon.NVZeroPhononLineNM
		}
		d, err := photon.FromWavelength(nm)
		if err != nil {
			return nil, err
		}

		dur := symbolDuration(r)
		show.Sequence = append(show.Sequence, Light{
			Character:  string(r),
			Index:      idx,
			Descriptor: d,
			HSL:        photon.HSL(nm),
			DurationS:  dur,
		})
		show.TotalDurationS += dur
	}

	if c.Quantum {
		show.Quantum = quantumData(show.Sequence)
	}
	if c.Satellite {
		show.Satellite = SatelliteOperations(show.Sequence)
	}
	return show, nil
}

func symbolDuration(r rune) float64 {
	switch {
	case r == ' ':
		return SpaceDurationS
	case unicode.IsLetter(r), unicode.IsDigit(r):
		return SymbolDurationS
	default:
		return PunctuationDurationS
	}
}

func quantumData(seq []Light) *QuantumData {
	q := &QuantumData{
		TotalStates:    len(seq),
		NVCenterStates: make([]NVState, len(seq)),
	}
	for i, l := range seq {
		q.NVCenterStates[i] = NVState{
			Step:         i,
			WavelengthNM: l.WavelengthNM,
			Band:         photon.Band(l.WavelengthNM).String(),
			PulseUS:      l.DurationS * 1e6,
		}
	}
	q.EstimatedStorageTimeUS = float64(len(seq)) * NVCoherenceUS
	return q
}

// NVTransitionCounts tallies lights per NV band.
type NVTransitionCounts struct {
	ZeroPhonon     int `json:"zero_phonon_count"`
	VioletSideband int `json:"violet_sideband_count"`
	RedSideband    int `json:"red_sideband_count"`
}

// NVTransitions classifies each light against the NV emission bands.
func NVTransitions(seq []Light) NVTransitionCounts {
	var n NVTransitionCounts
	for _, l := range seq {
		switch photon.Band(l.WavelengthNM) {
		case photon.ZeroPhonon:
			n.ZeroPhonon++
		case photon.VioletSideband:
			n.VioletSideband++
		default:
			n.RedSideband++
		}
	}
	return n
}
