package morse

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nicheai/luxbin/internal/luxbin"
	"github.com/nicheai/luxbin/internal/optics"
)

// Pulse is one timed segment of a transmission. Gaps carry no light except
// the word gap, which is held on the NV zero-phonon line.
type Pulse struct {
	WavelengthNM   float64           `json:"wavelength_nm"`
	DurationMS     int               `json:"duration_ms"`
	Char           string            `json:"char"`
	Element        string            `json:"morse"`
	Gap            bool              `json:"is_gap"`
	CombLines      int               `json:"num_comb_lines,omitempty"`
	CombEfficiency float64           `json:"comb_efficiency,omitempty"`
	SFEfficiency   float64           `json:"sf_efficiency,omitempty"`
	QDPeak         float64           `json:"qd_peak,omitempty"`
	SFPeak         float64           `json:"sf_peak,omitempty"`
	Comb           []optics.CombLine `json:"frequency_comb,omitempty"`
}

// Encoder builds pulse sequences. KeepSpectra retains each pulse's full
// comb spectrum; otherwise only its summary is kept.
type Encoder struct {
	Comb        *optics.CombGenerator
	Dot         *optics.QuantumDot
	KeepSpectra bool
}

// NewEncoder returns an encoder with default optics.
func NewEncoder() *Encoder {
	return &Encoder{
		Comb: optics.NewCombGenerator(),
		Dot:  optics.NewQuantumDot(),
	}
}

// Encode converts text into a pulse sequence. The text is sanitised first,
// so lower case is folded and runes outside the alphabet are dropped.
func (e *Encoder) Encode(text string) ([]Pulse, error) {
	lx, _ := luxbin.Sanitize(text)
	symbols := []rune(lx)

	// Quantum-dot waveforms depend only on the element, so sample them once.
	qdPeak := make(map[rune]float64, 2)
	sfPeak := make(map[rune]float64, 2)
	for _, el := range []rune{optics.Dot, optics.Dash} {
		w := e.Dot.Emit(el)
		qdPeak[el] = w.Peak()
		sfPeak[el] = e.Dot.Convert(w).Peak()
	}

	var seq []Pulse
	for i, r := range symbols {
		nm, err := luxbin.SymbolWavelength(r)
		if err != nil {
			return nil, err
		}

		if r == ' ' {
			seq = append(seq, Pulse{
				WavelengthNM: WordGapNM,
				DurationMS:   WordGapMS,
				Char:         " ",
				Element:      "SPACE",
				Gap:          true,
			})
			continue
		}

		code := Code(r)
		for j, el := range code {
			comb := e.Comb.Generate(nm, el)
			dur := DotMS
			if el == optics.Dash {
				dur = DashMS
			}
			p := Pulse{
				WavelengthNM:   nm,
				DurationMS:     dur,
				Char:           string(r),
				Element:        string(el),
				CombLines:      len(comb),
				CombEfficiency: e.Comb.Efficiency(comb),
				SFEfficiency:   e.Dot.ConversionEfficiency,
				QDPeak:         qdPeak[el],
				SFPeak:         sfPeak[el],
			}
			if e.KeepSpectra {
				p.Comb = comb
			}
			seq = append(seq, p)

			if j < len(code)-1 {
				seq = append(seq, Pulse{DurationMS: IntraGapMS, Gap: true})
			}
		}

		if i < len(symbols)-1 && symbols[i+1] != ' ' {
			seq = append(seq, Pulse{DurationMS: CharGapMS, Gap: true})
		}
	}
	return seq, nil
}

// ErrMalformed is returned when a pulse sequence cannot be decoded.
var ErrMalformed = errors.New("malformed pulse sequence")

// Decode recovers LUXBIN text from a pulse sequence. Symbols are identified
// by carrier wavelength and checked against their element pattern.
func Decode(seq []Pulse) (string, error) {
	var out strings.Builder
	pending := -1
	var elements strings.Builder

	flush := func() error {
		if pending < 0 {
			return nil
		}
		r, err := luxbin.Decode(pending)
		if err != nil {
			return err
		}
		if got := elements.String(); got != Code(r) {
			return fmt.Errorf("%w: symbol %q sent as %q", ErrMalformed, r, got)
		}
		out.WriteRune(r)
		pending = -1
		elements.Reset()
		return nil
	}

	for n, p := range seq {
		switch {
		case p.Gap && p.WavelengthNM == WordGapNM && p.DurationMS == WordGapMS:
			if err := flush(); err != nil {
				return "", err
			}
			out.WriteRune(' ')
		case p.Gap && p.DurationMS == CharGapMS:
			if err := flush(); err != nil {
				return "", err
			}
		case p.Gap:
			// Intra-symbol gap.
		default:
			idx, err := luxbin.IndexOfWavelength(p.WavelengthNM)
			if err != nil {
				return "", fmt.Errorf("pulse %d: %w", n, err)
			}
			if pending >= 0 && idx != pending {
				return "", fmt.Errorf("%w: carrier changed inside symbol at pulse %d", ErrMalformed, n)
			}
			pending = idx
			elements.WriteString(p.Element)
		}
	}
	if err := flush(); err != nil {
		return "", err
	}
	return out.String(), nil
}

// Stats summarises a transmission.
type Stats struct {
	TotalMS           int     `json:"total_ms"`
	Pulses            int     `json:"pulses"`
	UniqueWavelengths int     `json:"unique_wavelengths"`
	CombLines         int     `json:"total_comb_lines"`
	AvgCombEfficiency float64 `json:"avg_comb_efficiency"`
	AvgSFEfficiency   float64 `json:"avg_sf_efficiency"`
	CharsPerSecond    float64 `json:"chars_per_second"`
}

// Summarize computes transmission statistics for text sent as seq.
func Summarize(text string, seq []Pulse) Stats {
	var s Stats
	wavelengths := make(map[float64]struct{})
	var combSum, sfSum float64
	var combN, sfN int

	for _, p := range seq {
		s.TotalMS += p.DurationMS
		if !p.Gap {
			s.Pulses++
		}
		if p.WavelengthNM > 0 {
			wavelengths[p.WavelengthNM] = struct{}{}
		}
		s.CombLines += p.CombLines
		if p.CombEfficiency > 0 {
			combSum += p.CombEfficiency
			combN++
		}
		if p.SFEfficiency > 0 {
			sfSum += p.SFEfficiency
			sfN++
		}
	}

	s.UniqueWavelengths = len(wavelengths)
	if combN > 0 {
		s.AvgCombEfficiency = combSum / float64(combN)
	}
	if sfN > 0 {
		s.AvgSFEfficiency = sfSum / float64(sfN)
	}
	if s.TotalMS > 0 {
		s.CharsPerSecond = float64(utf8.RuneCountInString(text)) / (float64(s.TotalMS) / 1000)
	}
	return s
}
