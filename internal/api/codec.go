package api

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nicheai/luxbin/internal/lightshow"
	"github.com/nicheai/luxbin/internal/luxbin"
	"github.com/nicheai/luxbin/internal/morse"
	"github.com/nicheai/luxbin/internal/photon"
)

const compactLimit = 10

// boolOr returns *p, or def when the field was omitted.
func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// handlePhoton serves GET /v1/photon?wavelength=nm or ?frequency=hz.
func (s *Server) handlePhoton(w http.ResponseWriter, r *http.Request) {
	if !getOnly(w, r) {
		return
	}
	q := r.URL.Query()
	wl, fr := q.Get("wavelength"), q.Get("frequency")
	if (wl == "") == (fr == "") {
		http.Error(w, "exactly one of wavelength or frequency is required", http.StatusBadRequest)
		return
	}

	var (
		d   photon.Descriptor
		err error
	)
	if wl != "" {
		v, perr := strconv.ParseFloat(wl, 64)
		if perr != nil {
			http.Error(w, "invalid wavelength", http.StatusBadRequest)
			return
		}
		d, err = photon.FromWavelength(v)
	} else {
		v, perr := strconv.ParseFloat(fr, 64)
		if perr != nil {
			http.Error(w, "invalid frequency", http.StatusBadRequest)
			return
		}
		d, err = photon.FromFrequency(v)
	}
	if err != nil {
		writeError(w, "photon", err)
		return
	}

	writeJSON(w, map[string]any{
		"wavelength_nm": d.WavelengthNM,
		"frequency_hz":  d.FrequencyHz,
		"energy_ev":     d.EnergyEV,
		"nv_band":       photon.Band(d.WavelengthNM).String(),
		"hsl":           photon.HSL(d.WavelengthNM),
		"visible":       d.WavelengthNM >= photon.VisibleMinNM && d.WavelengthNM <= photon.VisibleMaxNM,
	})
}

// textShow translates text, falling back to its UTF-8 bytes when none of
// it is in the alphabet.
func textShow(c lightshow.Converter, text string) (*lightshow.Show, error) {
	show, err := c.Translate(text)
	if errors.Is(err, lightshow.ErrEmpty) && text != "" {
		b, berr := c.Binary([]byte(text), false)
		if berr != nil {
			return nil, berr
		}
		return &b.Show, nil
	}
	return show, err
}

type translateRequest struct {
	Text            string `json:"text"`
	Category        string `json:"category"`
	EnableQuantum   *bool  `json:"enable_quantum"`
	EnableSatellite bool   `json:"enable_satellite"`
	Format          string `json:"format"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	format := req.Format
	if format == "" {
		format = "full"
	}
	if format != "full" && format != "summary" && format != "compact" {
		http.Error(w, fmt.Sprintf("unknown format %q (want full, summary or compact)", format), http.StatusBadRequest)
		return
	}

	quantum := boolOr(req.EnableQuantum, true)
	show, err := textShow(lightshow.Converter{Quantum: quantum, Satellite: req.EnableSatellite}, req.Text)
	if err != nil {
		writeError(w, "translation", err)
		return
	}

	switch format {
	case "summary":
		writeJSON(w, map[string]any{
			"success":               true,
			"text":                  req.Text,
			"quantum_mode":          quantum,
			"total_characters":      len([]rune(req.Text)),
			"total_duration":        show.TotalDurationS,
			"wavelength_range":      "400-700nm (visible spectrum)",
			"nv_center_optimized":   quantum,
			"light_sequence_length": len(show.Sequence),
		})
	case "compact":
		seq := show.Sequence
		if len(seq) > compactLimit {
			seq = seq[:compactLimit]
		}
		writeJSON(w, map[string]any{
			"success":        true,
			"light_sequence": seq,
			"total_length":   len(show.Sequence),
			"quantum_data":   show.Quantum,
		})
	default:
		writeJSON(w, map[string]any{
			"success":        true,
			"text":           req.Text,
			"quantum_mode":   quantum,
			"satellite_mode": req.EnableSatellite,
			"light_show":     show,
			"api_version":    Version,
			"timestamp":      unixSeconds(time.Now()),
		})
	}
}

type quantumEncodeRequest struct {
	Text         string `json:"text"`
	UseGrammar   *bool  `json:"use_grammar"`
	NVCenterType string `json:"nv_center_type"`
}

func (s *Server) handleQuantumEncode(w http.ResponseWriter, r *http.Request) {
	var req quantumEncodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.NVCenterType == "" {
		req.NVCenterType = "diamond"
	}

	c := lightshow.Converter{Quantum: true}
	var (
		show *lightshow.Show
		err  error
	)
	if boolOr(req.UseGrammar, true) {
		show, err = textShow(c, req.Text)
	} else {
		var b *lightshow.BinaryShow
		if b, err = c.Binary([]byte(req.Text), false); err == nil {
			show = &b.Show
		}
	}
	if err != nil {
		writeError(w, "quantum encoding", err)
		return
	}

	nv := show.Quantum
	writeJSON(w, map[string]any{
		"success":        true,
		"text":           req.Text,
		"nv_center_type": req.NVCenterType,
		"quantum_data":   nv,
		"nv_transitions": lightshow.NVTransitions(show.Sequence),
		"light_sequence": show.Sequence,
		"programming_instructions": map[string]string{
			"primary_wavelength":     fmt.Sprintf("%gnm (zero-phonon line)", photon.NVZeroPhononLineNM),
			"pulse_sequence":         fmt.Sprintf("%d pulses", nv.TotalStates),
			"estimated_storage_time": fmt.Sprintf("%gμs", nv.EstimatedStorageTimeUS),
			"coherence_time":         fmt.Sprintf("~%gμs at room temperature", lightshow.NVCoherenceUS),
		},
		"timestamp": unixSeconds(time.Now()),
	})
}

type ionTrapRequest struct {
	Command string `json:"command"`
	IonType string `json:"ion_type"`
}

func (s *Server) handleIonTrap(w http.ResponseWriter, r *http.Request) {
	var req ionTrapRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.IonType != "" && !knownIon(req.IonType) {
		http.Error(w, fmt.Sprintf("unknown ion type %q", req.IonType), http.StatusBadRequest)
		return
	}

	show, err := lightshow.Converter{Quantum: true}.Translate(req.Command)
	if err != nil {
		writeError(w, "ion trap control", err)
		return
	}

	ops := lightshow.IonTrapOperations(show.Sequence)
	if req.IonType != "" {
		kept := ops[:0]
		for _, op := range ops {
			if op.Ion == req.IonType {
				kept = append(kept, op)
			}
		}
		ops = kept
	}
	total := 0.0
	for _, op := range ops {
		total += op.DurationS
	}

	writeJSON(w, map[string]any{
		"success":          true,
		"command":          req.Command,
		"ion_operations":   ops,
		"total_operations": len(ops),
		"execution_time":   total,
		"hardware_ready":   true,
		"timestamp":        unixSeconds(time.Now()),
	})
}

func knownIon(ion string) bool {
	for _, t := range lightshow.IonTransitions {
		if t.Ion == ion {
			return true
		}
	}
	return false
}

type binaryEncodeRequest struct {
	BinaryData     string `json:"binary_data"`
	UseCompression *bool  `json:"use_compression"`
	EnableQuantum  *bool  `json:"enable_quantum"`
}

func (s *Server) handleBinaryEncode(w http.ResponseWriter, r *http.Request) {
	var req binaryEncodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	data, err := hex.DecodeString(req.BinaryData)
	if err != nil {
		http.Error(w, "invalid hex data", http.StatusBadRequest)
		return
	}

	quantum := boolOr(req.EnableQuantum, true)
	show, err := lightshow.Converter{Quantum: quantum}.Binary(data, boolOr(req.UseCompression, true))
	if err != nil {
		writeError(w, "binary encoding", err)
		return
	}

	writeJSON(w, map[string]any{
		"success":           true,
		"original_size":     show.OriginalSize,
		"compressed_size":   show.CompressedSize,
		"compressed":        show.Compressed,
		"compression_ratio": show.CompressionRatio,
		"quantum_mode":      quantum,
		"luxbin_payload":    show.LuxbinText,
		"light_sequence":    show.Sequence,
		"total_duration":    show.TotalDurationS,
		"quantum_data":      show.Quantum,
		"timestamp":         unixSeconds(time.Now()),
	})
}

type satelliteRequest struct {
	Data   string `json:"data"`
	Region string `json:"region"`
}

func (s *Server) handleSatellite(w http.ResponseWriter, r *http.Request) {
	var req satelliteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Region == "" {
		req.Region = "global"
	}

	show, err := lightshow.Converter{Satellite: true}.Translate(req.Data)
	if err != nil {
		writeError(w, "satellite transmission", err)
		return
	}
	ops := show.Satellite
	total := 0.0
	for _, op := range ops {
		total += op.DurationS
	}

	writeJSON(w, map[string]any{
		"success":              true,
		"data":                 req.Data,
		"region":               req.Region,
		"satellite_operations": ops,
		"total_operations":     len(ops),
		"transmission_time":    total,
		"global_coverage":      true,
		"timestamp":            unixSeconds(time.Now()),
	})
}

type luxbinEncodeRequest struct {
	Text string `json:"text"`
	Hex  string `json:"hex"`
}

// handleLuxbinEncode encodes either text or hex bytes. Text is folded to
// the alphabet; hex is packed into the byte payload form.
func (s *Server) handleLuxbinEncode(w http.ResponseWriter, r *http.Request) {
	var req luxbinEncodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if (req.Text == "") == (req.Hex == "") {
		http.Error(w, "exactly one of text or hex is required", http.StatusBadRequest)
		return
	}

	if req.Hex != "" {
		data, err := hex.DecodeString(req.Hex)
		if err != nil {
			http.Error(w, "invalid hex data", http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{
			"payload": luxbin.EncodeBytes(data),
			"bytes":   len(data),
		})
		return
	}

	lx, dropped := luxbin.Sanitize(req.Text)
	indices, err := luxbin.EncodeString(lx)
	if err != nil {
		writeError(w, "luxbin encoding", err)
		return
	}
	bits, err := luxbin.ToBinary(lx)
	if err != nil {
		writeError(w, "luxbin encoding", err)
		return
	}
	wavelengths := make([]float64, len(indices))
	for i, idx := range indices {
		if wavelengths[i], err = luxbin.Wavelength(idx); err != nil {
			writeError(w, "luxbin encoding", err)
			return
		}
	}

	writeJSON(w, map[string]any{
		"luxbin_text":        lx,
		"dropped_characters": dropped,
		"indices":            indices,
		"binary":             bits,
		"code_width":         luxbin.CodeWidth,
		"wavelengths_nm":     wavelengths,
	})
}

type luxbinDecodeRequest struct {
	Indices []int  `json:"indices"`
	Binary  string `json:"binary"`
	Payload string `json:"payload"`
}

// handleLuxbinDecode accepts exactly one of indices, binary or payload.
func (s *Server) handleLuxbinDecode(w http.ResponseWriter, r *http.Request) {
	var req luxbinDecodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	set := 0
	for _, ok := range []bool{req.Indices != nil, req.Binary != "", req.Payload != ""} {
		if ok {
			set++
		}
	}
	if set != 1 {
		http.Error(w, "exactly one of indices, binary or payload is required", http.StatusBadRequest)
		return
	}

	switch {
	case req.Payload != "":
		data, err := luxbin.DecodeBytes(req.Payload)
		if err != nil {
			writeError(w, "luxbin decoding", err)
			return
		}
		writeJSON(w, map[string]any{"hex": hex.EncodeToString(data), "bytes": len(data)})
	case req.Binary != "":
		text, err := luxbin.FromBinary(req.Binary)
		if err != nil {
			writeError(w, "luxbin decoding", err)
			return
		}
		writeJSON(w, map[string]any{"text": text})
	default:
		text, err := luxbin.DecodeIndices(req.Indices)
		if err != nil {
			writeError(w, "luxbin decoding", err)
			return
		}
		writeJSON(w, map[string]any{"text": text})
	}
}

type morseRequest struct {
	Text    string `json:"text"`
	Spectra bool   `json:"spectra"`
}

func (s *Server) handleMorseEncode(w http.ResponseWriter, r *http.Request) {
	var req morseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	lx, dropped := luxbin.Sanitize(req.Text)
	if lx == "" {
		http.Error(w, "text has no LUXBIN symbols", http.StatusBadRequest)
		return
	}

	enc := morse.NewEncoder()
	enc.KeepSpectra = req.Spectra
	seq, err := enc.Encode(lx)
	if err != nil {
		writeError(w, "morse encoding", err)
		return
	}

	writeJSON(w, map[string]any{
		"luxbin_text":        lx,
		"dropped_characters": dropped,
		"pulses":             seq,
		"stats":              morse.Summarize(lx, seq),
	})
}
