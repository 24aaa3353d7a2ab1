package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nicheai/luxbin/internal/luxbin"
	"github.com/nicheai/luxbin/internal/morse"
	"github.com/nicheai/luxbin/internal/optics"
	"github.com/nicheai/luxbin/internal/photon"
)

func newPhotonCmd(opts *options) *cobra.Command {
	var wavelength, frequency float64
	cmd := &cobra.Command{
		Use:   "photon",
		Short: "Describe a photon by wavelength (nm) or frequency (Hz)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wSet, fSet := cmd.Flags().Changed("wavelength"), cmd.Flags().Changed("frequency")
			if wSet == fSet {
				return errors.New("exactly one of --wavelength or --frequency is required")
			}
			var (
				d   photon.Descriptor
				err error
			)
			if wSet {
				d, err = photon.FromWavelength(wavelength)
			} else {
				d, err = photon.FromFrequency(frequency)
			}
			if err != nil {
				return err
			}

			band := photon.Band(d.WavelengthNM).String()
			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"wavelength_nm": d.WavelengthNM,
					"frequency_hz":  d.FrequencyHz,
					"energy_ev":     d.EnergyEV,
					"nv_band":       band,
					"hsl":           photon.HSL(d.WavelengthNM),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "wavelength  %.3f nm\n", d.WavelengthNM)
			fmt.Fprintf(out, "frequency   %s\n", humanize.SIWithDigits(d.FrequencyHz, 4, "Hz"))
			fmt.Fprintf(out, "energy      %.4f eV\n", d.EnergyEV)
			fmt.Fprintf(out, "nv band     %s\n", band)
			fmt.Fprintf(out, "colour      %s\n", photon.HSL(d.WavelengthNM))
			return nil
		},
	}
	cmd.Flags().Float64Var(&wavelength, "wavelength", 0, "wavelength in nanometres")
	cmd.Flags().Float64Var(&frequency, "frequency", 0, "frequency in hertz")
	return cmd
}

func newEncodeCmd(opts *options) *cobra.Command {
	var hexIn bool
	cmd := &cobra.Command{
		Use:   "encode <text...>",
		Short: "Encode text (or hex bytes with --hex) into LUXBIN",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := strings.Join(args, " ")
			out := cmd.OutOrStdout()

			if hexIn {
				data, err := hex.DecodeString(input)
				if err != nil {
					return fmt.Errorf("invalid hex data: %w", err)
				}
				payload := luxbin.EncodeBytes(data)
				if opts.jsonOut {
					return printJSON(out, map[string]any{"payload": payload, "bytes": len(data)})
				}
				fmt.Fprintln(out, payload)
				return nil
			}

			lx, dropped := luxbin.Sanitize(input)
			if lx == "" {
				return errors.New("text has no LUXBIN symbols")
			}
			indices, err := luxbin.EncodeString(lx)
			if err != nil {
				return err
			}
			bits, err := luxbin.ToBinary(lx)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(out, map[string]any{
					"luxbin_text":        lx,
					"dropped_characters": dropped,
					"indices":            indices,
					"binary":             bits,
				})
			}
			fmt.Fprintf(out, "text     %s\n", lx)
			if dropped > 0 {
				fmt.Fprintf(out, "dropped  %d\n", dropped)
			}
			fmt.Fprintf(out, "indices  %s\n", joinInts(indices))
			fmt.Fprintf(out, "binary   %s\n", bits)
			return nil
		},
	}
	cmd.Flags().BoolVar(&hexIn, "hex", false, "treat the argument as hex bytes and print the byte payload")
	return cmd
}

func newDecodeCmd(opts *options) *cobra.Command {
	var payload bool
	var indices []int
	cmd := &cobra.Command{
		Use:   "decode [bits|payload]",
		Short: "Decode a LUXBIN bit string, byte payload (--payload) or code list (--indices)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			hasIndices := cmd.Flags().Changed("indices")
			if hasIndices == (len(args) == 1) {
				return errors.New("give either one argument or --indices")
			}

			switch {
			case hasIndices:
				text, err := luxbin.DecodeIndices(indices)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, text)
			case payload:
				data, err := luxbin.DecodeBytes(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, hex.EncodeToString(data))
			default:
				text, err := luxbin.FromBinary(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&payload, "payload", false, "argument is a byte payload; print hex")
	cmd.Flags().IntSliceVar(&indices, "indices", nil, "comma-separated symbol codes")
	return cmd
}

func newMorseCmd(opts *options) *cobra.Command {
	var spectra bool
	cmd := &cobra.Command{
		Use:   "morse <text...>",
		Short: "Render text as a timed wavelength-keyed Morse pulse train",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lx, _ := luxbin.Sanitize(strings.Join(args, " "))
			if lx == "" {
				return errors.New("text has no LUXBIN symbols")
			}
			enc := morse.NewEncoder()
			enc.KeepSpectra = spectra
			seq, err := enc.Encode(lx)
			if err != nil {
				return err
			}
			stats := morse.Summarize(lx, seq)

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return printJSON(out, map[string]any{"luxbin_text": lx, "pulses": seq, "stats": stats})
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CHAR\tELEMENT\tWAVELENGTH\tMS")
			for _, p := range seq {
				if p.Gap && p.Char == "" {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%.2f nm\t%d\n", p.Char, p.Element, p.WavelengthNM, p.DurationMS)
			}
			tw.Flush()
			fmt.Fprintf(out, "\n%d pulses, %d ms, %.1f chars/s, %d comb lines\n",
				stats.Pulses, stats.TotalMS, stats.CharsPerSecond, stats.CombLines)
			return nil
		},
	}
	cmd.Flags().BoolVar(&spectra, "spectra", false, "include each pulse's comb spectrum in JSON output")
	return cmd
}

func newCombCmd(opts *options) *cobra.Command {
	var element string
	var lines int
	cmd := &cobra.Command{
		Use:   "comb <wavelength-nm>",
		Short: "Generate the frequency comb for a carrier wavelength",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nm, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid wavelength %q: %w", args[0], err)
			}
			if _, err := photon.FromWavelength(nm); err != nil {
				return err
			}
			if lines < 0 {
				return fmt.Errorf("--lines must not be negative, got %d", lines)
			}
			var symbol rune
			switch element {
			case "dot":
				symbol = optics.Dot
			case "dash":
				symbol = optics.Dash
			default:
				return fmt.Errorf("unknown element %q (want dot or dash)", element)
			}

			g := optics.NewCombGenerator()
			g.Lines = lines
			comb := g.Generate(nm, symbol)

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return printJSON(out, map[string]any{"lines": comb, "efficiency": g.Efficiency(comb)})
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LINE\tWAVELENGTH\tFREQUENCY\tINTENSITY")
			for _, l := range comb {
				fmt.Fprintf(tw, "%d\t%.4f nm\t%s\t%.4f\n", l.Index, l.WavelengthNM, humanize.SIWithDigits(l.FrequencyHz, 6, "Hz"), l.Intensity)
			}
			tw.Flush()
			fmt.Fprintf(out, "\nefficiency %.4f\n", g.Efficiency(comb))
			return nil
		},
	}
	cmd.Flags().StringVar(&element, "element", "dot", "Morse element pumping the comb: dot or dash")
	cmd.Flags().IntVar(&lines, "lines", optics.DefaultCombLines, "number of comb lines")
	return cmd
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
