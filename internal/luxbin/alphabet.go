// Package luxbin implements the LUXBIN alphabet codec: a fixed, ordered
// symbol table mapped bijectively onto small integer codes, plus the binary,
// byte-payload and wavelength renderings built on top of it.
package luxbin

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Alphabet is the ordered LUXBIN symbol table. A symbol's code is its position.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 .,!?;:-()[]{}@#$%^&*+=_~`<>\"'|\\"

// Size is the number of symbols in the alphabet.
const Size = len(Alphabet)

// CodeWidth is the fixed bit width of a rendered code. The alphabet holds
// more than 64 symbols, so six bits do not address all of it.
const CodeWidth = 7

var (
	ErrUnknownSymbol = errors.New("unknown LUXBIN symbol")
	ErrOutOfRange    = errors.New("LUXBIN index out of range")
	ErrInvalidBits   = errors.New("invalid LUXBIN bit string")
)

// SymbolError reports a rune that has no LUXBIN code.
type SymbolError struct {
	Symbol rune
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownSymbol, e.Symbol)
}

func (e *SymbolError) Unwrap() error { return ErrUnknownSymbol }

// IndexError reports a code outside [0, Size-1].
type IndexError struct {
	Index int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: %d not in [0, %d]", ErrOutOfRange, e.Index, Size-1)
}

func (e *IndexError) Unwrap() error { return ErrOutOfRange }

var codes = func() map[rune]int {
	m := make(map[rune]int, Size)
	for i, r := range Alphabet {
		m[r] = i
	}
	return m
}()

// Encode returns the code of a symbol.
func Encode(r rune) (int, error) {
	i, ok := codes[r]
	if !ok {
		return 0, &SymbolError{Symbol: r}
	}
	return i, nil
}

// Decode returns the symbol for a code.
func Decode(index int) (rune, error) {
	if index < 0 || index >= Size {
		return 0, &IndexError{Index: index}
	}
	return rune(Alphabet[index]), nil
}

// Contains reports whether r is a LUXBIN symbol.
func Contains(r rune) bool {
	_, ok := codes[r]
	return ok
}

// EncodeString encodes every rune of s, failing on the first unknown one.
func EncodeString(s string) ([]int, error) {
	out := make([]int, 0, len(s))
	for _, r := range s {
		i, err := Encode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}

// DecodeIndices is the inverse of EncodeString.
func DecodeIndices(indices []int) (string, error) {
	var b strings.Builder
	b.Grow(len(indices))
	for _, i := range indices {
		r, err := Decode(i)
		if err != nil {
			return "", err
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}

// Sanitize upper-cases text and drops runes the alphabet cannot carry.
// It returns the LUXBIN text and the number of runes dropped.
func Sanitize(text string) (string, int) {
	var b strings.Builder
	b.Grow(len(text))
	dropped := 0
	for _, r := range text {
		r = unicode.ToUpper(r)
		if !Contains(r) {
			dropped++
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), dropped
}
