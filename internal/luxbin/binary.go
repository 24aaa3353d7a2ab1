package luxbin

import (
	"fmt"
	"strings"
)

// Bits renders a code as exactly CodeWidth binary digits.
func Bits(index int) (string, error) {
	if index < 0 || index >= Size {
		return "", &IndexError{Index: index}
	}
	return fmt.Sprintf("%0*b", CodeWidth, index), nil
}

// ToBinary renders LUXBIN text as a fixed-width bit string.
func ToBinary(s string) (string, error) {
	indices, err := EncodeString(s)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(len(indices) * CodeWidth)
	for _, i := range indices {
		bits, _ := Bits(i)
		b.WriteString(bits)
	}
	return b.String(), nil
}

// FromBinary parses a bit string produced by ToBinary.
func FromBinary(bits string) (string, error) {
	if len(bits)%CodeWidth != 0 {
		return "", fmt.Errorf("%w: length %d is not a multiple of %d", ErrInvalidBits, len(bits), CodeWidth)
	}
	indices := make([]int, 0, len(bits)/CodeWidth)
	for off := 0; off < len(bits); off += CodeWidth {
		v := 0
		for _, c := range bits[off : off+CodeWidth] {
			switch c {
			case '0':
				v <<= 1
			case '1':
				v = v<<1 | 1
			default:
				return "", fmt.Errorf("%w: bit %q at offset %d", ErrInvalidBits, c, off)
			}
		}
		indices = append(indices, v)
	}
	return DecodeIndices(indices)
}

// EncodeBytes packs arbitrary bytes into 6-bit groups, one symbol per group.
// Only the first 64 symbols are used; the final group is zero-padded.
func EncodeBytes(data []byte) string {
	var b strings.Builder
	b.Grow((len(data)*8 + 5) / 6)

	var acc uint32
	var nbits uint
	for _, c := range data {
		acc = acc<<8 | uint32(c)
		nbits += 8
		for nbits >= 6 {
			nbits -= 6
			b.WriteByte(Alphabet[(acc>>nbits)&0x3f])
		}
	}
	if nbits > 0 {
		b.WriteByte(Alphabet[(acc<<(6-nbits))&0x3f])
	}
	return b.String()
}

// DecodeBytes reverses EncodeBytes. Padding bits are discarded.
func DecodeBytes(s string) ([]byte, error) {
	out := make([]byte, 0, len(s)*6/8)

	var acc uint32
	var nbits uint
	for _, r := range s {
		i, err := Encode(r)
		if err != nil {
			return nil, err
		}
		if i >= 64 {
			return nil, fmt.Errorf("symbol %q does not carry a 6-bit group: %w", r, ErrOutOfRange)
		}
		acc = acc<<6 | uint32(i)
		nbits += 6
		if nbits >= 8 {
			nbits -= 8
			out = append(out, byte(acc>>nbits))
		}
	}
	return out, nil
}
