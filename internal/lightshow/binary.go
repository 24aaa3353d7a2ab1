package lightshow

import (
	"fmt"

	"github.com/nicheai/luxbin/internal/luxbin"
)

// BinaryShow is a light show for an arbitrary byte payload.
type BinaryShow struct {
	Show
	OriginalSize     int     `json:"original_size"`
	CompressedSize   int     `json:"compressed_size"`
	Compressed       bool    `json:"compressed"`
	CompressionRatio float64 `json:"data_compression"`
}

// Binary builds a light show for raw bytes. With compress set, the payload
// is run-length encoded first when that makes it smaller.
func (c Converter) Binary(data []byte, compress bool) (*BinaryShow, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	payload := data
	compressed := false
	if compress {
		if rle := Compress(data); len(rle) < len(data) {
			payload = rle
			compressed = true
		}
	}

	show, err := c.build(luxbin.EncodeBytes(payload))
	if err != nil {
		return nil, err
	}
	return &BinaryShow{
		Show:             *show,
		OriginalSize:     len(data),
		CompressedSize:   len(payload),
		Compressed:       compressed,
		CompressionRatio: float64(len(data)) / float64(len(payload)),
	}, nil
}

// Compress run-length encodes data as (count, value) pairs, runs ≤ 255.
func Compress(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); {
		v := data[i]
		n := 1
		for i+n < len(data) && data[i+n] == v && n < 255 {
			n++
		}
		out = append(out, byte(n), v)
		i += n
	}
	return out
}

// Decompress reverses Compress.
func Decompress(rle []byte) ([]byte, error) {
	if len(rle)%2 != 0 {
		return nil, fmt.Errorf("run-length payload has odd length %d", len(rle))
	}
	var out []byte
	for i := 0; i < len(rle); i += 2 {
		n := int(rle[i])
		if n == 0 {
			return nil, fmt.Errorf("zero-length run at offset %d", i)
		}
		for k := 0; k < n; k++ {
			out = append(out, rle[i+1])
		}
	}
	return out, nil
}
