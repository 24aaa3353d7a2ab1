// Package morse turns LUXBIN text into timed light pulses: every symbol is
// sent on its own wavelength using a Morse element pattern, with gaps timed
// in the usual 1:3:7 ratio.
package morse

// Timing in milliseconds.
const (
	DotMS       = 5
	DashMS      = 15 // 3 × dot
	IntraGapMS  = 5  // between elements of one symbol
	CharGapMS   = 15 // between symbols
	WordGapMS   = 35 // 7 × dot
	WordGapNM   = 637.0
	defaultCode = "...."
)

// Table maps every LUXBIN symbol to its element pattern. Some punctuation
// shares a pattern; the carrier wavelength disambiguates on the wire.
var Table = map[rune]string{
	'A': ".-", 'B': "-...", 'C': "-.-.", 'D': "-..", 'E': ".",
	'F': "..-.", 'G': "--.", 'H': "....", 'I': "..", 'J': ".---",
	'K': "-.-", 'L': ".-..", 'M': "--", 'N': "-.", 'O': "---",
	'P': ".--.", 'Q': "--.-", 'R': ".-.", 'S': "...", 'T': "-",
	'U': "..-", 'V': "...-", 'W': ".--", 'X': "-..-", 'Y': "-.--",
	'Z': "--..",

	'0': "-----", '1': ".----", '2': "..---", '3': "...--", '4': "....-",
	'5': ".....", '6': "-....", '7': "--...", '8': "---..", '9': "----.",

	' ': " ", '.': ".-.-.-", ',': "--..--", '!': "-.-.--", '?': "..--..",
	';': "-.-.-.", ':': "---...", '-': "-....-", '(': "-.--.", ')': "-.--.-",
	'[': "-.--.", ']': "-.--.-", '{': "-.--.", '}': "-.--.-", '@': ".--.-.",
	'#': "....--", '$': "...-..-", '%': ".--.--", '^': ".-...", '&': ".-...",
	'*': "-..-", '+': ".-.-.", '=': "-...-", '_': "..--.-", '~': ".--..",
	'`': ".----.", '<': ".-..-", '>': ".-..-.", '"': ".-..-.", '\'': ".----.",
	'|': "-..-.", '\\': ".----",
}

// Code returns the element pattern for a symbol.
func Code(r rune) string {
	if c, ok := Table[r]; ok {
		return c
	}
	return defaultCode
}
