package cryptox

import (
	"errors"
	"strings"
)

// Character classes used by the password generator. Symbol is the space
// followed by every printable ASCII punctuation character except the backslash.
const (
	Lower  = "abcdefghijklmnopqrstuvwxyz"
	Upper  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Number = "0123456789"
	Symbol = " !\"#$%&'()*+,-./:;<=>?@[]^_`{|}~"
)

var ErrEmptyAlphabet = errors.New("empty alphabet")

// RandomFromAlphabet returns length characters drawn from alphabet.
//
// Two random bytes are consumed per character: the little-endian 16-bit value
// v is mapped to alphabet[v*len(alphabet)/65536]. The mapping is fixed so that
// generated output can be reproduced from a known byte stream.
func RandomFromAlphabet(length int, alphabet string) (string, error) {
	if length <= 0 {
		return "", nil
	}
	if alphabet == "" {
		return "", ErrEmptyAlphabet
	}

	b, err := RandomBytes(length * 2)
	if err != nil {
		return "", err
	}
	defer Wipe(b)

	return randomFromAlphabetBytes(b, alphabet), nil
}

func randomFromAlphabetBytes(b []byte, alphabet string) string {
	runes := []rune(alphabet)

	var sb strings.Builder
	for i := 1; i < len(b); i += 2 {
		v := int(b[i-1]) + int(b[i])*256
		sb.WriteRune(runes[v*len(runes)/0x10000])
	}
	return sb.String()
}

// Alphabet concatenates the selected character classes.
func Alphabet(lower, upper, number, symbol bool) string {
	var sb strings.Builder
	if lower {
		sb.WriteString(Lower)
	}
	if upper {
		sb.WriteString(Upper)
	}
	if number {
		sb.WriteString(Number)
	}
	if symbol {
		sb.WriteString(Symbol)
	}
	return sb.String()
}
