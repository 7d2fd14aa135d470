// Package codec converts between the text, byte, hexadecimal and base64
// representations used on the wire and inside the crypto layer.
//
// Every decoding function is strict: malformed hex, base64 or UTF-8 input is
// reported as an error instead of being silently replaced.
package codec

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrInvalidUTF8   = errors.New("invalid utf-8 data")
	ErrInvalidHex    = errors.New("invalid hex string")
	ErrInvalidBase64 = errors.New("invalid base64 string")
)

// StringToBytes returns the UTF-8 encoding of s. Strings carrying invalid
// UTF-8 sequences are rejected so that a decode of the result is lossless.
func StringToBytes(s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, ErrInvalidUTF8
	}
	return []byte(s), nil
}

// BytesToString decodes UTF-8 bytes. Truncated or incorrect sequences fail.
func BytesToString(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}

// BytesToHex returns the lowercase hex encoding of b.
func BytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// HexToBytes decodes a hex string. Odd-length input is treated as having an
// implicit leading zero, so "abc" decodes to {0x0a, 0xbc}.
func HexToBytes(s string) ([]byte, error) {
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	return b, nil
}

// BytesToBase64 returns the standard, padded base64 encoding of b.
func BytesToBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Base64ToBytes decodes standard, padded base64.
func Base64ToBytes(s string) ([]byte, error) {
	b, err := base64.StdEncoding.Strict().DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}
	return b, nil
}

// StringToBase64 base64-encodes the UTF-8 bytes of s.
func StringToBase64(s string) (string, error) {
	b, err := StringToBytes(s)
	if err != nil {
		return "", err
	}
	return BytesToBase64(b), nil
}

// Base64ToString decodes base64 and then UTF-8.
func Base64ToString(s string) (string, error) {
	b, err := Base64ToBytes(s)
	if err != nil {
		return "", err
	}
	return BytesToString(b)
}
