// Package deltaenc is a direct port of original_source/src/delta_encoding.h:
// a small, dependency-free, bijective transform over a fixed 77-character
// alphabet. The inspector CLI uses it to obfuscate cache keys in printed
// diagnostics while still letting an operator visually diff two snapshots
// for key churn.
//
// © 2025 cachecore authors. MIT License.
package deltaenc

import "fmt"

// Charset is the fixed 77-character alphabet every encoded character is
// drawn from, in original_source's exact order.
const Charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_!@#$%^&*()-=+[]{};:'\",.<>?/|\\~"

const charsetSize = len(Charset)

var charToValue [256]int

func init() {
	for i := range charToValue {
		charToValue[i] = -1
	}
	for v, c := range Charset {
		charToValue[byte(c)] = v
	}
}

// Encode maps each character of s to its delta from the previous encoded
// position, wrapping around the alphabet, and emits the result as
// characters from Charset. Every input character must belong to Charset;
// ErrInvalidChar is returned otherwise.
func Encode(s string) (string, error) {
	out := make([]byte, len(s))
	prev := 0
	for i := 0; i < len(s); i++ {
		v := charToValue[s[i]]
		if v < 0 {
			return "", fmt.Errorf("deltaenc: character %q at offset %d is not in the charset", s[i], i)
		}
		delta := (v - prev + charsetSize) % charsetSize
		out[i] = Charset[delta]
		prev = v
	}
	return string(out), nil
}

// Decode reverses Encode.
func Decode(s string) (string, error) {
	out := make([]byte, len(s))
	prev := 0
	for i := 0; i < len(s); i++ {
		d := charToValue[s[i]]
		if d < 0 {
			return "", fmt.Errorf("deltaenc: character %q at offset %d is not in the charset", s[i], i)
		}
		v := (prev + d) % charsetSize
		out[i] = Charset[v]
		prev = v
	}
	return string(out), nil
}
