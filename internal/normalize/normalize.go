// Package normalize cleans catalog text before it is stored.
package normalize

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidISBN is returned for ISBNs with the wrong length, stray
// characters or a bad check digit.
var ErrInvalidISBN = errors.New("invalid ISBN")

// Text composes s to NFC, drops null bytes and control characters, and
// collapses runs of whitespace to a single space.
// "  The\tHobbit\x00 " -> "The Hobbit".
func Text(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == 0:
			return -1
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// ISBN returns the ISBN-13 form of raw. Hyphens and spaces are ignored and
// ISBN-10 input is converted. An empty input returns "" with no error.
func ISBN(raw string) (string, error) {
	digits := make([]byte, 0, 13)
	for _, r := range raw {
		switch {
		case r == '-' || unicode.IsSpace(r):
			continue
		case r >= '0' && r <= '9':
			digits = append(digits, byte(r))
		case (r == 'X' || r == 'x') && len(digits) == 9:
			digits = append(digits, 'X')
		default:
			return "", ErrInvalidISBN
		}
	}

	switch len(digits) {
	case 0:
		return "", nil
	case 10:
		if !validISBN10(digits) {
			return "", ErrInvalidISBN
		}
		isbn13 := append([]byte("978"), digits[:9]...)
		return string(append(isbn13, isbn13CheckDigit(isbn13))), nil
	case 13:
		if digits[9] == 'X' || digits[12] != isbn13CheckDigit(digits[:12]) {
			return "", ErrInvalidISBN
		}
		return string(digits), nil
	default:
		return "", ErrInvalidISBN
	}
}

func validISBN10(d []byte) bool {
	sum := 0
	for i, c := range d {
		v := int(c - '0')
		if c == 'X' {
			v = 10
		}
		sum += (10 - i) * v
	}
	return sum%11 == 0
}

func isbn13CheckDigit(d []byte) byte {
	sum := 0
	for i, c := range d[:12] {
		w := 1
		if i%2 == 1 {
			w = 3
		}
		sum += w * int(c-'0')
	}
	return byte('0' + (10-sum%10)%10)
}
