package cellref

import (
	"fmt"
	"strings"
)

// Parse converts an A1-style reference ("B12") into a Ref. The input must
// be exactly one column-letter run followed by one digit run; anything
// else is an error.
func Parse(raw string) (Ref, error) {
	ref, rest, err := parsePrefix(raw)
	if err != nil {
		return Ref{}, err
	}
	if rest != "" {
		return Ref{}, fmt.Errorf("invalid cell reference %q", raw)
	}
	return ref, nil
}

// MustParse is Parse for compile-time-known references, mostly tests.
func MustParse(raw string) Ref {
	ref, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return ref
}

// ParseRange converts "A1:B3" into a normalized Range.
func ParseRange(raw string) (Range, error) {
	from, rest, err := parsePrefix(raw)
	if err != nil {
		return Range{}, err
	}
	if !strings.HasPrefix(rest, ":") {
		return Range{}, fmt.Errorf("invalid range reference %q", raw)
	}
	to, rest, err := parsePrefix(rest[1:])
	if err != nil {
		return Range{}, err
	}
	if rest != "" {
		return Range{}, fmt.Errorf("invalid range reference %q", raw)
	}
	return NewRange(from, to), nil
}

// parsePrefix consumes one cell reference from the front of raw and
// returns the remainder. The formula lexer relies on this to split
// "A1:B3" into its endpoints.
func parsePrefix(raw string) (Ref, string, error) {
	i := 0
	for i < len(raw) && raw[i] >= 'A' && raw[i] <= 'Z' {
		i++
	}
	if i == 0 || i > 3 {
		return Ref{}, "", fmt.Errorf("invalid cell reference %q", raw)
	}
	col := 0
	for _, c := range raw[:i] {
		col = col*26 + int(c-'A') + 1
	}

	j := i
	for j < len(raw) && raw[j] >= '0' && raw[j] <= '9' {
		j++
	}
	if j == i || j-i > 7 {
		return Ref{}, "", fmt.Errorf("invalid cell reference %q", raw)
	}
	row := 0
	for _, c := range raw[i:j] {
		row = row*10 + int(c-'0')
	}
	if row == 0 {
		return Ref{}, "", fmt.Errorf("invalid cell reference %q: rows are 1-based", raw)
	}

	return Ref{Col: col - 1, Row: row - 1}, raw[j:], nil
}
