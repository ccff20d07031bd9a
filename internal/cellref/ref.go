package cellref

import (
	"sort"
	"strings"
)

// Ref identifies a single cell. Col and Row are zero-based; the textual
// form is A1-style (column letters, 1-based row).
type Ref struct {
	Col int
	Row int
}

// String serializes the Ref into its canonical A1 representation.
func (r Ref) String() string {
	var sb strings.Builder
	sb.WriteString(ColumnName(r.Col))
	writeInt(&sb, r.Row+1)
	return sb.String()
}

// Less reports whether r sorts before o. Ordering is row-major: all of
// row 1 precedes all of row 2, ties broken by column. This is the
// tie-break order used for deterministic evaluation.
func (r Ref) Less(o Ref) bool {
	if r.Row != o.Row {
		return r.Row < o.Row
	}
	return r.Col < o.Col
}

// ColumnName converts a zero-based column index to spreadsheet letters
// (0 → "A", 25 → "Z", 26 → "AA").
func ColumnName(col int) string {
	buf := make([]byte, 0, 3)
	for col >= 0 {
		buf = append(buf, byte('A'+col%26))
		col = col/26 - 1
	}
	// Digits were produced least-significant first.
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// Sort orders refs ascending in place using the row-major ordering.
func Sort(refs []Ref) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })
}

func writeInt(sb *strings.Builder, n int) {
	if n >= 10 {
		writeInt(sb, n/10)
	}
	sb.WriteByte(byte('0' + n%10))
}
