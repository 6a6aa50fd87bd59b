package dsmr

// Record line layout, shared by every tagged line:
//
//	T.D.N (value)
//
// where T is the tag byte, D the sub-discriminant, N the phase index, event
// id, or telegram depth, and value is the text between the parentheses. The
// structural bytes are declared as a descriptor table instead of being
// sliced ad hoc, so a wrong-width line is reported as MalformedLine rather
// than panicking on an out-of-range index.
const (
	posTag     = 0
	posDisc    = 2
	posSub     = 4
	posValue   = 7
	minLineLen = posValue + 1 // shortest legal line has an empty value: "T.D.N ()"
)

var linePrefix = []struct {
	off  int
	want byte
}{
	{1, '.'},
	{3, '.'},
	{5, ' '},
	{6, '('},
}

var lineDigits = []int{posDisc, posSub}

// rawLine is one scanned record line.
type rawLine struct {
	tag  byte
	disc byte // sub-discriminant, ASCII digit
	sub  byte // phase index, event id, or depth, ASCII digit
	val  string
	num  int // 1-based line number in the input
}

// scanLine validates the fixed prefix of a record line and extracts its
// structural fields. The caller has already classified the line by tag.
func scanLine(line string, num int) (rawLine, error) {
	if len(line) < minLineLen {
		return rawLine{}, parseErrorf(MalformedLine, num, "record too short (%d bytes)", len(line))
	}
	if line[len(line)-1] != ')' {
		return rawLine{}, parseErrorf(MalformedLine, num, "record not closed by ')'")
	}
	for _, f := range linePrefix {
		if line[f.off] != f.want {
			return rawLine{}, parseErrorf(MalformedLine, num, "expected %q at offset %d", f.want, f.off)
		}
	}
	for _, off := range lineDigits {
		if !isDigit(line[off]) {
			return rawLine{}, parseErrorf(MalformedLine, num, "expected digit at offset %d", off)
		}
	}
	return rawLine{
		tag:  line[posTag],
		disc: line[posDisc],
		sub:  line[posSub],
		val:  line[posValue : len(line)-1],
		num:  num,
	}, nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
