package source

import "fmt"

// TextRange is a half-open byte span [Start, End) inside a source file.
type TextRange struct {
	Start int
	End   int
}

// NewRange builds a range, swapping the bounds when given in reverse.
func NewRange(start, end int) TextRange {
	if end < start {
		start, end = end, start
	}
	return TextRange{Start: start, End: end}
}

func (r TextRange) Len() int      { return r.End - r.Start }
func (r TextRange) IsEmpty() bool { return r.End <= r.Start }

// Contains reports whether other lies completely inside r.
func (r TextRange) Contains(other TextRange) bool {
	return other.Start >= r.Start && other.End <= r.End
}

// ContainsOffset reports whether the offset is inside r.
func (r TextRange) ContainsOffset(offset int) bool {
	return offset >= r.Start && offset < r.End
}

// Union returns the smallest range covering both r and other.
func (r TextRange) Union(other TextRange) TextRange {
	out := r
	if other.Start < out.Start {
		out.Start = other.Start
	}
	if other.End > out.End {
		out.End = other.End
	}
	return out
}

// Distance is the number of bytes between offset and the closest edge of r,
// zero when the offset falls inside.
func (r TextRange) Distance(offset int) int {
	switch {
	case offset < r.Start:
		return r.Start - offset
	case offset > r.End:
		return offset - r.End
	default:
		return 0
	}
}

func (r TextRange) String() string {
	return fmt.Sprintf("(%d,%d)", r.Start, r.End)
}
