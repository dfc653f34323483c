/*
Copyright (C) 2026  CAST Contributors

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package guard implements the Binary Guard heuristic (spec.md §4.B): a
// cheap classifier over the input head that short-circuits all structural
// work for inputs that are not row-oriented structured text.
package guard

// SampleSize is the largest head sample the guard inspects.
const SampleSize = 8 * 1024

// Decision is the guard's classification of an input.
type Decision int

const (
	Structurable Decision = iota
	Opaque
)

func (d Decision) String() string {
	if d == Opaque {
		return "OPAQUE"
	}
	return "STRUCTURABLE"
}

// Thresholds bundles the tunables spec.md §9 allows implementations to
// expose without changing the container format.
type Thresholds struct {
	MaxNonPrintableFraction float64 // default 0.15
	MaxNULBytes             int     // default 1
	MinRows                 int     // default 2
}

// DefaultThresholds mirrors the defaults named in spec.md §4.B.
var DefaultThresholds = Thresholds{
	MaxNonPrintableFraction: 0.15,
	MaxNULBytes:             1,
	MinRows:                 2,
}

// Classify applies the Binary Guard heuristic to the first min(len(input),
// SampleSize) bytes of input.
func Classify(input []byte) Decision {
	return ClassifyWithThresholds(input, DefaultThresholds)
}

// ClassifyWithThresholds is Classify with explicit tunables.
func ClassifyWithThresholds(input []byte, th Thresholds) Decision {
	n := len(input)
	if n > SampleSize {
		n = SampleSize
	}
	sample := input[:n]
	if len(sample) == 0 {
		return Opaque
	}

	nonPrintable := 0
	nulCount := 0
	rows := 0
	for _, b := range sample {
		if b == 0x00 {
			nulCount++
		}
		if b == 0x0A {
			rows++
		}
		if !isAllowedByte(b) {
			nonPrintable++
		}
	}
	// a trailing row with no terminator still counts as content, but the
	// row-count check below only counts LF-terminated rows per spec.md.

	if nulCount > th.MaxNULBytes {
		return Opaque
	}
	if rows < th.MinRows {
		return Opaque
	}
	frac := float64(nonPrintable) / float64(len(sample))
	if frac > th.MaxNonPrintableFraction {
		return Opaque
	}
	return Structurable
}

// isAllowedByte reports whether b belongs to the Binary Guard's printable
// set: TAB, LF, CR, ASCII 0x20-0x7E, or a byte in the high range 0x80-0xFF
// (treated as part of a printable run of extended/UTF-8 text — spec.md
// explicitly keeps the guard byte-class based, not UTF-8 aware).
func isAllowedByte(b byte) bool {
	switch {
	case b == 0x09 || b == 0x0A || b == 0x0D:
		return true
	case b >= 0x20 && b <= 0x7E:
		return true
	case b >= 0x80:
		return true
	default:
		return false
	}
}
