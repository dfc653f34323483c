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

// Package block implements the on-disk block layout (spec.md §4.G), the
// Block Assembler (§4.F), and the reverse path (§4.H): everything that
// turns one chunk of input rows into a self-contained, CRC-protected,
// independently decodable block and back. Framing idiom (explicit
// magic/version bytes, fixed field order) is grounded on the teacher's
// storage/storage-int.go Serialize/Deserialize pair.
package block

import (
	"fmt"

	"github.com/launix-de/cast/tokenizer"
)

// Magic is the block header's magic number, "CAST" in ASCII.
const Magic uint32 = 0x43415354

// Version is the current block format version.
const Version uint8 = 1

// ColSepMode selects how a column stream separates successive field
// values (spec.md's Open Question, resolved in DESIGN.md: varint-length
// is the default to avoid any ambiguity with an in-band separator byte).
type ColSepMode uint8

const (
	ColSepVarint ColSepMode = iota // varint(len) prefix per value
	ColSep0x1F                     // values joined by a literal 0x1F byte
)

// Separator is the in-stream delimiter byte used by ColSep0x1F.
const Separator byte = 0x1F

// Flags is the decoded form of the block header's flags byte.
type Flags struct {
	Opaque   bool
	Indexed  bool
	ColSep   ColSepMode
	Strategy tokenizer.StrategyKind
}

func (f Flags) encode() uint8 {
	var b uint8
	if f.Opaque {
		b |= 1 << 0
	}
	if f.Indexed {
		b |= 1 << 1
	}
	if f.ColSep == ColSep0x1F {
		b |= 1 << 2
	}
	if f.Strategy == tokenizer.Aggressive {
		b |= 1 << 3
	}
	return b
}

func decodeFlags(b uint8) Flags {
	f := Flags{
		Opaque:  b&(1<<0) != 0,
		Indexed: b&(1<<1) != 0,
	}
	if b&(1<<2) != 0 {
		f.ColSep = ColSep0x1F
	} else {
		f.ColSep = ColSepVarint
	}
	if b&(1<<3) != 0 {
		f.Strategy = tokenizer.Aggressive
	} else {
		f.Strategy = tokenizer.Strict
	}
	return f
}

// Header is the fixed-shape prefix of every serialized block.
type Header struct {
	Flags            Flags
	UncompressedLen  uint64
	RowCount         uint64
	TemplateCount    uint64
}

// ErrBadMagic is returned when a block does not start with Magic.
var ErrBadMagic = fmt.Errorf("block: bad magic number")

// ErrUnsupportedVersion is returned for a block version CAST does not know.
var ErrUnsupportedVersion = fmt.Errorf("block: unsupported version")
