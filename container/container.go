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

// Package container drives the end-to-end pipeline (spec.md §4.J): chunk
// input into rows, decide Structurable/Opaque per chunk, assemble and
// serialize blocks, run them through a coder, and frame the results into one
// CAST container file (optionally with a row-range footer index). Pipeline
// shape (single reader -> bounded job queue -> N workers -> ordered sink ->
// single writer) is grounded on the teacher's storage/cache.go channel-actor
// CacheManager, generalized from a single-goroutine command loop to a
// worker pool with order-preserving output.
package container

import (
	"encoding/binary"
	"fmt"

	"github.com/launix-de/cast/bytesutil"
	"github.com/launix-de/cast/codec"
)

// FileMagic identifies a CAST container file.
const FileMagic uint32 = 0x43415354

// FileVersion is the current container format version.
const FileVersion uint8 = 1

// IndexMagic marks the last 4 bytes of an INDEXED container's footer.
const IndexMagic uint32 = 0x494E4458 // "INDX"

// fileFlags bit layout.
const (
	fileFlagIndexed = 1 << 0
)

func encodeFileFlags(indexed bool) uint8 {
	var b uint8
	if indexed {
		b |= fileFlagIndexed
	}
	return b
}

func decodeFileFlags(b uint8) (indexed bool) {
	return b&fileFlagIndexed != 0
}

// ErrBadFileMagic is returned when a container does not start with FileMagic.
var ErrBadFileMagic = fmt.Errorf("container: bad file magic")

// ErrUnsupportedFileVersion is returned for a container version CAST does
// not know.
var ErrUnsupportedFileVersion = fmt.Errorf("container: unsupported file version")

func writeFileHeader(w *countingWriter, indexed bool, coderID codec.ID, inputSize uint64) error {
	var hdr [5]byte
	binary.BigEndian.PutUint32(hdr[0:4], FileMagic)
	hdr[4] = FileVersion
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte{encodeFileFlags(indexed), byte(coderID)}); err != nil {
		return err
	}
	_, err := w.Write(bytesutil.AppendUvarint(nil, inputSize))
	return err
}

// fileHeader is the parsed form of a container's fixed prefix.
type fileHeader struct {
	Indexed   bool
	Coder     codec.ID
	InputSize uint64
}

func parseFileHeader(c *byteCursor) (fileHeader, error) {
	magicVersion, err := c.take(5)
	if err != nil {
		return fileHeader{}, err
	}
	if binary.BigEndian.Uint32(magicVersion[0:4]) != FileMagic {
		return fileHeader{}, ErrBadFileMagic
	}
	if magicVersion[4] != FileVersion {
		return fileHeader{}, ErrUnsupportedFileVersion
	}
	flagsAndCoder, err := c.take(2)
	if err != nil {
		return fileHeader{}, err
	}
	indexed := decodeFileFlags(flagsAndCoder[0])
	coderID := codec.ID(flagsAndCoder[1])
	inputSize, err := c.uvarint()
	if err != nil {
		return fileHeader{}, err
	}
	return fileHeader{Indexed: indexed, Coder: coderID, InputSize: inputSize}, nil
}

// byteCursor is a minimal forward-only reader over an in-memory buffer,
// mirroring block.cursor for the container's own framing layer.
type byteCursor struct {
	buf []byte
	pos int
}

func (c *byteCursor) uvarint() (uint64, error) {
	v, n, err := bytesutil.Uvarint(c.buf[c.pos:])
	if err != nil {
		return 0, err
	}
	c.pos += n
	return v, nil
}

func (c *byteCursor) take(n int) ([]byte, error) {
	if c.pos+n > len(c.buf) {
		return nil, fmt.Errorf("container: truncated (need %d bytes at offset %d, have %d)", n, c.pos, len(c.buf))
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *byteCursor) remaining() []byte { return c.buf[c.pos:] }
