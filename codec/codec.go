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

// Package codec adapts third-party compressors behind one small capability
// interface (spec.md §4.I, the Coder adapter): a block's compressed bytes go
// in, its exact-length plaintext comes out. Capability-interface idiom is
// grounded on the teacher's storage/persistence.go PersistenceEngine/Factory
// pattern, generalized from storage backends to compression backends.
package codec

import "fmt"

// Coder compresses and decompresses whole, already-bounded byte buffers (one
// CAST block at a time). Implementations never see more than one block in
// flight, so neither side needs to stream across block boundaries. Decode
// recovers the original length from the compressed stream itself (an xz/
// LZMA2 stream carries its own end marker; the LZ4 adapter below carries an
// explicit raw/compressed marker byte), so the container format never needs
// to store a block's serialized length separately from its compressed one.
type Coder interface {
	// Name identifies the coder in container headers and log lines.
	Name() string
	// Encode compresses src under opts, returning the compressed bytes.
	Encode(src []byte, opts Options) ([]byte, error)
	// Decode decompresses src back to its original bytes.
	Decode(src []byte) ([]byte, error)
}

// DefaultDictSize is spec.md §4.I's default LZMA2 dictionary size.
const DefaultDictSize = 128 * 1024 * 1024

// DefaultThreads is spec.md §4.I's default thread count for a solid
// (non-block-parallel) encode.
const DefaultThreads = 1

// Options configures one Encode call: dictionary size and thread count
// (spec.md §4.I's `encode(bytes, dict_size, threads) -> bytes`). Not every
// Coder honors every field — see each implementation's doc comment.
type Options struct {
	// DictSize is the compressor's dictionary/window size in bytes. <= 0
	// means DefaultDictSize.
	DictSize int
	// Threads is the coder's own internal parallelism, independent of
	// container.Options.Workers (which parallelizes across blocks, not
	// within one). <= 0 means DefaultThreads.
	Threads int
}

func (o Options) dictSize() int {
	if o.DictSize <= 0 {
		return DefaultDictSize
	}
	return o.DictSize
}

func (o Options) threads() int {
	if o.Threads <= 0 {
		return DefaultThreads
	}
	return o.Threads
}

// ID names a registered coder, stored in the container header so decode can
// pick the matching implementation without guessing.
type ID uint8

const (
	// IDLZMA2 is the default, highest-ratio coder (spec.md §3's
	// NativeLZMA2, backed by github.com/ulikunitz/xz/lzma).
	IDLZMA2 ID = iota
	// IDLZ4 trades ratio for decode speed (github.com/pierrec/lz4/v4).
	IDLZ4
	// ID7z shells out to an external 7-Zip binary for environments that
	// already standardize on it.
	ID7z
)

func (id ID) String() string {
	switch id {
	case IDLZMA2:
		return "lzma2"
	case IDLZ4:
		return "lz4"
	case ID7z:
		return "7z"
	default:
		return fmt.Sprintf("codec(%d)", uint8(id))
	}
}

// EncodeFailError wraps an underlying compressor error as CODEC_ENCODE_FAIL
// (spec.md §7).
type EncodeFailError struct {
	Coder string
	Err   error
}

func (e *EncodeFailError) Error() string {
	return fmt.Sprintf("codec: %s encode failed: %v", e.Coder, e.Err)
}

func (e *EncodeFailError) Unwrap() error { return e.Err }

// DecodeFailError wraps an underlying decompressor error as CODEC_DECODE_FAIL
// (spec.md §7).
type DecodeFailError struct {
	Coder string
	Err   error
}

func (e *DecodeFailError) Error() string {
	return fmt.Sprintf("codec: %s decode failed: %v", e.Coder, e.Err)
}

func (e *DecodeFailError) Unwrap() error { return e.Err }

// ByID returns the Coder for id, or an error if id is unknown. sevenZipPath
// is only consulted when id == ID7z.
func ByID(id ID, sevenZipPath string) (Coder, error) {
	switch id {
	case IDLZMA2:
		return NewLZMA2(), nil
	case IDLZ4:
		return NewLZ4(), nil
	case ID7z:
		return NewExternalProcess7z(sevenZipPath), nil
	default:
		return nil, fmt.Errorf("codec: unknown coder id %d", id)
	}
}
