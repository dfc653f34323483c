package codec

import (
	"errors"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// lz4CompressorPool reuses lz4.Compressor instances the way arloliu-mebo's
// compress/lz4.go does — the compressor keeps an internal hash table worth
// reusing across blocks.
var lz4CompressorPool = sync.Pool{
	New: func() any { return &lz4.Compressor{} },
}

// LZ4Coder is the fast-path CAST coder (github.com/pierrec/lz4/v4), used when
// decode latency matters more than ratio. The raw LZ4 block format carries
// no output-length marker, so Encode prefixes one marker byte (0 = stored
// verbatim, 1 = LZ4 block) and Decode grows its output buffer adaptively on
// lz4.ErrInvalidSourceShortBuffer, the same strategy arloliu-mebo's
// compress/lz4.go Decompress uses.
type LZ4Coder struct{}

var _ Coder = (*LZ4Coder)(nil)

// NewLZ4 returns an LZ4 block coder.
func NewLZ4() *LZ4Coder { return &LZ4Coder{} }

func (c *LZ4Coder) Name() string { return IDLZ4.String() }

// Encode compresses src into one LZ4 block. opts is accepted to satisfy the
// Coder interface but otherwise unused: the raw LZ4 block format
// (pierrec/lz4/v4) has no dictionary-size knob and lz4.Compressor.CompressBlock
// is already single-threaded per call, so there is nothing for DictSize or
// Threads to configure here.
func (c *LZ4Coder) Encode(src []byte, opts Options) ([]byte, error) {
	if len(src) == 0 {
		return []byte{0}, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)
	n, err := lc.CompressBlock(src, dst)
	if err != nil {
		return nil, &EncodeFailError{Coder: c.Name(), Err: err}
	}
	if n == 0 {
		// incompressible input: lz4 block format has no "stored" mode, so
		// fall back to carrying src verbatim behind the raw marker.
		return append([]byte{0}, src...), nil
	}
	return append([]byte{1}, dst[:n]...), nil
}

const lz4MaxBufferSize = 256 * 1024 * 1024

func (c *LZ4Coder) Decode(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, &DecodeFailError{Coder: c.Name(), Err: errors.New("empty stream, missing marker byte")}
	}
	marker, body := src[0], src[1:]
	if marker == 0 {
		out := make([]byte, len(body))
		copy(out, body)
		return out, nil
	}

	bufSize := len(body) * 4
	if bufSize == 0 {
		bufSize = 64
	}
	for bufSize <= lz4MaxBufferSize {
		dst := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(body, dst)
		if err != nil {
			if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) {
				bufSize *= 2
				continue
			}
			return nil, &DecodeFailError{Coder: c.Name(), Err: err}
		}
		return dst[:n], nil
	}
	return nil, &DecodeFailError{Coder: c.Name(), Err: lz4.ErrInvalidSourceShortBuffer}
}
