package codec

import (
	"bytes"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// LZMA2Coder is the default CAST coder: github.com/ulikunitz/xz/lzma's raw
// LZMA2 stream (no outer .xz container, no extra index/footer — the CAST
// block header already carries length and checksum, so the xz container's
// own framing would only be overhead).
type LZMA2Coder struct {
	writerCfg lzma.Writer2Config
	readerCfg lzma.Reader2Config
}

var _ Coder = (*LZMA2Coder)(nil)

// NewLZMA2 returns a coder using the library's default preset.
func NewLZMA2() *LZMA2Coder {
	return &LZMA2Coder{}
}

func (c *LZMA2Coder) Name() string { return IDLZMA2.String() }

// Encode compresses src as a raw LZMA2 stream. opts.DictSize sets the
// dictionary/window size (spec.md §4.I, default 128 MiB); opts.Threads is
// unused here because ulikunitz/xz/lzma's Writer2 is single-stream and has
// no internal worker pool — multi-threaded throughput for LZMA2 comes from
// container-level block parallelism (container.Options.Workers), not from
// this coder.
func (c *LZMA2Coder) Encode(src []byte, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	cfg := c.writerCfg
	cfg.DictCap = opts.dictSize()
	w, err := cfg.NewWriter2(&buf)
	if err != nil {
		return nil, &EncodeFailError{Coder: c.Name(), Err: err}
	}
	if _, err := w.Write(src); err != nil {
		return nil, &EncodeFailError{Coder: c.Name(), Err: err}
	}
	if err := w.Close(); err != nil {
		return nil, &EncodeFailError{Coder: c.Name(), Err: err}
	}
	return buf.Bytes(), nil
}

func (c *LZMA2Coder) Decode(src []byte) ([]byte, error) {
	r, err := c.readerCfg.NewReader2(bytes.NewReader(src))
	if err != nil {
		return nil, &DecodeFailError{Coder: c.Name(), Err: err}
	}
	dst, err := io.ReadAll(r)
	if err != nil {
		return nil, &DecodeFailError{Coder: c.Name(), Err: err}
	}
	return dst, nil
}
