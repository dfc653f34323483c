package container

import (
	"fmt"
	"io"

	"github.com/launix-de/cast/block"
	"github.com/launix-de/cast/codec"
)

// DecodeOptions configures Decompress and RowRange.
type DecodeOptions struct {
	SevenZipPath string
}

// blockFrame is one parsed-but-not-decompressed entry from the container
// body: its compressed bytes, its position among all blocks, and its
// file-absolute byte offset (matching footerEntry.compressedOffset, which
// countingWriter measured from the very start of the file).
type blockFrame struct {
	index      int
	offset     uint64
	compressed []byte
}

// readBlockFrames walks the container body (the region between the file
// header and any footer) and returns every block's compressed bytes in
// order, without decompressing them. base is body's file-absolute starting
// offset, i.e. the size of the file header that precedes it.
func readBlockFrames(body []byte, base uint64) ([]blockFrame, error) {
	c := &byteCursor{buf: body}
	var frames []blockFrame
	idx := 0
	for c.pos < len(c.buf) {
		l, err := c.uvarint()
		if err != nil {
			return nil, err
		}
		payloadOffset := base + uint64(c.pos)
		compressed, err := c.take(int(l))
		if err != nil {
			return nil, err
		}
		frames = append(frames, blockFrame{index: idx, offset: payloadOffset, compressed: compressed})
		idx++
	}
	return frames, nil
}

// splitContainer separates a full container file into its header, body
// (block frames), and, if INDEXED, its footer index.
func splitContainer(data []byte) (fileHeader, []byte, *Index, error) {
	c := &byteCursor{buf: data}
	hdr, err := parseFileHeader(c)
	if err != nil {
		return fileHeader{}, nil, nil, err
	}
	body := c.remaining()
	if !hdr.Indexed {
		return hdr, body, nil, nil
	}
	ix, err := readFooter(data)
	if err != nil {
		return fileHeader{}, nil, nil, err
	}
	if len(data) < 12 {
		return fileHeader{}, nil, nil, fmt.Errorf("container: file too short to hold a footer")
	}
	tail := data[len(data)-12:]
	var footerLen uint64
	for i := 0; i < 8; i++ {
		footerLen |= uint64(tail[i]) << (8 * i)
	}
	footerTotal := int(footerLen) + 12
	if footerTotal > len(body) {
		return fileHeader{}, nil, nil, fmt.Errorf("container: footer longer than body")
	}
	body = body[:len(body)-footerTotal]
	return hdr, body, ix, nil
}

// Decompress reconstructs the original input bytes from a CAST container,
// verifying every block's own CRC32 along the way (block.Decode does this),
// and writes them to w in block order.
func Decompress(w io.Writer, data []byte, opts DecodeOptions) error {
	hdr, body, _, err := splitContainer(data)
	if err != nil {
		return err
	}
	frames, err := readBlockFrames(body, uint64(len(data)-len(body)))
	if err != nil {
		return err
	}
	coder, err := codec.ByID(hdr.Coder, opts.SevenZipPath)
	if err != nil {
		return err
	}
	for _, f := range frames {
		serialized, err := coder.Decode(f.compressed)
		if err != nil {
			return fmt.Errorf("container: block %d: %w", f.index, err)
		}
		if err := block.Decode(serialized, w); err != nil {
			return fmt.Errorf("container: block %d: %w", f.index, err)
		}
	}
	return nil
}

// RowRange decompresses only the blocks overlapping rows [lo, hi) and
// returns their reconstructed rows sliced to that exact range. It requires
// an INDEXED container (spec.md §4.J); without a footer it would have to
// decompress from the start regardless, which Decompress already does.
func RowRange(data []byte, lo, hi uint64, opts DecodeOptions) ([][]byte, error) {
	hdr, body, ix, err := splitContainer(data)
	if err != nil {
		return nil, err
	}
	if ix == nil {
		return nil, fmt.Errorf("container: RowRange requires an INDEXED container")
	}
	base := uint64(len(data) - len(body))
	frames, err := readBlockFrames(body, base)
	if err != nil {
		return nil, err
	}
	byOffset := make(map[uint64]*blockFrame, len(frames))
	for i := range frames {
		byOffset[frames[i].offset] = &frames[i]
	}
	coder, err := codec.ByID(hdr.Coder, opts.SevenZipPath)
	if err != nil {
		return nil, err
	}

	var out [][]byte
	for _, e := range ix.Entries() {
		blockLo, blockHi := e.firstRowIndex, e.firstRowIndex+e.rowCount
		if blockHi <= lo || blockLo >= hi {
			continue
		}
		frame, ok := byOffset[e.compressedOffset]
		if !ok {
			return nil, fmt.Errorf("container: footer entry at offset %d has no matching block frame", e.compressedOffset)
		}
		serialized, err := coder.Decode(frame.compressed)
		if err != nil {
			return nil, fmt.Errorf("container: block at row %d: %w", e.firstRowIndex, err)
		}
		d, err := block.Parse(serialized)
		if err != nil {
			return nil, fmt.Errorf("container: block at row %d: %w", e.firstRowIndex, err)
		}
		rows, err := d.Rows()
		if err != nil {
			return nil, fmt.Errorf("container: block at row %d: %w", e.firstRowIndex, err)
		}
		for i, row := range rows {
			rowIdx := blockLo + uint64(i)
			if rowIdx >= lo && rowIdx < hi {
				out = append(out, row)
			}
		}
	}
	return out, nil
}
