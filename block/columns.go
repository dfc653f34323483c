package block

import (
	"io"

	"github.com/launix-de/cast/bytesutil"
)

// columnSet holds, for one template, the ordered field values of every
// variable slot across all rows assigned to that template in this block.
// values[i] is the i-th variable field's values in row-encounter order.
type columnSet struct {
	values [][][]byte
}

func newColumnSet(arity int) *columnSet {
	return &columnSet{values: make([][][]byte, arity)}
}

func (cs *columnSet) append(col int, v []byte) {
	cs.values[col] = append(cs.values[col], v)
}

// writeStream serializes one column (cs.values[col]) under mode: a
// varint(stream_byte_length) prefix followed by the stream bytes, per
// spec.md §4.G COLUMN_STREAMS.
func writeStream(w io.Writer, values [][]byte, mode ColSepMode) error {
	body := encodeStream(values, mode)
	if _, err := w.Write(bytesutil.AppendUvarint(nil, uint64(len(body)))); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

func encodeStream(values [][]byte, mode ColSepMode) []byte {
	var out []byte
	switch mode {
	case ColSepVarint:
		for _, v := range values {
			out = bytesutil.AppendUvarint(out, uint64(len(v)))
			out = append(out, v...)
		}
	case ColSep0x1F:
		for i, v := range values {
			if i > 0 {
				out = append(out, Separator)
			}
			out = append(out, v...)
		}
	}
	return out
}

// columnCursor reads successive field values out of one serialized column
// stream. The caller must know exactly how many values to read (the number
// of rows assigned to the owning template) — the stream itself carries no
// explicit value count, only a total byte length.
type columnCursor struct {
	mode ColSepMode
	buf  []byte
	pos  int
}

func newColumnCursor(buf []byte, mode ColSepMode) *columnCursor {
	return &columnCursor{mode: mode, buf: buf}
}

// next returns the next field value from the stream and advances the cursor.
func (c *columnCursor) next() ([]byte, error) {
	switch c.mode {
	case ColSepVarint:
		if c.pos > len(c.buf) {
			return nil, io.ErrUnexpectedEOF
		}
		l, n, err := bytesutil.Uvarint(c.buf[c.pos:])
		if err != nil {
			return nil, err
		}
		start := c.pos + n
		end := start + int(l)
		if end > len(c.buf) {
			return nil, io.ErrUnexpectedEOF
		}
		c.pos = end
		return c.buf[start:end], nil
	case ColSep0x1F:
		start := c.pos
		i := start
		for i < len(c.buf) && c.buf[i] != Separator {
			i++
		}
		if i < len(c.buf) {
			c.pos = i + 1
		} else {
			c.pos = i
		}
		return c.buf[start:i], nil
	}
	return nil, io.ErrUnexpectedEOF
}
