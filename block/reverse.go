package block

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/launix-de/cast/bytesutil"
	"github.com/launix-de/cast/template"
)

// ErrIntegrity is returned when a decoded block's CRC32 does not match the
// trailer, meaning the block is corrupt (spec.md INTEGRITY_FAIL).
var ErrIntegrity = fmt.Errorf("block: CRC32 mismatch, block is corrupt")

// cursor walks a byte buffer, consuming varints and fixed spans. Mirrors the
// teacher's storage/storage-int.go Deserialize reader idiom.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) uvarint() (uint64, error) {
	v, n, err := bytesutil.Uvarint(c.buf[c.pos:])
	if err != nil {
		return 0, err
	}
	c.pos += n
	return v, nil
}

func (c *cursor) take(n int) ([]byte, error) {
	if c.pos+n > len(c.buf) {
		return nil, io.ErrUnexpectedEOF
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// ParseHeader reads and validates the fixed header prefix of a serialized
// block, returning the header and the cursor position immediately after it.
func ParseHeader(data []byte) (Header, int, error) {
	c := &cursor{buf: data}
	magicVersion, err := c.take(5)
	if err != nil {
		return Header{}, 0, err
	}
	if binary.BigEndian.Uint32(magicVersion[0:4]) != Magic {
		return Header{}, 0, ErrBadMagic
	}
	if magicVersion[4] != Version {
		return Header{}, 0, ErrUnsupportedVersion
	}
	flagsByte, err := c.take(1)
	if err != nil {
		return Header{}, 0, err
	}
	flags := decodeFlags(flagsByte[0])

	uncompressedLen, err := c.uvarint()
	if err != nil {
		return Header{}, 0, err
	}
	rowCount, err := c.uvarint()
	if err != nil {
		return Header{}, 0, err
	}
	templateCount, err := c.uvarint()
	if err != nil {
		return Header{}, 0, err
	}
	return Header{
		Flags:           flags,
		UncompressedLen: uncompressedLen,
		RowCount:        rowCount,
		TemplateCount:   templateCount,
	}, c.pos, nil
}

// Decoded is a fully parsed, not-yet-reconstructed block: every table is
// materialized (templates, row order, per-column cursors), but row bytes
// are only interleaved on demand by Rows/WriteTo.
type Decoded struct {
	Header    Header
	Templates []template.Template
	RowOrder  []int
	columns   [][]*columnCursor // per template ID, per column index
	opaque    []byte
}

// Parse fully parses a serialized block (header, template table, row order
// stream, and column streams for a structured block; the raw payload for an
// OPAQUE one), without walking rows yet.
func Parse(data []byte) (*Decoded, error) {
	hdr, pos, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	c := &cursor{buf: data, pos: pos}

	if hdr.Flags.Opaque {
		raw, err := c.take(int(hdr.UncompressedLen))
		if err != nil {
			return nil, err
		}
		crcBytes, err := c.take(4)
		if err != nil {
			return nil, err
		}
		if binary.BigEndian.Uint32(crcBytes) != bytesutil.CRC32(raw) {
			return nil, ErrIntegrity
		}
		return &Decoded{Header: hdr, opaque: raw}, nil
	}

	templates := make([]template.Template, 0, hdr.TemplateCount)
	for i := uint64(0); i < hdr.TemplateCount; i++ {
		l, err := c.uvarint()
		if err != nil {
			return nil, err
		}
		key, err := c.take(int(l))
		if err != nil {
			return nil, err
		}
		templates = append(templates, templateFromKey(key))
	}

	rowOrder := make([]int, 0, hdr.RowCount)
	occurrences := make([]int, len(templates))
	for i := uint64(0); i < hdr.RowCount; i++ {
		id, err := c.uvarint()
		if err != nil {
			return nil, err
		}
		if int(id) >= len(templates) {
			return nil, fmt.Errorf("block: row order references unknown template %d", id)
		}
		rowOrder = append(rowOrder, int(id))
		occurrences[id]++
	}

	columns := make([][]*columnCursor, len(templates))
	for id, tpl := range templates {
		columns[id] = make([]*columnCursor, tpl.Arity)
		for col := 0; col < tpl.Arity; col++ {
			l, err := c.uvarint()
			if err != nil {
				return nil, err
			}
			buf, err := c.take(int(l))
			if err != nil {
				return nil, err
			}
			columns[id][col] = newColumnCursor(buf, hdr.Flags.ColSep)
		}
	}

	crcBytes, err := c.take(4)
	if err != nil {
		return nil, err
	}

	d := &Decoded{Header: hdr, Templates: templates, RowOrder: rowOrder, columns: columns}
	crc, err := d.reconstructCRC()
	if err != nil {
		return nil, err
	}
	if binary.BigEndian.Uint32(crcBytes) != crc {
		return nil, ErrIntegrity
	}
	// reconstructCRC consumed every cursor; rebuild fresh ones for actual use.
	for id, tpl := range templates {
		for col := 0; col < tpl.Arity; col++ {
			columns[id][col] = newColumnCursor(columns[id][col].buf, hdr.Flags.ColSep)
		}
	}
	return d, nil
}

func templateFromKey(key []byte) template.Template {
	var lits [][]byte
	start := 0
	arity := 0
	for i := 0; i <= len(key); i++ {
		if i == len(key) || key[i] == template.Sentinel {
			lits = append(lits, key[start:i])
			start = i + 1
			if i < len(key) {
				arity++
			}
		}
	}
	return template.Template{Literals: lits, Arity: arity, Key: string(key)}
}

// reconstructCRC walks every row once, computing the CRC32 of the
// reconstructed plaintext without retaining it, to verify against the
// trailer. It consumes the column cursors; callers must rebuild them
// afterward if the rows are to be read again.
func (d *Decoded) reconstructCRC() (uint32, error) {
	w := bytesutil.NewCRC32Writer()
	err := d.WriteTo(w)
	if err != nil {
		return 0, err
	}
	return w.Sum32(), nil
}

// WriteTo reconstructs every row, in original order, writing each directly
// to w (spec.md §4.H, streaming reverse path). It consumes the block's
// column cursors; call it at most once per Parse (Rows, below, rebuilds its
// own cursors and may be called any number of times).
func (d *Decoded) WriteTo(w io.Writer) error {
	if d.Header.Flags.Opaque {
		_, err := w.Write(d.opaque)
		return err
	}
	for _, id := range d.RowOrder {
		tpl := d.Templates[id]
		vars := make([][]byte, tpl.Arity)
		for col := 0; col < tpl.Arity; col++ {
			v, err := d.columns[id][col].next()
			if err != nil {
				return err
			}
			vars[col] = v
		}
		if _, err := w.Write(tpl.Reconstruct(vars)); err != nil {
			return err
		}
	}
	return nil
}

// Rows reconstructs every row and returns them as a slice, for random-access
// row-range queries within an already-located block (spec.md §4.J indexed
// container lookups resolve to a block, then slice within it).
func (d *Decoded) Rows() ([][]byte, error) {
	if d.Header.Flags.Opaque {
		return SplitRows(d.opaque), nil
	}
	rows := make([][]byte, 0, len(d.RowOrder))
	// Rows() may be called after Parse already consumed/rebuilt cursors once
	// for CRC verification, so operate on fresh cursors here too.
	cursors := make([][]*columnCursor, len(d.Templates))
	for id, tpl := range d.Templates {
		cursors[id] = make([]*columnCursor, tpl.Arity)
		for col := 0; col < tpl.Arity; col++ {
			cursors[id][col] = newColumnCursor(d.columns[id][col].buf, d.Header.Flags.ColSep)
		}
	}
	for _, id := range d.RowOrder {
		tpl := d.Templates[id]
		vars := make([][]byte, tpl.Arity)
		for col := 0; col < tpl.Arity; col++ {
			v, err := cursors[id][col].next()
			if err != nil {
				return nil, err
			}
			vars[col] = v
		}
		rows = append(rows, tpl.Reconstruct(vars))
	}
	return rows, nil
}

// Decode fully reconstructs a serialized block's original bytes, verifying
// its CRC32, and writes them to out.
func Decode(data []byte, out io.Writer) error {
	d, err := Parse(data)
	if err != nil {
		return err
	}
	return d.WriteTo(out)
}
