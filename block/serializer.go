package block

import (
	"encoding/binary"
	"io"

	"github.com/launix-de/cast/bytesutil"
)

func writeHeader(w io.Writer, flags Flags, uncompressedLen, rowCount, templateCount uint64) error {
	var magicVersion [5]byte
	binary.BigEndian.PutUint32(magicVersion[0:4], Magic)
	magicVersion[4] = Version
	if _, err := w.Write(magicVersion[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte{flags.encode()}); err != nil {
		return err
	}
	buf := bytesutil.AppendUvarint(nil, uncompressedLen)
	buf = bytesutil.AppendUvarint(buf, rowCount)
	buf = bytesutil.AppendUvarint(buf, templateCount)
	_, err := w.Write(buf)
	return err
}

// SerializeOpaque writes a block with the OPAQUE flag set: the raw bytes
// verbatim, with no structural decomposition (spec.md §4.G). Used when the
// Binary Guard rejects the chunk, or when the Strategy Sampler cannot find a
// stable strategy.
func SerializeOpaque(w io.Writer, raw []byte) error {
	flags := Flags{Opaque: true}
	if err := writeHeader(w, flags, uint64(len(raw)), 0, 0); err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	crc := bytesutil.CRC32(raw)
	var crcBuf [4]byte
	binary.BigEndian.PutUint32(crcBuf[:], crc)
	_, err := w.Write(crcBuf[:])
	return err
}

// Serialize writes a/fully-structured block: header, template table, row
// order stream, and column streams, followed by the CRC32 of the original
// reconstructed plaintext (spec.md §4.G).
func Serialize(w io.Writer, asm *Assembled, colSep ColSepMode) error {
	flags := Flags{Strategy: asm.Strategy.Kind, ColSep: colSep}
	if err := writeHeader(w, flags, uint64(asm.PlainLen), uint64(asm.RowCount), uint64(asm.Registry.Len())); err != nil {
		return err
	}

	// TEMPLATE_TABLE
	for _, tpl := range asm.Registry.All() {
		key := []byte(tpl.Key)
		if _, err := w.Write(bytesutil.AppendUvarint(nil, uint64(len(key)))); err != nil {
			return err
		}
		if _, err := w.Write(key); err != nil {
			return err
		}
	}

	// ROW_ORDER_STREAM
	for _, id := range asm.RowOrder {
		if _, err := w.Write(bytesutil.AppendUvarint(nil, uint64(id))); err != nil {
			return err
		}
	}

	// COLUMN_STREAMS
	for id, tpl := range asm.Registry.All() {
		cs := asm.Columns[id]
		for col := 0; col < tpl.Arity; col++ {
			if err := writeStream(w, cs.values[col], colSep); err != nil {
				return err
			}
		}
	}

	var crcBuf [4]byte
	binary.BigEndian.PutUint32(crcBuf[:], asm.CRC)
	_, err := w.Write(crcBuf[:])
	return err
}
