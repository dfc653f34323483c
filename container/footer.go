package container

import (
	"encoding/binary"
	"fmt"

	"github.com/google/btree"
	"github.com/launix-de/cast/bytesutil"
)

// footerEntry describes one block's location and row span within the
// container, enough to resolve a row index to the block holding it without
// scanning every preceding block (spec.md §4.J, INDEXED containers).
type footerEntry struct {
	compressedOffset uint64
	compressedLength uint64
	firstRowIndex    uint64
	rowCount         uint64
}

// Less orders footerEntry by firstRowIndex so the index's BTree supports
// "find the block covering row N" via DescendLessOrEqual.
func (e footerEntry) Less(than btree.Item) bool {
	return e.firstRowIndex < than.(footerEntry).firstRowIndex
}

// Index is a row-range lookup structure built from a container's footer.
// Backed by github.com/google/btree, the way the teacher's storage package
// keeps its ordered in-memory structures in a balanced tree rather than a
// sorted slice it would have to re-sort on insert.
type Index struct {
	tree    *btree.BTree
	entries []footerEntry
}

func newIndex() *Index {
	return &Index{tree: btree.New(32)}
}

func (ix *Index) add(e footerEntry) {
	ix.tree.ReplaceOrInsert(e)
	ix.entries = append(ix.entries, e)
}

// Lookup returns the footer entry for the block containing row index row,
// or false if row is out of range.
func (ix *Index) Lookup(row uint64) (footerEntry, bool) {
	var found footerEntry
	ok := false
	ix.tree.DescendLessOrEqual(footerEntry{firstRowIndex: row}, func(item btree.Item) bool {
		found = item.(footerEntry)
		ok = true
		return false // first hit descending from row is the tightest bound
	})
	if !ok {
		return footerEntry{}, false
	}
	if row >= found.firstRowIndex+found.rowCount {
		return footerEntry{}, false
	}
	return found, true
}

// Entries returns every footer entry in block order.
func (ix *Index) Entries() []footerEntry { return ix.entries }

// writeFooter serializes the accumulated index as the container's trailing
// footer (spec.md §4.J): entry_count varint, per-entry fixed/varint fields,
// an 8-byte little-endian footer_length, and the 4-byte IndexMagic.
func writeFooter(w *countingWriter, ix *Index) error {
	var body []byte
	body = bytesutil.AppendUvarint(body, uint64(len(ix.entries)))
	for _, e := range ix.entries {
		var off [8]byte
		binary.LittleEndian.PutUint64(off[:], e.compressedOffset)
		body = append(body, off[:]...)
		body = bytesutil.AppendUvarint(body, e.compressedLength)
		body = bytesutil.AppendUvarint(body, e.firstRowIndex)
		body = bytesutil.AppendUvarint(body, e.rowCount)
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	var lenMagic [12]byte
	binary.LittleEndian.PutUint64(lenMagic[0:8], uint64(len(body)))
	binary.BigEndian.PutUint32(lenMagic[8:12], IndexMagic)
	_, err := w.Write(lenMagic[:])
	return err
}

// readFooter parses the trailing footer out of a fully-buffered container.
// data must be the whole file; the footer is located from its tail.
func readFooter(data []byte) (*Index, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("container: file too short to hold a footer")
	}
	tail := data[len(data)-12:]
	footerLen := binary.LittleEndian.Uint64(tail[0:8])
	magic := binary.BigEndian.Uint32(tail[8:12])
	if magic != IndexMagic {
		return nil, fmt.Errorf("container: missing INDX trailer magic")
	}
	bodyStart := len(data) - 12 - int(footerLen)
	if bodyStart < 0 {
		return nil, fmt.Errorf("container: footer length exceeds file size")
	}
	c := &byteCursor{buf: data[bodyStart : len(data)-12]}
	count, err := c.uvarint()
	if err != nil {
		return nil, err
	}
	ix := newIndex()
	for i := uint64(0); i < count; i++ {
		offBytes, err := c.take(8)
		if err != nil {
			return nil, err
		}
		compressedLength, err := c.uvarint()
		if err != nil {
			return nil, err
		}
		firstRowIndex, err := c.uvarint()
		if err != nil {
			return nil, err
		}
		rowCount, err := c.uvarint()
		if err != nil {
			return nil, err
		}
		ix.add(footerEntry{
			compressedOffset: binary.LittleEndian.Uint64(offBytes),
			compressedLength: compressedLength,
			firstRowIndex:    firstRowIndex,
			rowCount:         rowCount,
		})
	}
	return ix, nil
}
