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

package container

import (
	"fmt"

	"github.com/launix-de/cast/block"
	"github.com/launix-de/cast/codec"
)

// BlockInfo summarizes one block's shape without materializing its rows —
// enough for "cast inspect"/"cast dump" to report on a container without
// reconstructing it.
type BlockInfo struct {
	Index              int
	FirstRowIndex      uint64
	RowCount           int
	CompressedLength   int
	UncompressedLength uint64
	TemplateCount      uint64
	Opaque             bool
}

// Inspect decodes every block's header (without reconstructing rows) and
// returns one BlockInfo per block, in container order.
func Inspect(data []byte, opts DecodeOptions) ([]BlockInfo, error) {
	hdr, body, ix, err := splitContainer(data)
	if err != nil {
		return nil, err
	}
	base := uint64(len(data) - len(body))
	frames, err := readBlockFrames(body, base)
	if err != nil {
		return nil, err
	}
	coder, err := codec.ByID(hdr.Coder, opts.SevenZipPath)
	if err != nil {
		return nil, err
	}

	var byOffset map[uint64]footerEntry
	if ix != nil {
		byOffset = make(map[uint64]footerEntry, len(frames))
		for _, e := range ix.Entries() {
			byOffset[e.compressedOffset] = e
		}
	}

	var firstRow uint64
	infos := make([]BlockInfo, 0, len(frames))
	for _, f := range frames {
		serialized, err := coder.Decode(f.compressed)
		if err != nil {
			return nil, fmt.Errorf("container: block %d: %w", f.index, err)
		}
		bh, _, err := block.ParseHeader(serialized)
		if err != nil {
			return nil, fmt.Errorf("container: block %d header: %w", f.index, err)
		}
		info := BlockInfo{
			Index:              f.index,
			RowCount:           int(bh.RowCount),
			CompressedLength:   len(f.compressed),
			UncompressedLength: bh.UncompressedLen,
			TemplateCount:      bh.TemplateCount,
			Opaque:             bh.Flags.Opaque,
		}
		if e, ok := byOffset[f.offset]; ok {
			info.FirstRowIndex = e.firstRowIndex
		} else {
			info.FirstRowIndex = firstRow
		}
		firstRow = info.FirstRowIndex + uint64(info.RowCount)
		infos = append(infos, info)
	}
	return infos, nil
}

// DecodeBlockAt fully parses block index (0-based, container order),
// for callers that need its templates or rows (spec.md §6 "cast inspect").
func DecodeBlockAt(data []byte, index int, opts DecodeOptions) (*block.Decoded, error) {
	hdr, body, _, err := splitContainer(data)
	if err != nil {
		return nil, err
	}
	base := uint64(len(data) - len(body))
	frames, err := readBlockFrames(body, base)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(frames) {
		return nil, fmt.Errorf("container: block index %d out of range [0,%d)", index, len(frames))
	}
	coder, err := codec.ByID(hdr.Coder, opts.SevenZipPath)
	if err != nil {
		return nil, err
	}
	serialized, err := coder.Decode(frames[index].compressed)
	if err != nil {
		return nil, fmt.Errorf("container: block %d: %w", index, err)
	}
	return block.Parse(serialized)
}
