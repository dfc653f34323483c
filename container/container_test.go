package container

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/launix-de/cast/codec"
	"github.com/stretchr/testify/require"
)

func buildCSV(n int) []byte {
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		fmt.Fprintf(&buf, "%d,name-%d,active\n", i, i)
	}
	return buf.Bytes()
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	input := buildCSV(5000)
	opts := DefaultOptions()
	opts.TargetBlockBytes = 16 * 1024 // force multiple blocks
	opts.Coder = codec.IDLZ4

	var out bytes.Buffer
	_, err := Compress(&out, input, opts)
	require.NoError(t, err)

	var restored bytes.Buffer
	require.NoError(t, Decompress(&restored, out.Bytes(), DecodeOptions{}))
	require.Equal(t, input, restored.Bytes())
}

func TestCompressDecompressIndexedRowRange(t *testing.T) {
	input := buildCSV(2000)
	opts := DefaultOptions()
	opts.TargetBlockBytes = 8 * 1024
	opts.Coder = codec.IDLZ4
	opts.Indexed = true

	var out bytes.Buffer
	_, err := Compress(&out, input, opts)
	require.NoError(t, err)

	rows, err := RowRange(out.Bytes(), 100, 110, DecodeOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 10)
	for i, row := range rows {
		require.Equal(t, fmt.Sprintf("%d,name-%d,active\n", 100+i, 100+i), string(row))
	}
}

func TestIndexedContainerUsesRowSizeBlockSealing(t *testing.T) {
	// spec.md §4.F row-size mode: once INDEXED, blocks seal at a fixed row
	// count (derived from a 1000-row sample's mean length), not a byte
	// threshold, so every footer entry but the last should carry the same
	// rowCount.
	input := buildCSV(5000)
	opts := DefaultOptions()
	opts.TargetBlockBytes = 8 * 1024
	opts.Coder = codec.IDLZ4
	opts.Indexed = true

	var out bytes.Buffer
	_, err := Compress(&out, input, opts)
	require.NoError(t, err)

	ix, err := readFooter(out.Bytes())
	require.NoError(t, err)
	entries := ix.Entries()
	require.Greater(t, len(entries), 1)

	want := entries[0].rowCount
	for i, e := range entries {
		if i == len(entries)-1 {
			require.LessOrEqual(t, e.rowCount, want)
			continue
		}
		require.Equal(t, want, e.rowCount)
	}

	rows, err := RowRange(out.Bytes(), 4000, 4010, DecodeOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 10)
	for i, row := range rows {
		require.Equal(t, fmt.Sprintf("%d,name-%d,active\n", 4000+i, 4000+i), string(row))
	}
}

func TestCompressDecompressMixedOpaqueAndStructured(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(buildCSV(500))
	// an opaque-looking binary chunk in the middle
	binary := make([]byte, 4096)
	for i := range binary {
		binary[i] = byte(i % 251)
		if i%37 == 0 {
			binary[i] = 0x00
		}
	}
	buf.Write(binary)
	buf.WriteByte('\n')
	buf.Write(buildCSV(500))
	input := buf.Bytes()

	opts := DefaultOptions()
	opts.TargetBlockBytes = 4096
	opts.Coder = codec.IDLZ4

	var out bytes.Buffer
	_, err := Compress(&out, input, opts)
	require.NoError(t, err)

	var restored bytes.Buffer
	require.NoError(t, Decompress(&restored, out.Bytes(), DecodeOptions{}))
	require.Equal(t, input, restored.Bytes())
}

func TestInspectAndDecodeBlockAt(t *testing.T) {
	input := buildCSV(1000)
	opts := DefaultOptions()
	opts.TargetBlockBytes = 8 * 1024
	opts.Coder = codec.IDLZ4
	opts.Indexed = true

	var out bytes.Buffer
	_, err := Compress(&out, input, opts)
	require.NoError(t, err)

	infos, err := Inspect(out.Bytes(), DecodeOptions{})
	require.NoError(t, err)
	require.Greater(t, len(infos), 1)

	var total int
	for i, info := range infos {
		require.Equal(t, i, info.Index)
		require.Greater(t, info.RowCount, 0)
		total += info.RowCount

		dec, err := DecodeBlockAt(out.Bytes(), i, DecodeOptions{})
		require.NoError(t, err)
		require.Equal(t, info.RowCount, len(dec.RowOrder))
	}
	require.Equal(t, 1000, total)

	_, err = DecodeBlockAt(out.Bytes(), len(infos), DecodeOptions{})
	require.Error(t, err)
}

func TestCompressReportsProgress(t *testing.T) {
	input := buildCSV(500)
	opts := DefaultOptions()
	opts.TargetBlockBytes = 4 * 1024
	opts.Coder = codec.IDLZ4

	var calls []bool
	opts.OnProgress = func(blockIndex, blocksSoFar int, bytesIn, bytesOut int64, done bool) {
		calls = append(calls, done)
		require.Equal(t, int64(len(input)), bytesIn)
	}

	var out bytes.Buffer
	_, err := Compress(&out, input, opts)
	require.NoError(t, err)
	require.NotEmpty(t, calls)
	require.True(t, calls[len(calls)-1])
}

func TestCompressEmptyInput(t *testing.T) {
	opts := DefaultOptions()
	var out bytes.Buffer
	_, err := Compress(&out, nil, opts)
	require.NoError(t, err)

	var restored bytes.Buffer
	require.NoError(t, Decompress(&restored, out.Bytes(), DecodeOptions{}))
	require.Empty(t, restored.Bytes())
}
