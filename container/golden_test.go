package container

import (
	"bytes"
	"testing"

	"github.com/launix-de/cast/codec"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

// TestGoldenScenariosRoundTrip compresses and decompresses each fixture in
// testdata/scenarios.txtar byte-for-byte, covering the scenario list CAST
// is meant to handle exactly: trivial CSV, a quoted field, mixed line
// shapes, and a file with no trailing newline.
func TestGoldenScenariosRoundTrip(t *testing.T) {
	archive, err := txtar.ParseFile("testdata/scenarios.txtar")
	require.NoError(t, err)
	require.NotEmpty(t, archive.Files)

	for _, f := range archive.Files {
		f := f
		t.Run(f.Name, func(t *testing.T) {
			data := f.Data
			if f.Name == "no-trailing-newline.csv" {
				// txtar ends every file's data with a newline; drop it so
				// this fixture really has none.
				data = bytes.TrimSuffix(data, []byte("\n"))
			}
			for _, coderID := range []codec.ID{codec.IDLZMA2, codec.IDLZ4} {
				opts := DefaultOptions()
				opts.Coder = coderID
				opts.TargetBlockBytes = 64 // force tiny blocks, several per fixture

				var out bytes.Buffer
				_, err := Compress(&out, data, opts)
				require.NoError(t, err)

				var restored bytes.Buffer
				require.NoError(t, Decompress(&restored, out.Bytes(), DecodeOptions{}))
				require.Equal(t, data, restored.Bytes())
			}
		})
	}
}

func TestGoldenScenarioOpaqueBinary(t *testing.T) {
	binary := make([]byte, 2048)
	for i := range binary {
		binary[i] = byte(i * 31)
		if i%19 == 0 {
			binary[i] = 0x00
		}
	}

	opts := DefaultOptions()
	opts.Coder = codec.IDLZ4
	opts.TargetBlockBytes = 512

	var out bytes.Buffer
	_, err := Compress(&out, binary, opts)
	require.NoError(t, err)

	var restored bytes.Buffer
	require.NoError(t, Decompress(&restored, out.Bytes(), DecodeOptions{}))
	require.Equal(t, binary, restored.Bytes())
}

// TestGoldenScenarioIntegrityFail corrupts one byte inside a compressed
// block frame and expects Decompress to surface an error rather than
// silently returning wrong bytes.
func TestGoldenScenarioIntegrityFail(t *testing.T) {
	archive, err := txtar.ParseFile("testdata/scenarios.txtar")
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Coder = codec.IDLZ4
	opts.TargetBlockBytes = 1024

	var out bytes.Buffer
	_, err = Compress(&out, archive.Files[0].Data, opts)
	require.NoError(t, err)

	corrupted := append([]byte(nil), out.Bytes()...)
	corrupted[len(corrupted)-1] ^= 0xFF

	var restored bytes.Buffer
	err = Decompress(&restored, corrupted, DecodeOptions{})
	require.Error(t, err)
}
