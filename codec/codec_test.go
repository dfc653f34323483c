package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLZ4RoundTrip(t *testing.T) {
	c := NewLZ4()
	src := bytes.Repeat([]byte("hello world, this compresses nicely "), 200)
	enc, err := c.Encode(src, Options{})
	require.NoError(t, err)
	dec, err := c.Decode(enc)
	require.NoError(t, err)
	require.Equal(t, src, dec)
}

func TestLZ4RoundTripIncompressible(t *testing.T) {
	c := NewLZ4()
	src := make([]byte, 64)
	for i := range src {
		src[i] = byte(i * 97 % 251)
	}
	enc, err := c.Encode(src, Options{})
	require.NoError(t, err)
	dec, err := c.Decode(enc)
	require.NoError(t, err)
	require.Equal(t, src, dec)
}

func TestLZ4RoundTripEmpty(t *testing.T) {
	c := NewLZ4()
	enc, err := c.Encode(nil, Options{})
	require.NoError(t, err)
	dec, err := c.Decode(enc)
	require.NoError(t, err)
	require.Empty(t, dec)
}

func TestLZMA2RoundTripWithOptions(t *testing.T) {
	c := NewLZMA2()
	src := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 500)
	enc, err := c.Encode(src, Options{DictSize: 1 << 20, Threads: 4})
	require.NoError(t, err)
	dec, err := c.Decode(enc)
	require.NoError(t, err)
	require.Equal(t, src, dec)
}

func TestByIDUnknown(t *testing.T) {
	_, err := ByID(ID(99), "")
	require.Error(t, err)
}

func TestIDString(t *testing.T) {
	require.Equal(t, "lzma2", IDLZMA2.String())
	require.Equal(t, "lz4", IDLZ4.String())
	require.Equal(t, "7z", ID7z.String())
}

func TestExternalProcess7zMissingPath(t *testing.T) {
	t.Setenv("SEVEN_ZIP_PATH", "")
	c := NewExternalProcess7z("")
	_, err := c.Encode([]byte("data"), Options{})
	require.Error(t, err)
}
