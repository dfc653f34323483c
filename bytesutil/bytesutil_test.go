package bytesutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCRC32KnownVector(t *testing.T) {
	// "123456789" is the standard CRC check string; IEEE polynomial result
	// is the well-known 0xCBF43926.
	require.Equal(t, uint32(0xCBF43926), CRC32([]byte("123456789")))
}

func TestCRC32WriterMatchesOneShot(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	w := NewCRC32Writer()
	w.Write(data[:10])
	w.Write(data[10:])
	require.Equal(t, CRC32(data), w.Sum32())
}

func TestVarintRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 300, 1 << 20, 1<<63 - 1, ^uint64(0)}
	for _, v := range cases {
		buf := make([]byte, MaxVarintLen)
		n := PutUvarint(buf, v)
		got, m, err := Uvarint(buf[:n])
		require.NoError(t, err)
		require.Equal(t, n, m)
		require.Equal(t, v, got)
	}
}

func TestAppendUvarint(t *testing.T) {
	var buf []byte
	buf = AppendUvarint(buf, 300)
	buf = AppendUvarint(buf, 0)
	v1, n1, err := Uvarint(buf)
	require.NoError(t, err)
	require.Equal(t, uint64(300), v1)
	v2, _, err := Uvarint(buf[n1:])
	require.NoError(t, err)
	require.Equal(t, uint64(0), v2)
}

func TestUvarintTruncated(t *testing.T) {
	_, _, err := Uvarint([]byte{0x80, 0x80})
	require.ErrorIs(t, err, ErrVarintTruncated)
}

func TestUvarintOverflow(t *testing.T) {
	buf := make([]byte, 11)
	for i := range buf {
		buf[i] = 0x80
	}
	buf[10] = 0x01
	_, _, err := Uvarint(buf)
	require.ErrorIs(t, err, ErrVarintOverflow)
}

func TestView(t *testing.T) {
	arena := []byte("hello,world")
	v := NewView(arena, 0, 5)
	require.Equal(t, "hello", string(v.Bytes()))
	require.False(t, v.Empty())

	empty := NewView(arena, 5, 0)
	require.True(t, empty.Empty())
}
