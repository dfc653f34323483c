package guard

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyCSV(t *testing.T) {
	input := []byte("a,b,c\nd,e,f\n")
	require.Equal(t, Structurable, Classify(input))
}

func TestClassifyRandomBinary(t *testing.T) {
	// 4 KiB of bytes outside the printable set, including several NULs.
	buf := make([]byte, 4096)
	for i := range buf {
		buf[i] = byte(i % 3) // 0x00, 0x01, 0x02 repeating: mostly unprintable, many NULs
	}
	require.Equal(t, Opaque, Classify(buf))
}

func TestClassifyTooFewRows(t *testing.T) {
	input := []byte("just one line with no newline at all")
	require.Equal(t, Opaque, Classify(input))
}

func TestClassifyEmptyInput(t *testing.T) {
	require.Equal(t, Opaque, Classify(nil))
}

func TestClassifyManyNULs(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("a,b\n")
	buf.Write([]byte{0, 0, 0})
	buf.WriteString("c,d\n")
	require.Equal(t, Opaque, Classify(buf.Bytes()))
}

func TestClassifyHonorsSampleSize(t *testing.T) {
	// A huge valid CSV head followed by garbage far beyond SampleSize must
	// still classify as structurable, since only the head sample matters.
	var buf bytes.Buffer
	for i := 0; i < 2000; i++ {
		buf.WriteString("a,b,c\n")
	}
	require.True(t, buf.Len() > SampleSize)
	buf.Write(bytes.Repeat([]byte{0x00}, 1024))
	require.Equal(t, Structurable, Classify(buf.Bytes()))
}

func TestDecisionString(t *testing.T) {
	require.Equal(t, "OPAQUE", Opaque.String())
	require.Equal(t, "STRUCTURABLE", Structurable.String())
}
