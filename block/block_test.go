package block

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/launix-de/cast/tokenizer"
	"github.com/stretchr/testify/require"
)

func buildAssembled(t *testing.T, rows [][]byte, strategy tokenizer.Strategy) *Assembled {
	t.Helper()
	asm := NewAssembler(strategy, 65535)
	for _, row := range rows {
		require.NoError(t, asm.AddRow(row))
	}
	return asm.Finish()
}

func TestRoundTripStrictCSV(t *testing.T) {
	var rows [][]byte
	for i := 0; i < 20; i++ {
		rows = append(rows, []byte(fmt.Sprintf("%d,name-%d,active\n", i, i)))
	}
	asm := buildAssembled(t, rows, tokenizer.Strategy{Kind: tokenizer.Strict, Delim: ','})

	var buf bytes.Buffer
	require.NoError(t, Serialize(&buf, asm, ColSepVarint))

	var out bytes.Buffer
	require.NoError(t, Decode(buf.Bytes(), &out))

	var want bytes.Buffer
	for _, r := range rows {
		want.Write(r)
	}
	require.Equal(t, want.Bytes(), out.Bytes())
}

func TestRoundTripStrict0x1FMode(t *testing.T) {
	var rows [][]byte
	for i := 0; i < 10; i++ {
		rows = append(rows, []byte(fmt.Sprintf("a%d,b%d\n", i, i)))
	}
	asm := buildAssembled(t, rows, tokenizer.Strategy{Kind: tokenizer.Strict, Delim: ','})

	var buf bytes.Buffer
	require.NoError(t, Serialize(&buf, asm, ColSep0x1F))

	var out bytes.Buffer
	require.NoError(t, Decode(buf.Bytes(), &out))

	var want bytes.Buffer
	for _, r := range rows {
		want.Write(r)
	}
	require.Equal(t, want.Bytes(), out.Bytes())
}

func TestRoundTripMixedArity(t *testing.T) {
	rows := [][]byte{
		[]byte("a,b,c\n"),
		[]byte("x,y\n"),
		[]byte("p,q,r\n"),
		[]byte("\"q,uo\",ted\n"),
	}
	asm := buildAssembled(t, rows, tokenizer.Strategy{Kind: tokenizer.Strict, Delim: ','})

	var buf bytes.Buffer
	require.NoError(t, Serialize(&buf, asm, ColSepVarint))

	var out bytes.Buffer
	require.NoError(t, Decode(buf.Bytes(), &out))

	var want bytes.Buffer
	for _, r := range rows {
		want.Write(r)
	}
	require.Equal(t, want.Bytes(), out.Bytes())
}

func TestRoundTripOpaque(t *testing.T) {
	raw := []byte{0x00, 0x01, 0xFF, 0x02, 0x00, 0x10}
	var buf bytes.Buffer
	require.NoError(t, SerializeOpaque(&buf, raw))

	var out bytes.Buffer
	require.NoError(t, Decode(buf.Bytes(), &out))
	require.Equal(t, raw, out.Bytes())
}

func TestDecodeDetectsCorruption(t *testing.T) {
	rows := [][]byte{[]byte("a,b\n"), []byte("c,d\n")}
	asm := buildAssembled(t, rows, tokenizer.Strategy{Kind: tokenizer.Strict, Delim: ','})

	var buf bytes.Buffer
	require.NoError(t, Serialize(&buf, asm, ColSepVarint))

	corrupt := append([]byte(nil), buf.Bytes()...)
	corrupt[len(corrupt)-1] ^= 0xFF // flip every bit of the CRC trailer's last byte

	var out bytes.Buffer
	err := Decode(corrupt, &out)
	require.ErrorIs(t, err, ErrIntegrity)
}

func TestParseRowsSupportsRangeQueries(t *testing.T) {
	var rows [][]byte
	for i := 0; i < 30; i++ {
		rows = append(rows, []byte(fmt.Sprintf("%d,val\n", i)))
	}
	asm := buildAssembled(t, rows, tokenizer.Strategy{Kind: tokenizer.Strict, Delim: ','})

	var buf bytes.Buffer
	require.NoError(t, Serialize(&buf, asm, ColSepVarint))

	d, err := Parse(buf.Bytes())
	require.NoError(t, err)
	got, err := d.Rows()
	require.NoError(t, err)
	require.Len(t, got, 30)
	require.Equal(t, rows[5:10], got[5:10])
}

func TestBadMagicRejected(t *testing.T) {
	_, err := Parse([]byte("not a block"))
	require.Error(t, err)
}
