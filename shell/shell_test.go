package shell

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/launix-de/cast/codec"
	"github.com/launix-de/cast/container"
	"github.com/stretchr/testify/require"
)

func buildContainer(t *testing.T, indexed bool) []byte {
	t.Helper()
	var csv bytes.Buffer
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&csv, "%d,name-%d,active\n", i, i)
	}
	opts := container.DefaultOptions()
	opts.TargetBlockBytes = 2048
	opts.Coder = codec.IDLZ4
	opts.Indexed = indexed

	var out bytes.Buffer
	_, err := container.Compress(&out, csv.Bytes(), opts)
	require.NoError(t, err)
	return out.Bytes()
}

func TestDispatchStats(t *testing.T) {
	data := buildContainer(t, false)
	var out bytes.Buffer
	sh := New(data, container.DecodeOptions{}, &out)
	require.NoError(t, sh.dispatch("stats"))
	require.Contains(t, out.String(), "block 0:")
}

func TestDispatchTemplates(t *testing.T) {
	data := buildContainer(t, false)
	var out bytes.Buffer
	sh := New(data, container.DecodeOptions{}, &out)
	require.NoError(t, sh.dispatch("templates 0"))
	require.Contains(t, out.String(), "template 0:")
}

func TestDispatchRowRequiresIndex(t *testing.T) {
	data := buildContainer(t, false)
	var out bytes.Buffer
	sh := New(data, container.DecodeOptions{}, &out)
	require.Error(t, sh.dispatch("row 5"))
}

func TestDispatchRowIndexed(t *testing.T) {
	data := buildContainer(t, true)
	var out bytes.Buffer
	sh := New(data, container.DecodeOptions{}, &out)
	require.NoError(t, sh.dispatch("row 5"))
	require.Contains(t, out.String(), "5,name-5,active")
}

func TestDispatchUnknownCommand(t *testing.T) {
	data := buildContainer(t, false)
	var out bytes.Buffer
	sh := New(data, container.DecodeOptions{}, &out)
	require.Error(t, sh.dispatch("frobnicate"))
}
