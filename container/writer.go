package container

import "io"

// countingWriter wraps an io.Writer and tracks the total byte count written
// through it, so the footer index can record each block's file offset.
type countingWriter struct {
	w     io.Writer
	count uint64
}

func newCountingWriter(w io.Writer) *countingWriter {
	return &countingWriter{w: w}
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.count += uint64(n)
	return n, err
}

func (c *countingWriter) Offset() uint64 { return c.count }
