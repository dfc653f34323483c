package container

import (
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/jtolds/gls"
	"github.com/launix-de/cast/bytesutil"
	"github.com/launix-de/cast/codec"
)

var glsMgr = gls.NewContextManager()

// WorkerLane returns the calling goroutine's worker index, if it is running
// inside a Compress/Decompress worker spawned by this package, and false
// otherwise. Intended for the logging package to prefix a worker's lines.
func WorkerLane() (int, bool) {
	v, ok := glsMgr.GetValue("lane")
	if !ok {
		return 0, false
	}
	return v.(int), true
}

type compressedBlock struct {
	index         int
	firstRowIndex uint64
	rowCount      int
	compressed    []byte
	err           error
}

// Compress reads input, an in-memory byte slice of the full logical input
// (the file header must record the total size up front, so a true
// single-pass stream over an unbounded io.Reader is not attempted), chunks
// it into blocks, compresses each block with opts.Coder across opts.workers()
// goroutines, and frames the results into w as one CAST container
// (spec.md §4.J). It returns the RunID correlating this run's log lines.
func Compress(w io.Writer, input []byte, opts Options) (uuid.UUID, error) {
	runID := uuid.New()

	jobs := make(chan sealedBlock, opts.queueDepth())
	results := make(chan compressedBlock, opts.queueDepth())

	var readerErr error
	go func() {
		defer close(jobs)
		readerErr = sealBlocks(input, opts, jobs)
	}()

	coder, err := codec.ByID(opts.Coder, opts.SevenZipPath)
	if err != nil {
		return runID, err
	}

	coderOpts := opts.coderOptions()

	var wg sync.WaitGroup
	for lane := 0; lane < opts.workers(); lane++ {
		wg.Add(1)
		go func(lane int) {
			defer wg.Done()
			glsMgr.SetValues(gls.Values{"lane": lane}, func() {
				for job := range jobs {
					compressed, err := coder.Encode(job.payload, coderOpts)
					results <- compressedBlock{
						index:         job.index,
						firstRowIndex: job.firstRowIndex,
						rowCount:      job.rowCount,
						compressed:    compressed,
						err:           err,
					}
				}
			})
		}(lane)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	cw := newCountingWriter(w)
	if err := writeFileHeader(cw, opts.Indexed, opts.Coder, uint64(len(input))); err != nil {
		return runID, err
	}

	ix := newIndex()
	pending := make(map[int]compressedBlock)
	next := 0
	var firstErr error
	for res := range results {
		if res.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("container: block %d: %w", res.index, res.err)
		}
		pending[res.index] = res
		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if firstErr != nil {
				continue // drain remaining results without writing further frames
			}
			offset := cw.Offset()
			if err := writeBlockFrame(cw, r.compressed); err != nil {
				firstErr = err
				continue
			}
			if opts.Indexed {
				ix.add(footerEntry{
					compressedOffset: offset,
					compressedLength: uint64(len(r.compressed)),
					firstRowIndex:    r.firstRowIndex,
					rowCount:         uint64(r.rowCount),
				})
			}
			if opts.OnProgress != nil {
				opts.OnProgress(r.index, next, int64(len(input)), int64(cw.Offset()), false)
			}
		}
	}
	if readerErr != nil {
		return runID, readerErr
	}
	if firstErr != nil {
		return runID, firstErr
	}
	if opts.Indexed {
		if err := writeFooter(cw, ix); err != nil {
			return runID, err
		}
	}
	if opts.OnProgress != nil {
		lastIndex := next - 1
		if lastIndex < 0 {
			lastIndex = 0
		}
		opts.OnProgress(lastIndex, next, int64(len(input)), int64(cw.Offset()), true)
	}
	return runID, nil
}

// writeBlockFrame writes one container entry: varint(compressed_len)
// followed by the compressed bytes (spec.md §4.J).
func writeBlockFrame(w *countingWriter, compressed []byte) error {
	if _, err := w.Write(bytesutil.AppendUvarint(nil, uint64(len(compressed)))); err != nil {
		return err
	}
	_, err := w.Write(compressed)
	return err
}
