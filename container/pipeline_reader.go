package container

import (
	"bytes"
	"math"

	"github.com/launix-de/cast/block"
	"github.com/launix-de/cast/guard"
	"github.com/launix-de/cast/sampler"
)

// rowSizeSampleRows is how many leading rows the row-size mode samples to
// estimate a mean row length (spec.md §4.F, "Row-size mode (for indexed
// containers)").
const rowSizeSampleRows = 1000

// computeRowsPerBlock implements spec.md §4.F's row-size mode: sample up to
// rowSizeSampleRows rows, take their mean length, and quantize
// TargetBlockBytes into a row count so every INDEXED block seals at exactly
// that many rows instead of a byte threshold (the last block may hold fewer).
// Each footer entry still records its own first row and row count, which is
// what RowRange reads.
func computeRowsPerBlock(rows [][]byte, targetBlockBytes int) int {
	sampleN := rowSizeSampleRows
	if sampleN > len(rows) {
		sampleN = len(rows)
	}
	if sampleN == 0 {
		return 1
	}
	total := 0
	for i := 0; i < sampleN; i++ {
		total += len(rows[i])
	}
	meanLen := float64(total) / float64(sampleN)
	if meanLen <= 0 {
		return 1
	}
	n := int(math.Ceil(float64(targetBlockBytes) / meanLen))
	if n < 1 {
		n = 1
	}
	return n
}

// sealedBlock is one block's serialized-but-not-yet-compressed payload,
// handed from the reader/assembler goroutine to the worker pool.
type sealedBlock struct {
	index         int
	firstRowIndex uint64
	rowCount      int
	payload       []byte
}

// sealBlocks walks input row by row, deciding per chunk whether to run it
// through the Binary Guard + Strategy Sampler + Block Assembler or fall back
// to an OPAQUE block, and emits each sealed, serialized block on jobs in
// order. This is the pipeline's single sequential stage — tokenization and
// template interning are inherently row-at-a-time, so only the downstream
// compression is parallelized (spec.md §5 concurrency model).
func sealBlocks(input []byte, opts Options, jobs chan<- sealedBlock) error {
	rows := block.SplitRows(input)
	if len(rows) == 0 {
		return nil
	}
	offsets := make([]int, len(rows))
	off := 0
	for i, r := range rows {
		offsets[i] = off
		off += len(r)
	}

	var rowsPerBlock int
	if opts.Indexed {
		rowsPerBlock = computeRowsPerBlock(rows, opts.TargetBlockBytes)
	}

	i := 0
	blockIndex := 0
	var rowCursor uint64
	for i < len(rows) {
		headSample := input[offsets[i]:]
		if guard.ClassifyWithThresholds(headSample, opts.GuardThresholds) == guard.Opaque {
			consumed := sealOpaqueChunk(rows, offsets, input, i, opts, rowsPerBlock, jobs, &blockIndex, &rowCursor)
			i += consumed
			continue
		}

		sampleEnd := i + sampler.SampleRows
		if sampleEnd > len(rows) {
			sampleEnd = len(rows)
		}
		decision := sampler.Sample(rows[i:sampleEnd])
		if decision.Opaque {
			consumed := sealOpaqueChunk(rows, offsets, input, i, opts, rowsPerBlock, jobs, &blockIndex, &rowCursor)
			i += consumed
			continue
		}

		asm := block.NewAssembler(decision.Strategy, opts.TemplateCap)
		for i < len(rows) {
			if err := asm.AddRow(rows[i]); err != nil {
				// template registry overflow, or a literal holding the
				// template sentinel byte: seal what we have and retry this
				// same row against a fresh block below.
				break
			}
			i++
			if rowsPerBlock > 0 {
				if asm.RowCount() >= rowsPerBlock {
					break
				}
			} else if asm.PlainLen() >= opts.TargetBlockBytes {
				break
			}
		}
		if asm.RowCount() == 0 {
			// the first row was rejected by a fresh Assembler (TemplateCap
			// below 1, or a literal holding the template sentinel byte);
			// avoid an infinite loop by sealing an OPAQUE chunk starting at
			// that row.
			consumed := sealOpaqueChunk(rows, offsets, input, i, opts, rowsPerBlock, jobs, &blockIndex, &rowCursor)
			i += consumed
			continue
		}
		payload, err := serializeStructured(asm.Finish(), opts.ColSep)
		if err != nil {
			return err
		}
		jobs <- sealedBlock{index: blockIndex, firstRowIndex: rowCursor, rowCount: asm.RowCount(), payload: payload}
		rowCursor += uint64(asm.RowCount())
		blockIndex++
	}
	return nil
}

// sealOpaqueChunk bundles rows starting at rows[start] into one OPAQUE block
// and sends it on jobs, returning the number of rows consumed (always >= 1).
// With rowsPerBlock > 0 (row-size mode, INDEXED containers) it stops at
// exactly that row count; otherwise it stops once the chunk reaches
// TargetBlockBytes.
func sealOpaqueChunk(rows [][]byte, offsets []int, input []byte, start int, opts Options, rowsPerBlock int, jobs chan<- sealedBlock, blockIndex *int, rowCursor *uint64) int {
	n := 0
	total := 0
	for start+n < len(rows) {
		total += len(rows[start+n])
		n++
		if rowsPerBlock > 0 {
			if n >= rowsPerBlock {
				break
			}
		} else if total >= opts.TargetBlockBytes {
			break
		}
	}
	end := offsets[start] + total
	raw := input[offsets[start]:end]

	var buf bytes.Buffer
	_ = block.SerializeOpaque(&buf, raw)
	jobs <- sealedBlock{index: *blockIndex, firstRowIndex: *rowCursor, rowCount: n, payload: buf.Bytes()}
	*rowCursor += uint64(n)
	*blockIndex++
	return n
}

func serializeStructured(asm *block.Assembled, colSep block.ColSepMode) ([]byte, error) {
	var buf bytes.Buffer
	if err := block.Serialize(&buf, asm, colSep); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
