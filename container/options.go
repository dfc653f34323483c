package container

import (
	"runtime"

	"github.com/launix-de/cast/block"
	"github.com/launix-de/cast/codec"
	"github.com/launix-de/cast/guard"
)

// DefaultTargetBlockBytes is the default uncompressed size a block grows to
// before the driver seals it (spec.md §3 TARGET_BLOCK_BYTES).
const DefaultTargetBlockBytes = 64 * 1024 * 1024

// Options configures one Compress call. The zero value is not valid; use
// DefaultOptions to get sane defaults and override individual fields.
type Options struct {
	// TargetBlockBytes seals the current block once its uncompressed size
	// reaches this many bytes.
	TargetBlockBytes int
	// TemplateCap bounds each block's Template Registry.
	TemplateCap int
	// ColSep selects the column-stream separation discipline.
	ColSep block.ColSepMode
	// Coder selects the compressor used for every block in this container.
	Coder codec.ID
	// SevenZipPath is only consulted when Coder == codec.ID7z.
	SevenZipPath string
	// DictSize is the coder's dictionary/window size in bytes (spec.md
	// §4.I). <= 0 means codec.DefaultDictSize.
	DictSize int
	// CoderThreads is the coder's own internal thread count (spec.md
	// §4.I), independent of Workers. <= 0 means codec.DefaultThreads.
	CoderThreads int
	// Workers is the number of concurrent coder goroutines. Defaults to
	// runtime.NumCPU() when <= 0.
	Workers int
	// Indexed requests a footer row-range index (spec.md §4.J).
	Indexed bool
	// GuardThresholds overrides the Binary Guard's defaults.
	GuardThresholds guard.Thresholds
	// QueueDepth bounds the number of sealed-but-not-yet-compressed blocks
	// held in memory at once (the reader -> worker handoff channel).
	QueueDepth int
	// OnProgress, if set, is called once per block in container order as
	// it is written, and once more with Done set after the last block.
	// progress.Hub.OnProgress adapts this into a websocket broadcast.
	OnProgress func(blockIndex, blocksSoFar int, bytesIn, bytesOut int64, done bool)
}

// DefaultOptions returns an Options populated with spec.md §3 defaults.
func DefaultOptions() Options {
	return Options{
		TargetBlockBytes: DefaultTargetBlockBytes,
		TemplateCap:      65535,
		ColSep:           block.ColSepVarint,
		Coder:            codec.IDLZMA2,
		Workers:          runtime.NumCPU(),
		GuardThresholds:  guard.DefaultThresholds,
		QueueDepth:       8,
	}
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return runtime.NumCPU()
	}
	return o.Workers
}

func (o Options) queueDepth() int {
	if o.QueueDepth <= 0 {
		return 8
	}
	return o.QueueDepth
}

// coderOptions derives the per-call codec.Options from the container's
// Options, so DictSize/CoderThreads default the same way Workers/QueueDepth
// do above.
func (o Options) coderOptions() codec.Options {
	return codec.Options{DictSize: o.DictSize, Threads: o.CoderThreads}
}
