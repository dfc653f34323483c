/*
Copyright (C) 2026  CAST Contributors

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package config holds CAST's process-wide settings as one explicit struct,
// the way the teacher's storage.SettingsT does, rather than a framework of
// env-var bindings.
package config

import (
	"fmt"

	"github.com/docker/go-units"
	"github.com/launix-de/cast/block"
	"github.com/launix-de/cast/codec"
	"github.com/launix-de/cast/guard"
)

// Config is CAST's global settings struct. The zero value is not valid; use
// Default and override individual fields.
type Config struct {
	TargetBlockBytes int
	TemplateCap      int
	ColSep           block.ColSepMode
	Coder            codec.ID
	SevenZipPath     string
	Workers          int
	Indexed          bool
	GuardThresholds  guard.Thresholds
	QueueDepth       int
	// DictSize is the coder's dictionary/window size in bytes (spec.md
	// §4.I). 0 means codec.DefaultDictSize.
	DictSize int
	// CoderThreads is the coder's own internal thread count (spec.md
	// §4.I, distinct from Workers' block-level parallelism). 0 means
	// codec.DefaultThreads.
	CoderThreads int
}

// Default mirrors spec.md §3's defaults.
var Default = Config{
	TargetBlockBytes: 64 * 1024 * 1024,
	TemplateCap:      65535,
	ColSep:           block.ColSepVarint,
	Coder:            codec.IDLZMA2,
	Workers:          0, // 0 means runtime.NumCPU(), resolved by container.Options
	Indexed:          false,
	GuardThresholds:  guard.DefaultThresholds,
	QueueDepth:       8,
	DictSize:         codec.DefaultDictSize,
	CoderThreads:     codec.DefaultThreads,
}

// ParseSize parses a human-readable size string ("64MiB", "128Mi", "4096")
// using github.com/docker/go-units, the same library the teacher's
// tooling would reach for to size shards.
func ParseSize(s string) (int, error) {
	n, err := units.RAMInBytes(s)
	if err != nil {
		return 0, fmt.Errorf("config: invalid size %q: %w", s, err)
	}
	if n < 0 || n > int64(^uint(0)>>1) {
		return 0, fmt.Errorf("config: size %q out of range", s)
	}
	return int(n), nil
}

// ParseCoder resolves a coder name (as given on the CLI) to its codec.ID.
func ParseCoder(name string) (codec.ID, error) {
	switch name {
	case "", "lzma2":
		return codec.IDLZMA2, nil
	case "lz4":
		return codec.IDLZ4, nil
	case "7z":
		return codec.ID7z, nil
	default:
		return 0, fmt.Errorf("config: unknown coder %q", name)
	}
}

// ParseColSep resolves a column-separation mode name.
func ParseColSep(name string) (block.ColSepMode, error) {
	switch name {
	case "", "varint":
		return block.ColSepVarint, nil
	case "0x1f", "sep":
		return block.ColSep0x1F, nil
	default:
		return 0, fmt.Errorf("config: unknown colsep mode %q", name)
	}
}
