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

// Package watch runs CAST as a directory daemon: new or rewritten files
// dropped into an input directory are compressed into an output directory
// as they settle. The fan-in-goroutine-plus-event-channel shape mirrors
// the teacher's storage/cache.go CacheManager; the fsnotify event loop
// itself follows the library's own documented usage, since the teacher
// only carries fsnotify as a transitive dependency and never calls it
// directly.
package watch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/launix-de/cast/container"
	"github.com/launix-de/cast/logging"
)

// Options configures a Daemon.
type Options struct {
	InDir, OutDir string
	ContainerOpts container.Options
	// SettleDelay is how long a file must go unmodified before it is
	// considered finished writing and safe to compress.
	SettleDelay time.Duration
}

// Daemon watches InDir for *.csv/*.tsv/*.log/*.dat/*.jsonl/*.sql files
// (extension matched case-insensitively) and compresses
// each into OutDir as a .cast container once it stops changing.
type Daemon struct {
	opts Options
}

// New returns a Daemon for opts. SettleDelay defaults to 500ms.
func New(opts Options) *Daemon {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = 500 * time.Millisecond
	}
	return &Daemon{opts: opts}
}

// Run watches until ctx is cancelled or an unrecoverable fsnotify error
// occurs. Per-file compression errors are logged and do not stop the
// daemon.
func (d *Daemon) Run(ctx context.Context) error {
	if err := os.MkdirAll(d.opts.OutDir, 0755); err != nil {
		return fmt.Errorf("watch: mkdir outdir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: new watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(d.opts.InDir); err != nil {
		return fmt.Errorf("watch: add %s: %w", d.opts.InDir, err)
	}

	pending := map[string]*time.Timer{}
	runID := uuid.New()
	logging.Infof(runID, "watch: watching %s -> %s", d.opts.InDir, d.opts.OutDir)

	fire := make(chan string, 64)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !eligible(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if t, ok := pending[ev.Name]; ok {
				t.Stop()
			}
			name := ev.Name
			pending[name] = time.AfterFunc(d.opts.SettleDelay, func() { fire <- name })
		case name := <-fire:
			delete(pending, name)
			if err := d.compressOne(ctx, runID, name); err != nil {
				logging.Errorf(runID, "watch", -1, -1, "compress %s: %v", name, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warnf(runID, "watch: fsnotify error: %v", err)
		}
	}
}

func eligible(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".log", ".dat", ".jsonl", ".sql":
		return true
	default:
		return false
	}
}

func (d *Daemon) compressOne(ctx context.Context, runID uuid.UUID, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	outPath := filepath.Join(d.opts.OutDir, filepath.Base(path)+".cast")
	var buf bytes.Buffer
	blockRunID, err := container.Compress(&buf, data, d.opts.ContainerOpts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
		return err
	}
	logging.Infof(runID, "watch: compressed %s -> %s (run %s, %d -> %d bytes)",
		path, outPath, blockRunID, len(data), buf.Len())
	return nil
}
