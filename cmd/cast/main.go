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

// cast is the CAST command-line front end: compress/decompress/verify a
// container, inspect one interactively, watch a directory, or dump a
// container's block layout. Manual os.Args parsing with subcommands and
// "-flag=value" options follows tools/jitgen/main.go's idiom rather than
// reaching for a flag-parsing framework.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/dc0d/onexit"

	"github.com/launix-de/cast/config"
	"github.com/launix-de/cast/container"
	"github.com/launix-de/cast/logging"
	"github.com/launix-de/cast/progress"
	"github.com/launix-de/cast/shell"
	"github.com/launix-de/cast/store"
	"github.com/launix-de/cast/watch"
)

func main() {
	onexit.Register(func(sig os.Signal) {
		fmt.Fprintf(os.Stderr, "cast: shutting down (%v)\n", sig)
	})

	if len(os.Args) < 2 {
		usage()
		onexit.Exit(1)
		return
	}

	var err error
	switch os.Args[1] {
	case "compress":
		err = runCompress(os.Args[2:])
	case "decompress":
		err = runDecompress(os.Args[2:])
	case "verify":
		err = runVerify(os.Args[2:])
	case "inspect":
		err = runInspect(os.Args[2:])
	case "watch":
		err = runWatch(os.Args[2:])
	case "dump":
		err = runDump(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "cast: unknown command %q\n", os.Args[1])
		usage()
		onexit.Exit(1)
		return
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "cast: %v\n", err)
		onexit.Exit(1)
		return
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: cast <command> [options]

commands:
  compress   <in> <out>      compress <in> into a CAST container at <out>
  decompress <in> <out>      reconstruct the original bytes from a container
  verify     <in>            decompress in memory and discard, reporting errors only
  inspect    <in>            open an interactive REPL over a container
  watch      <indir> <outdir> compress new/changed files as they settle
  dump       <in>            print each block's shape (rows, templates, sizes)

options (compress):
  -block-size=SIZE     target uncompressed block size, e.g. 64MiB (default 64MiB)
  -coder=NAME          lzma2 | lz4 | 7z (default lzma2)
  -colsep=MODE         varint | 0x1f (default varint)
  -indexed             build a row-range footer index
  -workers=N           concurrent coder goroutines (default NumCPU)
  -dict-size=SIZE      coder dictionary/window size, e.g. 128MiB (default 128MiB)
  -coder-threads=N     coder's own internal thread count (default 1)

options (decompress):
  -rows=LO..HI         only reconstruct rows LO..HI, 1-based and inclusive
                       (requires an INDEXED container; see spec's rows?
                       range-query contract)
  -seven-zip-path=PATH path to the 7z binary, when the container used -coder=7z`)
}

func parseFlags(args []string) (flags map[string]string, positional []string) {
	flags = map[string]string{}
	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			a = strings.TrimLeft(a, "-")
			if i := strings.IndexByte(a, '='); i >= 0 {
				flags[a[:i]] = a[i+1:]
			} else {
				flags[a] = "true"
			}
			continue
		}
		positional = append(positional, a)
	}
	return flags, positional
}

func buildOptions(flags map[string]string) (container.Options, error) {
	opts := container.DefaultOptions()
	opts.TargetBlockBytes = config.Default.TargetBlockBytes

	if v, ok := flags["block-size"]; ok {
		n, err := config.ParseSize(v)
		if err != nil {
			return opts, err
		}
		opts.TargetBlockBytes = n
	}
	if v, ok := flags["coder"]; ok {
		c, err := config.ParseCoder(v)
		if err != nil {
			return opts, err
		}
		opts.Coder = c
	}
	if v, ok := flags["colsep"]; ok {
		m, err := config.ParseColSep(v)
		if err != nil {
			return opts, err
		}
		opts.ColSep = m
	}
	if v, ok := flags["workers"]; ok {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
			return opts, fmt.Errorf("bad -workers value %q", v)
		}
		opts.Workers = n
	}
	if _, ok := flags["indexed"]; ok {
		opts.Indexed = true
	}
	if v, ok := flags["seven-zip-path"]; ok {
		opts.SevenZipPath = v
	}
	if v, ok := flags["dict-size"]; ok {
		n, err := config.ParseSize(v)
		if err != nil {
			return opts, err
		}
		opts.DictSize = n
	}
	if v, ok := flags["coder-threads"]; ok {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
			return opts, fmt.Errorf("bad -coder-threads value %q", v)
		}
		opts.CoderThreads = n
	}
	return opts, nil
}

// parseRowRange parses a "-rows=LO..HI" value under spec.md §4.H/§8's
// 1-based, inclusive [r_lo, r_hi] convention and converts it to the 0-based,
// half-open [lo, hi) convention container.RowRange expects — the only place
// in this codebase where that boundary translation happens.
func parseRowRange(s string) (lo, hi uint64, err error) {
	parts := strings.SplitN(s, "..", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad -rows value %q, want LO..HI", s)
	}
	loOneBased, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad -rows value %q: %w", s, err)
	}
	hiOneBased, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad -rows value %q: %w", s, err)
	}
	if loOneBased < 1 || hiOneBased < loOneBased {
		return 0, 0, fmt.Errorf("bad -rows value %q: want 1 <= LO <= HI", s)
	}
	// [loOneBased, hiOneBased] inclusive, 1-based -> [lo, hi) exclusive, 0-based.
	return loOneBased - 1, hiOneBased, nil
}

func runCompress(args []string) error {
	flags, pos := parseFlags(args)
	if len(pos) != 2 {
		return fmt.Errorf("usage: cast compress [options] <in> <out>")
	}
	opts, err := buildOptions(flags)
	if err != nil {
		return err
	}

	srcBackend, srcPath, err := store.Open(pos[0])
	if err != nil {
		return err
	}
	dstBackend, dstPath, err := store.Open(pos[1])
	if err != nil {
		return err
	}

	ctx := context.Background()
	input, err := srcBackend.Get(ctx, srcPath)
	if err != nil {
		return err
	}

	if _, ok := flags["progress"]; ok {
		hub := progress.NewHub()
		_ = hub // a real deployment would wire hub.ServeHTTP onto an http.Server
	}

	var out bytes.Buffer
	runID, err := container.Compress(&out, input, opts)
	if err != nil {
		return err
	}
	logging.Infof(runID, "compress: %s (%d bytes) -> %s (%d bytes)", pos[0], len(input), pos[1], out.Len())
	return dstBackend.Put(ctx, dstPath, out.Bytes())
}

func runDecompress(args []string) error {
	flags, pos := parseFlags(args)
	if len(pos) != 2 {
		return fmt.Errorf("usage: cast decompress [options] <in> <out>")
	}
	srcBackend, srcPath, err := store.Open(pos[0])
	if err != nil {
		return err
	}
	dstBackend, dstPath, err := store.Open(pos[1])
	if err != nil {
		return err
	}

	ctx := context.Background()
	data, err := srcBackend.Get(ctx, srcPath)
	if err != nil {
		return err
	}

	decOpts := container.DecodeOptions{SevenZipPath: flags["seven-zip-path"]}

	if v, ok := flags["rows"]; ok {
		lo, hi, err := parseRowRange(v)
		if err != nil {
			return err
		}
		rows, err := container.RowRange(data, lo, hi, decOpts)
		if err != nil {
			return err
		}
		var out bytes.Buffer
		for _, row := range rows {
			out.Write(row)
		}
		return dstBackend.Put(ctx, dstPath, out.Bytes())
	}

	var out bytes.Buffer
	if err := container.Decompress(&out, data, decOpts); err != nil {
		return err
	}
	return dstBackend.Put(ctx, dstPath, out.Bytes())
}

func runVerify(args []string) error {
	_, pos := parseFlags(args)
	if len(pos) != 1 {
		return fmt.Errorf("usage: cast verify <in>")
	}
	backend, path, err := store.Open(pos[0])
	if err != nil {
		return err
	}
	data, err := backend.Get(context.Background(), path)
	if err != nil {
		return err
	}
	var discard bytes.Buffer
	if err := container.Decompress(&discard, data, container.DecodeOptions{}); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	fmt.Fprintf(os.Stdout, "ok: %s (%d bytes reconstructed)\n", pos[0], discard.Len())
	return nil
}

func runInspect(args []string) error {
	_, pos := parseFlags(args)
	if len(pos) != 1 {
		return fmt.Errorf("usage: cast inspect <in>")
	}
	backend, path, err := store.Open(pos[0])
	if err != nil {
		return err
	}
	data, err := backend.Get(context.Background(), path)
	if err != nil {
		return err
	}
	return shell.New(data, container.DecodeOptions{}, os.Stdout).Run()
}

func runDump(args []string) error {
	_, pos := parseFlags(args)
	if len(pos) != 1 {
		return fmt.Errorf("usage: cast dump <in>")
	}
	backend, path, err := store.Open(pos[0])
	if err != nil {
		return err
	}
	data, err := backend.Get(context.Background(), path)
	if err != nil {
		return err
	}
	infos, err := container.Inspect(data, container.DecodeOptions{})
	if err != nil {
		return err
	}
	for _, info := range infos {
		kind := "structured"
		if info.Opaque {
			kind = "opaque"
		}
		fmt.Printf("block %3d  %-10s rows=%-7d templates=%-5d first_row=%-8d compressed=%-9d uncompressed=%d\n",
			info.Index, kind, info.RowCount, info.TemplateCount, info.FirstRowIndex, info.CompressedLength, info.UncompressedLength)
	}
	return nil
}

func runWatch(args []string) error {
	flags, pos := parseFlags(args)
	if len(pos) != 2 {
		return fmt.Errorf("usage: cast watch [options] <indir> <outdir>")
	}
	opts, err := buildOptions(flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := watch.New(watch.Options{InDir: pos[0], OutDir: pos[1], ContainerOpts: opts})
	return d.Run(ctx)
}
