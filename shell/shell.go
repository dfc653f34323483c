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

// Package shell implements "cast inspect": an interactive readline REPL
// for poking at an already-built container without decompressing it in
// full. The prompt-loop shape (readline, tokenize into command + args,
// dispatch, print, repeat) is grounded on the teacher's scm/prompt.go.
package shell

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/launix-de/cast/container"
)

// Shell is an interactive inspector bound to one container's bytes.
type Shell struct {
	data []byte
	opts container.DecodeOptions
	out  io.Writer
}

// New returns a Shell over data, writing command output to out.
func New(data []byte, opts container.DecodeOptions, out io.Writer) *Shell {
	return &Shell{data: data, opts: opts, out: out}
}

// Run drives the REPL until the user exits (Ctrl-D / "exit") or an
// unrecoverable readline error occurs.
func (s *Shell) Run() error {
	rl, err := readline.New("cast> ")
	if err != nil {
		return fmt.Errorf("shell: readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(s.out, "cast inspect — commands: templates [block], row <n>, stats, help, exit")
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("shell: readline: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		if err := s.dispatch(line); err != nil {
			fmt.Fprintln(s.out, "error:", err)
		}
	}
}

func (s *Shell) dispatch(line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "help":
		fmt.Fprintln(s.out, "templates [block]   - list templates in block (default 0)")
		fmt.Fprintln(s.out, "row <n>             - print row n's reconstructed bytes")
		fmt.Fprintln(s.out, "stats               - per-block summary (row count, template count, sizes)")
		return nil
	case "stats":
		return s.cmdStats()
	case "templates":
		idx := 0
		if len(fields) > 1 {
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return fmt.Errorf("bad block index %q", fields[1])
			}
			idx = n
		}
		return s.cmdTemplates(idx)
	case "row":
		if len(fields) < 2 {
			return fmt.Errorf("usage: row <n>")
		}
		n, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return fmt.Errorf("bad row number %q", fields[1])
		}
		return s.cmdRow(n)
	default:
		return fmt.Errorf("unknown command %q (try 'help')", fields[0])
	}
}

func (s *Shell) cmdStats() error {
	infos, err := container.Inspect(s.data, s.opts)
	if err != nil {
		return err
	}
	for _, info := range infos {
		kind := "structured"
		if info.Opaque {
			kind = "opaque"
		}
		fmt.Fprintf(s.out, "block %d: %s rows=%d templates=%d compressed=%d uncompressed=%d first_row=%d\n",
			info.Index, kind, info.RowCount, info.TemplateCount, info.CompressedLength, info.UncompressedLength, info.FirstRowIndex)
	}
	return nil
}

func (s *Shell) cmdTemplates(blockIdx int) error {
	dec, err := container.DecodeBlockAt(s.data, blockIdx, s.opts)
	if err != nil {
		return err
	}
	if dec.Header.Flags.Opaque {
		fmt.Fprintln(s.out, "block is opaque, no templates")
		return nil
	}
	for id, tpl := range dec.Templates {
		fmt.Fprintf(s.out, "template %d: arity=%d literals=%q\n", id, tpl.Arity, tpl.Literals)
	}
	return nil
}

func (s *Shell) cmdRow(n uint64) error {
	rows, err := container.RowRange(s.data, n, n+1, s.opts)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("row %d not found (container may not be indexed)", n)
	}
	fmt.Fprintf(s.out, "%q\n", rows[0])
	return nil
}
