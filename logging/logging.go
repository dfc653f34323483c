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

// Package logging is CAST's entire logging surface: a thin wrapper around
// fmt.Fprintf(os.Stderr, ...), the way the teacher's whole tree never reaches
// for a structured-logging library. Error lines follow spec.md §7's
// one-line format: error kind, block index, byte offset.
package logging

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// Errorf writes one error line to stderr: kind, block index, byte offset,
// and a free-form message (spec.md §7).
func Errorf(runID uuid.UUID, kind string, blockIndex int, byteOffset int64, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "[%s] %s run=%s block=%d offset=%d: %s\n",
		time.Now().UTC().Format(time.RFC3339), kind, runID, blockIndex, byteOffset, msg)
}

// Infof writes one informational line to stderr, tagged with a run id for
// correlation across worker goroutines (see container.WorkerLane).
func Infof(runID uuid.UUID, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "[%s] INFO run=%s: %s\n", time.Now().UTC().Format(time.RFC3339), runID, msg)
}

// Warnf writes one warning line to stderr.
func Warnf(runID uuid.UUID, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "[%s] WARN run=%s: %s\n", time.Now().UTC().Format(time.RFC3339), runID, msg)
}
