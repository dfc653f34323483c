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

// Package template implements the Template Registry (spec.md §4.E): it
// interns a row's literal skeleton, assigns small dense integer IDs in
// first-seen order, and bounds registry growth at MaxTemplates per block.
// The interning idiom (map keyed on a canonical byte string, first-seen
// append) is grounded on the teacher's storage/storage-string.go
// StorageString.reverseMap dictionary.
package template

import (
	"fmt"

	"github.com/launix-de/cast/tokenizer"
)

// Sentinel is the byte used in a Template's canonical Key to stand in for a
// VARIABLE token. It never occurs in the literal bytes of an interned
// template: block.Assembler rejects rows whose literals contain it, and the
// container driver stores such rows in an OPAQUE block instead.
const Sentinel = 0x00

// MaxTemplates is the default registry cap per block (spec.md §3).
const MaxTemplates = 65535

// Template is a row's invariant literal skeleton: Literals holds len(
// Literals) == Arity+1 byte spans, one more than the number of VARIABLE
// slots between them. Begins and ends with a (possibly empty) literal, by
// construction of the tokenizer.
type Template struct {
	Literals [][]byte
	Arity    int
	Key      string // canonical byte sequence, literals interleaved with Sentinel
}

// FromTokens builds a Template from a tokenized row. toks must begin and
// end with a LITERAL and have no two adjacent VARIABLEs (the tokenizer
// guarantees this).
func FromTokens(toks []tokenizer.Token) Template {
	lits := make([][]byte, 0, len(toks)/2+1)
	arity := 0
	for _, t := range toks {
		if t.Kind == tokenizer.Literal {
			lits = append(lits, t.Bytes)
		} else {
			arity++
		}
	}
	return Template{Literals: lits, Arity: arity, Key: canonicalKey(lits)}
}

func canonicalKey(lits [][]byte) string {
	n := 0
	for _, l := range lits {
		n += len(l) + 1
	}
	buf := make([]byte, 0, n)
	for i, l := range lits {
		if i > 0 {
			buf = append(buf, Sentinel)
		}
		buf = append(buf, l...)
	}
	return string(buf)
}

// Reconstruct interleaves the template's literals with the given variable
// field values (len(vars) must equal t.Arity) to reproduce the original
// row bytes exactly.
func (t Template) Reconstruct(vars [][]byte) []byte {
	var out []byte
	for i, l := range t.Literals {
		out = append(out, l...)
		if i < len(vars) {
			out = append(out, vars[i]...)
		}
	}
	return out
}

// Registry interns templates and assigns IDs in first-seen order (spec.md
// §3, §4.E). Lookup is O(1) amortized via a map keyed on Template.Key.
type Registry struct {
	byKey     map[string]int
	templates []Template
	cap       int
}

// NewRegistry creates an empty registry with the given per-block cap (use
// MaxTemplates for the default).
func NewRegistry(cap int) *Registry {
	return &Registry{byKey: make(map[string]int), cap: cap}
}

// ErrOverflow is returned by Intern when interning a new template would
// exceed the registry's cap; the caller (Block Assembler) must seal the
// current block and start a fresh one (spec.md TEMPLATE_OVERFLOW, §7:
// recovered locally, never surfaced).
var ErrOverflow = fmt.Errorf("template: registry capacity exceeded")

// Intern returns the ID for t, assigning a new dense ID on first sight. It
// returns ErrOverflow if t is new and the registry is already at capacity;
// the registry is left unmodified in that case.
func (r *Registry) Intern(t Template) (int, error) {
	if id, ok := r.byKey[t.Key]; ok {
		return id, nil
	}
	if len(r.templates) >= r.cap {
		return 0, ErrOverflow
	}
	id := len(r.templates)
	r.templates = append(r.templates, t)
	r.byKey[t.Key] = id
	return id, nil
}

// Len returns the number of distinct templates interned so far.
func (r *Registry) Len() int { return len(r.templates) }

// ByID returns the template for id. id must be < Len().
func (r *Registry) ByID(id int) Template { return r.templates[id] }

// All returns the interned templates in ID order. The returned slice must
// not be mutated by the caller.
func (r *Registry) All() []Template { return r.templates }
