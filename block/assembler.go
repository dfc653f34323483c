package block

import (
	"bytes"
	"fmt"

	"github.com/launix-de/cast/bytesutil"
	"github.com/launix-de/cast/template"
	"github.com/launix-de/cast/tokenizer"
)

// Assembler incrementally builds one block: it tokenizes each incoming row
// under a fixed strategy, interns its template, and appends the row's
// variable fields to that template's column streams. Grounded on the
// teacher's storage/storage-string.go interning loop, generalized from a
// single column's values to a whole row's skeleton.
type Assembler struct {
	strategy tokenizer.Strategy
	registry *template.Registry
	rowOrder []int
	columns  []*columnSet
	rowCount int
	plainLen int
	crc      *bytesutil.CRC32Writer
}

// NewAssembler creates an empty Assembler for strategy, capping the block's
// template registry at templateCap (use template.MaxTemplates by default).
func NewAssembler(strategy tokenizer.Strategy, templateCap int) *Assembler {
	return &Assembler{
		strategy: strategy,
		registry: template.NewRegistry(templateCap),
		crc:      bytesutil.NewCRC32Writer(),
	}
}

// AddRow tokenizes row and appends it to the block. If row's template is new
// and the registry is already at capacity, AddRow returns template.ErrOverflow
// without modifying the block — the caller (the container driver) must seal
// the current block and start a fresh Assembler for row (spec.md §7:
// TEMPLATE_OVERFLOW is recovered locally, never surfaced to the operator).
// A row whose literal bytes contain template.Sentinel is likewise rejected
// with an error and leaves the block unmodified, since the sentinel in a
// literal would make the template key ambiguous.
func (a *Assembler) AddRow(row []byte) error {
	toks := tokenizer.Tokenize(row, a.strategy)
	for _, t := range toks {
		if t.Kind == tokenizer.Literal && bytes.IndexByte(t.Bytes, template.Sentinel) >= 0 {
			return fmt.Errorf("block: row literal contains template sentinel byte")
		}
	}
	tpl := template.FromTokens(toks)
	id, err := a.registry.Intern(tpl)
	if err != nil {
		return err
	}
	if id == len(a.columns) {
		a.columns = append(a.columns, newColumnSet(tpl.Arity))
	}
	col := 0
	for _, t := range toks {
		if t.Kind == tokenizer.Variable {
			a.columns[id].append(col, t.Bytes)
			col++
		}
	}
	a.rowOrder = append(a.rowOrder, id)
	a.rowCount++
	a.plainLen += len(row)
	a.crc.Write(row)
	return nil
}

// RowCount returns the number of rows added so far.
func (a *Assembler) RowCount() int { return a.rowCount }

// PlainLen returns the total byte length of the rows added so far.
func (a *Assembler) PlainLen() int { return a.plainLen }

// TemplateCount returns the number of distinct templates interned so far.
func (a *Assembler) TemplateCount() int { return a.registry.Len() }

// Assembled is a frozen snapshot of an Assembler, ready for serialization.
type Assembled struct {
	Strategy tokenizer.Strategy
	Registry *template.Registry
	RowOrder []int
	Columns  []*columnSet
	RowCount int
	PlainLen int
	CRC      uint32
}

// Finish freezes the Assembler into an Assembled snapshot. The Assembler
// must not be reused afterward.
func (a *Assembler) Finish() *Assembled {
	return &Assembled{
		Strategy: a.strategy,
		Registry: a.registry,
		RowOrder: a.rowOrder,
		Columns:  a.columns,
		RowCount: a.rowCount,
		PlainLen: a.plainLen,
		CRC:      a.crc.Sum32(),
	}
}
