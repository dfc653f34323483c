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

// Package tokenizer splits one input row into an alternating sequence of
// LITERAL and VARIABLE tokens under a chosen Strategy (spec.md §4.D). It is
// deterministic, single-pass, and zero-copy: every Token.Bytes aliases the
// caller's row slice.
package tokenizer

// Kind distinguishes a fixed literal span from a variable field.
type Kind int

const (
	Literal Kind = iota
	Variable
)

// Token is one element of a tokenized row. Bytes aliases the input row; it
// is never copied during tokenization.
type Token struct {
	Kind  Kind
	Bytes []byte
}

// StrategyKind tags which tokenization strategy a Strategy value selects.
// Represented as a tagged variant per the "Polymorphism of strategies"
// design note: the tokenizer dispatches once per row, not per byte.
type StrategyKind int

const (
	Strict StrategyKind = iota
	Aggressive
)

func (k StrategyKind) String() string {
	if k == Aggressive {
		return "aggressive"
	}
	return "strict"
}

// Strategy selects Strict (with a delimiter byte) or Aggressive tokenization.
type Strategy struct {
	Kind  StrategyKind
	Delim byte // meaningful only when Kind == Strict
}

// Tokenize splits row (which MUST include its trailing LF/CRLF terminator,
// if any, per the input-row data model) into alternating tokens, beginning
// and ending with a LITERAL.
func Tokenize(row []byte, s Strategy) []Token {
	if s.Kind == Aggressive {
		return tokenizeAggressive(row)
	}
	return tokenizeStrict(row, s.Delim)
}

// Arity counts the VARIABLE tokens in a tokenized row — the row's field
// count under the chosen strategy.
func Arity(toks []Token) int {
	n := 0
	for _, t := range toks {
		if t.Kind == Variable {
			n++
		}
	}
	return n
}

func tokenizeStrict(row []byte, delim byte) []Token {
	var toks []Token
	n := len(row)
	i := 0
	litStart := 0

	for {
		fieldStart := i
		if i < n && row[i] == '"' {
			// Quoted field: the opening quote belongs to the preceding
			// literal, the variable is the content between quotes with ""
			// treated as an embedded escaped quote, and the closing quote
			// (plus anything up to the next delimiter/terminator, in case
			// of malformed trailing bytes) belongs to the following literal.
			i++ // past opening quote
			varStart := i
			for i < n {
				if row[i] == '"' {
					if i+1 < n && row[i+1] == '"' {
						i += 2
						continue
					}
					break
				}
				i++
			}
			varEnd := i
			toks = append(toks, Token{Kind: Literal, Bytes: row[litStart:varStart]})
			toks = append(toks, Token{Kind: Variable, Bytes: row[varStart:varEnd]})
			if i < n && row[i] == '"' {
				i++ // consume the closing quote itself
			}
			litStart = varEnd
			for i < n && row[i] != delim && row[i] != '\n' {
				i++
			}
		} else {
			for i < n && row[i] != delim && !isRowTerminatorAt(row, i) {
				i++
			}
			toks = append(toks, Token{Kind: Literal, Bytes: row[litStart:fieldStart]})
			toks = append(toks, Token{Kind: Variable, Bytes: row[fieldStart:i]})
			litStart = i
		}

		if i < n && row[i] == delim {
			i++
			continue
		}
		break
	}

	toks = append(toks, Token{Kind: Literal, Bytes: row[litStart:n]})
	return toks
}

func tokenizeAggressive(row []byte) []Token {
	var toks []Token
	n := len(row)
	litStart := 0
	i := 0
	for i < n {
		if isValueByte(row[i]) {
			toks = append(toks, Token{Kind: Literal, Bytes: row[litStart:i]})
			start := i
			for i < n && isValueByte(row[i]) {
				i++
			}
			toks = append(toks, Token{Kind: Variable, Bytes: row[start:i]})
			litStart = i
		} else {
			i++
		}
	}
	toks = append(toks, Token{Kind: Literal, Bytes: row[litStart:n]})
	return toks
}

// isRowTerminatorAt reports whether row[i] begins the row's terminator: a
// bare LF, or a CR immediately followed by LF. A lone CR not followed by
// LF is ordinary field content, not a terminator (spec.md §3/§4.D: the
// terminator, LF or CRLF, always belongs to the final trailing LITERAL).
func isRowTerminatorAt(row []byte, i int) bool {
	if row[i] == '\n' {
		return true
	}
	return row[i] == '\r' && i+1 < len(row) && row[i+1] == '\n'
}

// isValueByte classifies a byte as "value-like" under the Aggressive
// strategy: digits, letters, and {., -, :, /, _, +}.
func isValueByte(b byte) bool {
	switch {
	case b >= '0' && b <= '9':
		return true
	case b >= 'a' && b <= 'z':
		return true
	case b >= 'A' && b <= 'Z':
		return true
	case b == '.' || b == '-' || b == ':' || b == '/' || b == '_' || b == '+':
		return true
	default:
		return false
	}
}
