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

// Package sampler implements the Strategy Sampler (spec.md §4.C): it picks
// Strict or Aggressive tokenization for a block from a head sample of
// complete rows, generalizing the teacher's per-column sampling pass
// (storage/analyzer.go) from column typing to per-row delimiter/class
// scoring.
package sampler

import (
	"math"

	"github.com/launix-de/cast/tokenizer"
)

// SampleRows is the default number of head rows inspected, per spec.md §4.C.
const SampleRows = 256

// StabilityThreshold is the minimum fraction of sampled rows that must
// share the winning arity for a strategy to be accepted.
const StabilityThreshold = 0.70

// DelimiterCVThreshold is the maximum coefficient of variation of a
// delimiter's per-row count for it to be considered stable.
const DelimiterCVThreshold = 0.10

// Delimiters is the Strict strategy's candidate delimiter set D.
var Delimiters = []byte{',', ';', '\t', '|'}

// Decision is the sampler's verdict: either a chosen Strategy, or Opaque
// (neither Strict nor Aggressive reached the stability threshold — the
// caller must re-flag the block OPAQUE, per spec.md §4.C).
type Decision struct {
	Strategy tokenizer.Strategy
	Opaque   bool
}

// candidate holds one strategy's scoring inputs.
type candidate struct {
	strategy  tokenizer.Strategy
	stability float64
	coverage  float64
	ok        bool
}

// Sample evaluates Strict (over all delimiters in Delimiters) and
// Aggressive against rows (each row including its trailing terminator) and
// returns the winning strategy. rows should be at most SampleRows complete
// rows from the block head.
func Sample(rows [][]byte) Decision {
	strict := bestStrict(rows)
	aggressive := scoreStrategy(rows, tokenizer.Strategy{Kind: tokenizer.Aggressive})

	if !strict.ok && !aggressive.ok {
		return Decision{Opaque: true}
	}
	if strict.ok && !aggressive.ok {
		return Decision{Strategy: strict.strategy}
	}
	if !strict.ok && aggressive.ok {
		return Decision{Strategy: aggressive.strategy}
	}
	// both qualify: higher total coverage wins; Strict breaks ties.
	if strict.coverage >= aggressive.coverage {
		return Decision{Strategy: strict.strategy}
	}
	return Decision{Strategy: aggressive.strategy}
}

// bestStrict scores every candidate delimiter and returns the one with the
// lowest coefficient of variation in its per-row occurrence count,
// provided that CV clears DelimiterCVThreshold; ties favor the earlier
// entry in Delimiters. A delimiter that occurs in no sampled row (outside
// quotes) is skipped.
func bestStrict(rows [][]byte) candidate {
	var best candidate
	haveBest := false
	for _, d := range Delimiters {
		counts := make([]float64, len(rows))
		seen := false
		for i, row := range rows {
			counts[i] = float64(delimCount(row, d))
			if counts[i] > 0 {
				seen = true
			}
		}
		if !seen {
			continue
		}
		cv := coefficientOfVariation(counts)
		if cv > DelimiterCVThreshold {
			continue
		}
		strat := tokenizer.Strategy{Kind: tokenizer.Strict, Delim: d}
		c := scoreStrategy(rows, strat)
		if !c.ok {
			continue
		}
		if !haveBest {
			best = c
			haveBest = true
			continue
		}
		// prefer the delimiter that is itself more stable in count (lower
		// CV); coverage is compared only across Strict vs Aggressive later.
		if cv < delimCV(rows, best.strategy.Delim) {
			best = c
		}
	}
	if !haveBest {
		return candidate{}
	}
	return best
}

func delimCV(rows [][]byte, d byte) float64 {
	counts := make([]float64, len(rows))
	for i, row := range rows {
		counts[i] = float64(delimCount(row, d))
	}
	return coefficientOfVariation(counts)
}

// delimCount counts occurrences of d in row that are outside a quoted span,
// so a delimiter embedded in a quoted field does not distort the count.
func delimCount(row []byte, d byte) int {
	n := 0
	inQuote := false
	for i := 0; i < len(row); i++ {
		c := row[i]
		if c == '"' {
			if inQuote && i+1 < len(row) && row[i+1] == '"' {
				i++ // escaped quote
				continue
			}
			inQuote = !inQuote
			continue
		}
		if !inQuote && c == d {
			n++
		}
	}
	return n
}

// scoreStrategy tokenizes every row under strategy and computes both its
// stability (fraction of rows sharing the majority arity) and its total
// coverage (sum of bytes_in_variable_fields / row_length).
func scoreStrategy(rows [][]byte, strategy tokenizer.Strategy) candidate {
	if len(rows) == 0 {
		return candidate{strategy: strategy, ok: false}
	}
	arities := make([]int, len(rows))
	coverage := 0.0
	for i, row := range rows {
		toks := tokenizer.Tokenize(row, strategy)
		arities[i] = tokenizer.Arity(toks)
		varBytes := 0
		for _, t := range toks {
			if t.Kind == tokenizer.Variable {
				varBytes += len(t.Bytes)
			}
		}
		if len(row) > 0 {
			coverage += float64(varBytes) / float64(len(row))
		}
	}
	stability := majorityFraction(arities)
	return candidate{
		strategy:  strategy,
		stability: stability,
		coverage:  coverage,
		ok:        stability >= StabilityThreshold,
	}
}

// majorityFraction returns the fraction of values equal to the most common
// value in xs.
func majorityFraction(xs []int) float64 {
	counts := make(map[int]int, len(xs))
	for _, x := range xs {
		counts[x]++
	}
	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}
	return float64(max) / float64(len(xs))
}

// coefficientOfVariation returns stddev/mean, or 0 when every value is
// equal (and mean is 0, 0/0 is treated as perfectly stable: 0).
func coefficientOfVariation(xs []float64) float64 {
	if len(xs) == 0 {
		return math.Inf(1)
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	if mean == 0 {
		// all-zero counts: treat as stable only if truly constant (they are,
		// since mean==0 implies every value is 0).
		return 0
	}
	variance := 0.0
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs))
	return math.Sqrt(variance) / mean
}
