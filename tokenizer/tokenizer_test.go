package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func reassemble(toks []Token) []byte {
	var out []byte
	for _, t := range toks {
		out = append(out, t.Bytes...)
	}
	return out
}

func TestStrictTrivialCSV(t *testing.T) {
	row := []byte("a,b,c\n")
	toks := Tokenize(row, Strategy{Kind: Strict, Delim: ','})
	require.Equal(t, row, reassemble(toks))
	require.Equal(t, 3, Arity(toks))
	require.Equal(t, Literal, toks[0].Kind)
	require.Equal(t, "", string(toks[0].Bytes))
	require.Equal(t, Variable, toks[1].Kind)
	require.Equal(t, "a", string(toks[1].Bytes))
	require.Equal(t, Variable, toks[3].Kind)
	require.Equal(t, "b", string(toks[3].Bytes))
	require.Equal(t, Variable, toks[5].Kind)
	require.Equal(t, "c", string(toks[5].Bytes))
	require.Equal(t, "\n", string(toks[len(toks)-1].Bytes))
}

func TestStrictQuotedField(t *testing.T) {
	row := []byte("\"a,b\",c\n")
	toks := Tokenize(row, Strategy{Kind: Strict, Delim: ','})
	require.Equal(t, row, reassemble(toks))
	require.Equal(t, 2, Arity(toks))
	// first variable should be the raw content between the quotes
	var vars []string
	for _, tok := range toks {
		if tok.Kind == Variable {
			vars = append(vars, string(tok.Bytes))
		}
	}
	require.Equal(t, []string{"a,b", "c"}, vars)
}

func TestStrictQuotedFieldWithEscapedQuote(t *testing.T) {
	row := []byte("\"d\"\"e\",f\n")
	toks := Tokenize(row, Strategy{Kind: Strict, Delim: ','})
	require.Equal(t, row, reassemble(toks))
	var vars []string
	for _, tok := range toks {
		if tok.Kind == Variable {
			vars = append(vars, string(tok.Bytes))
		}
	}
	require.Equal(t, []string{"d\"\"e", "f"}, vars)
}

func TestStrictEmptyFields(t *testing.T) {
	row := []byte("a,,c\n")
	toks := Tokenize(row, Strategy{Kind: Strict, Delim: ','})
	require.Equal(t, row, reassemble(toks))
	require.Equal(t, 3, Arity(toks))
	var vars []string
	for _, tok := range toks {
		if tok.Kind == Variable {
			vars = append(vars, string(tok.Bytes))
		}
	}
	require.Equal(t, []string{"a", "", "c"}, vars)
}

func TestStrictNoDelimiterInRow(t *testing.T) {
	row := []byte("justtext\n")
	toks := Tokenize(row, Strategy{Kind: Strict, Delim: ','})
	require.Equal(t, row, reassemble(toks))
	require.Equal(t, 1, Arity(toks))
}

func TestStrictNoTrailingNewline(t *testing.T) {
	row := []byte("a,b")
	toks := Tokenize(row, Strategy{Kind: Strict, Delim: ','})
	require.Equal(t, row, reassemble(toks))
	require.Equal(t, 2, Arity(toks))
}

func TestStrictCRBeforeLF(t *testing.T) {
	row := []byte("a,b\r\n")
	toks := Tokenize(row, Strategy{Kind: Strict, Delim: ','})
	require.Equal(t, row, reassemble(toks))
	last := toks[len(toks)-1]
	require.Equal(t, "\r\n", string(last.Bytes))
	secondToLast := toks[len(toks)-2]
	require.Equal(t, Variable, secondToLast.Kind)
	require.Equal(t, "b", string(secondToLast.Bytes))
}

func TestStrictBareCRMidFieldStaysInVariable(t *testing.T) {
	// a CR not immediately followed by LF is not a terminator; it stays
	// part of whatever field it falls in.
	row := []byte("a,b\rc\n")
	toks := Tokenize(row, Strategy{Kind: Strict, Delim: ','})
	require.Equal(t, row, reassemble(toks))
	last := toks[len(toks)-1]
	require.Equal(t, "\n", string(last.Bytes))
	secondToLast := toks[len(toks)-2]
	require.Equal(t, Variable, secondToLast.Kind)
	require.Equal(t, "b\rc", string(secondToLast.Bytes))
}

func TestAggressiveMixedArity(t *testing.T) {
	row1 := []byte("x=1;y=2\n")
	row2 := []byte("x=10;y=20;z=30\n")
	toks1 := Tokenize(row1, Strategy{Kind: Aggressive})
	toks2 := Tokenize(row2, Strategy{Kind: Aggressive})
	require.Equal(t, row1, reassemble(toks1))
	require.Equal(t, row2, reassemble(toks2))
	require.Equal(t, 2, Arity(toks1))
	require.Equal(t, 3, Arity(toks2))
}

func TestAggressiveAllStructure(t *testing.T) {
	row := []byte(";;;;\n")
	toks := Tokenize(row, Strategy{Kind: Aggressive})
	require.Equal(t, row, reassemble(toks))
	require.Equal(t, 0, Arity(toks))
	require.Len(t, toks, 1)
	require.Equal(t, Literal, toks[0].Kind)
}

func TestAggressiveLeadingValueByte(t *testing.T) {
	row := []byte("42,hello\n")
	toks := Tokenize(row, Strategy{Kind: Aggressive})
	require.Equal(t, row, reassemble(toks))
	// must still start and end with a LITERAL per the template invariant
	require.Equal(t, Literal, toks[0].Kind)
	require.Equal(t, Literal, toks[len(toks)-1].Kind)
}

func TestNoAdjacentVariables(t *testing.T) {
	for _, row := range [][]byte{
		[]byte("a,b,c\n"),
		[]byte("\"a,b\",c\n"),
		[]byte("x=1;y=2\n"),
		[]byte(";;;;\n"),
	} {
		for _, strat := range []Strategy{{Kind: Strict, Delim: ','}, {Kind: Aggressive}} {
			toks := Tokenize(row, strat)
			require.NotEmpty(t, toks)
			require.Equal(t, Literal, toks[0].Kind)
			require.Equal(t, Literal, toks[len(toks)-1].Kind)
			for i := 1; i < len(toks); i++ {
				if toks[i].Kind == Variable {
					require.Equal(t, Literal, toks[i-1].Kind)
				}
			}
		}
	}
}
