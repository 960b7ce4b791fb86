package document

import (
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/rivo/uniseg"

	"github.com/theSKAILab/TART/internal/engine/token"
)

// Precision selects how text is cut into tokens.
type Precision int

const (
	// PrecisionWord cuts text at Unicode word boundaries.
	PrecisionWord Precision = iota
	// PrecisionChar makes every user-perceived character a token.
	PrecisionChar
)

// String returns the name of the precision.
func (p Precision) String() string {
	if p == PrecisionChar {
		return "char"
	}
	return "word"
}

// ParsePrecision returns the precision named s. Anything other than "char"
// is word precision.
func ParsePrecision(s string) Precision {
	if strings.EqualFold(strings.TrimSpace(s), "char") {
		return PrecisionChar
	}
	return PrecisionWord
}

// Tokenize cuts text into tokens. Whitespace separates tokens and never
// becomes one. Offsets count UTF-16 code units and ends are inclusive.
func Tokenize(text string, p Precision) []token.Token {
	var (
		toks   []token.Token
		seg    string
		offset int
		state  = -1
	)
	for rest := text; len(rest) > 0; {
		if p == PrecisionChar {
			seg, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		} else {
			seg, rest, state = uniseg.FirstWordInString(rest, state)
		}
		n := utf16Len(seg)
		if !isSpace(seg) {
			toks = append(toks, token.New(offset, offset+n-1, seg))
		}
		offset += n
	}
	return toks
}

// utf16Len returns the length of s in UTF-16 code units.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func isSpace(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}
