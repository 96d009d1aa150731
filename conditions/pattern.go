package conditions

import (
	"time"

	"github.com/dlclark/regexp2"
)

// DefaultMatchTimeout bounds a single pattern search. Condition patterns come from rule test
// corpora and may use backtracking constructs.
const DefaultMatchTimeout = time.Second

// Pattern is a compiled condition pattern. Matching is a search: the pattern may match anywhere
// in the input, as with the "search" operation of backtracking regex engines.
//
// Patterns work on bytes, not on UTF-8 text: both the pattern source and the input are read one
// byte per character, so `\xff` matches a 0xff byte and a non-ASCII literal matches its exact
// encoding.
type Pattern struct {
	source string
	re     *regexp2.Regexp
}

func CompilePattern(expr string, timeout time.Duration) (*Pattern, error) {
	re, err := regexp2.Compile(string(byteRunes([]byte(expr))), regexp2.None)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultMatchTimeout
	}
	re.MatchTimeout = timeout
	return &Pattern{source: expr, re: re}, nil
}

// Search reports whether the pattern matches any part of s. The only error it returns is a
// match timeout.
func (p *Pattern) Search(s string) (bool, error) {
	return p.SearchBytes([]byte(s))
}

// SearchBytes is Search for raw bytes, which need not be valid UTF-8.
func (p *Pattern) SearchBytes(b []byte) (bool, error) {
	return p.re.MatchRunes(byteRunes(b))
}

func byteRunes(b []byte) []rune {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return runes
}

func (p *Pattern) String() string {
	return p.source
}
