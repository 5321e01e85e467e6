package crosstem

import (
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Casers carry state and must not be shared between goroutines.
var lowerPool = sync.Pool{
	New: func() any {
		c := cases.Lower(language.Und)
		return &c
	},
}

// Normalize returns the lookup key for a word form: NFC-composed and
// lowercased with full Unicode case mapping. Graph keys, inflection lemmas and
// etymology terms all go through this function so that lookups agree.
func Normalize(word string) string {
	if isLowerASCII(word) {
		return word
	}
	c := lowerPool.Get().(*cases.Caser)
	defer lowerPool.Put(c)
	return c.String(norm.NFC.String(word))
}

func isLowerASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b >= 0x80 || (b >= 'A' && b <= 'Z') {
			return false
		}
	}
	return true
}
