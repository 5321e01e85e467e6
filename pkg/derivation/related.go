package derivation

import "github.com/japaniel/crosstem/pkg/crosstem"

// AreRelated reports whether two words share a derivational root: either
// they stem to the same form, or their depth-1 families overlap.
func (s *Stemmer) AreRelated(word1, word2 string) bool {
	if crosstem.Normalize(s.Stem(word1)) == crosstem.Normalize(s.Stem(word2)) {
		return true
	}

	family1 := s.GetWordFamily(word1, 1)
	members := make(map[string]struct{}, len(family1))
	for _, w := range family1 {
		members[w] = struct{}{}
	}
	for _, w := range s.GetWordFamily(word2, 1) {
		if _, ok := members[w]; ok {
			return true
		}
	}
	return false
}
