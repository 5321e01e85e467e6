package derivation

import (
	"sort"

	"github.com/japaniel/crosstem/pkg/crosstem"
)

// GetWordFamily returns word and every word reachable from it within
// maxDepth hops, sorted and deduplicated. By default only DerivesTo edges are
// followed; see WithFamilyDirection. Unknown words yield a singleton holding
// the input as given. A negative maxDepth is treated as 0.
func (s *Stemmer) GetWordFamily(word string, maxDepth int) []string {
	key := crosstem.Normalize(word)
	if _, ok := s.graph.Lookup(key); !ok {
		return []string{word}
	}
	if maxDepth < 0 {
		maxDepth = 0
	}

	visited := map[string]bool{key: true}
	family := []string{key}
	queue := []queued{{word: key}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		node, ok := s.graph.Lookup(cur.word)
		if !ok {
			continue
		}
		s.eachNeighbour(node, func(e Edge) {
			if visited[e.Word] {
				return
			}
			visited[e.Word] = true
			family = append(family, e.Word)
			queue = append(queue, queued{word: e.Word, depth: cur.depth + 1})
		})
	}

	sort.Strings(family)
	return family
}

func (s *Stemmer) eachNeighbour(n *Node, fn func(Edge)) {
	for _, e := range n.DerivesTo() {
		fn(e)
	}
	if s.direction == Both {
		for _, e := range n.DerivedFrom() {
			fn(e)
		}
	}
}
