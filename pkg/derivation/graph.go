// Package derivation implements derivational stemming over a precomputed
// graph of word-formation relations (organize → organization).
//
// # Lifecycle
//
// A Graph is accumulated with a Builder and frozen once; after Freeze the
// graph is read-only and may be queried from any number of goroutines. A
// Stemmer wraps one frozen graph for one language.
//
// # Ordering
//
// Edge sets keep first-insertion order. Breadth-first traversals therefore
// visit parents in the order the relation list listed them, which is what
// makes tie-breaks between equally scored root candidates reproducible.
package derivation

// AffixType tells whether an affix attaches before or after the base.
type AffixType string

const (
	Prefix AffixType = "prefix"
	Suffix AffixType = "suffix"
)

// Record is one row of the relation list: SourceWord derives TargetWord.
type Record struct {
	SourceWord string    `json:"source_word"`
	TargetWord string    `json:"target_word"`
	SourcePOS  string    `json:"source_pos"`
	TargetPOS  string    `json:"target_pos"`
	Affix      string    `json:"affix"`
	AffixType  AffixType `json:"affix_type"`
}

// Edge is one neighbour of a node. POS is the part of speech of the
// neighbour: the target for DerivesTo edges, the source for DerivedFrom.
type Edge struct {
	Word      string
	POS       string
	Affix     string
	AffixType AffixType
}

type edgeSet struct {
	edges []Edge
	index map[string]int
}

// put inserts e, or overwrites the edge for e.Word in place.
func (s *edgeSet) put(e Edge) {
	if i, ok := s.index[e.Word]; ok {
		s.edges[i] = e
		return
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	s.index[e.Word] = len(s.edges)
	s.edges = append(s.edges, e)
}

func (s *edgeSet) get(word string) (Edge, bool) {
	i, ok := s.index[word]
	if !ok {
		return Edge{}, false
	}
	return s.edges[i], true
}

// Node is a word form in the graph.
type Node struct {
	pos         string
	derivesTo   edgeSet
	derivedFrom edgeSet
}

// POS returns the part of speech recorded the first time the word was seen.
func (n *Node) POS() string { return n.pos }

// DerivesTo returns the words formed from this one. The slice is shared with
// the graph and must not be modified.
func (n *Node) DerivesTo() []Edge { return n.derivesTo.edges }

// DerivedFrom returns the words this one is formed from. The slice is shared
// with the graph and must not be modified.
func (n *Node) DerivedFrom() []Edge { return n.derivedFrom.edges }

// Productivity is the number of words derived from this one.
func (n *Node) Productivity() int { return len(n.derivesTo.edges) }

// Child returns the DerivesTo edge to word.
func (n *Node) Child(word string) (Edge, bool) { return n.derivesTo.get(word) }

// Parent returns the DerivedFrom edge to word.
func (n *Node) Parent(word string) (Edge, bool) { return n.derivedFrom.get(word) }

// Graph is a frozen derivation graph keyed by normalized word form.
type Graph struct {
	nodes map[string]*Node
	order []string
	edges int
}

// Lookup returns the node for an already normalized word.
func (g *Graph) Lookup(word string) (*Node, bool) {
	if g == nil {
		return nil, false
	}
	n, ok := g.nodes[word]
	return n, ok
}

// Len returns the number of distinct word forms.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.nodes)
}

// EdgeCount returns the number of distinct (source, target) relations.
func (g *Graph) EdgeCount() int {
	if g == nil {
		return 0
	}
	return g.edges
}

// Words returns every word form in first-seen order.
func (g *Graph) Words() []string {
	if g == nil {
		return nil
	}
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Records flattens the graph back into a relation list. Records are grouped
// by target in first-seen order, parents in DerivedFrom order, so rebuilding
// from the result reproduces every DerivedFrom ordering.
func (g *Graph) Records() []Record {
	if g == nil {
		return nil
	}
	out := make([]Record, 0, g.edges)
	for _, word := range g.order {
		n := g.nodes[word]
		for _, parent := range n.derivedFrom.edges {
			targetPOS := n.pos
			if p, ok := g.nodes[parent.Word]; ok {
				if child, ok := p.derivesTo.get(word); ok {
					targetPOS = child.POS
				}
			}
			out = append(out, Record{
				SourceWord: parent.Word,
				TargetWord: word,
				SourcePOS:  parent.POS,
				TargetPOS:  targetPOS,
				Affix:      parent.Affix,
				AffixType:  parent.AffixType,
			})
		}
	}
	return out
}
