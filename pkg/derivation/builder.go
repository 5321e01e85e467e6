package derivation

import (
	"errors"
	"strings"

	"github.com/japaniel/crosstem/pkg/crosstem"
)

// ErrBuilderFrozen is returned when adding to a builder after Freeze.
var ErrBuilderFrozen = errors.New("derivation builder is frozen")

// Builder accumulates relation records into a graph.
//
// Builder is not safe for concurrent use.
type Builder struct {
	nodes   map[string]*Node
	order   []string
	edges   int
	skipped int
	frozen  bool
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{nodes: make(map[string]*Node)}
}

// Add inserts one record in both directions. Records with an empty source or
// target word are skipped. A repeated (source, target) pair overwrites the
// edge metadata; a node's POS is kept from its first occurrence.
func (b *Builder) Add(r Record) error {
	if b.frozen {
		return ErrBuilderFrozen
	}
	source := crosstem.Normalize(strings.TrimSpace(r.SourceWord))
	target := crosstem.Normalize(strings.TrimSpace(r.TargetWord))
	if source == "" || target == "" {
		b.skipped++
		return nil
	}

	src := b.node(source, r.SourcePOS)
	tgt := b.node(target, r.TargetPOS)

	if _, exists := src.derivesTo.get(target); !exists {
		b.edges++
	}
	src.derivesTo.put(Edge{Word: target, POS: r.TargetPOS, Affix: r.Affix, AffixType: r.AffixType})
	tgt.derivedFrom.put(Edge{Word: source, POS: r.SourcePOS, Affix: r.Affix, AffixType: r.AffixType})
	return nil
}

// AddAll adds records in order.
func (b *Builder) AddAll(records []Record) error {
	for _, r := range records {
		if err := b.Add(r); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) node(word, pos string) *Node {
	n, ok := b.nodes[word]
	if !ok {
		n = &Node{}
		b.nodes[word] = n
		b.order = append(b.order, word)
	}
	if n.pos == "" {
		n.pos = pos
	}
	return n
}

// Skipped returns the number of malformed records ignored so far.
func (b *Builder) Skipped() int { return b.skipped }

// Freeze returns the accumulated graph. The builder rejects further records.
func (b *Builder) Freeze() *Graph {
	b.frozen = true
	return &Graph{nodes: b.nodes, order: b.order, edges: b.edges}
}

// BuildGraph is a convenience for NewBuilder, AddAll and Freeze.
func BuildGraph(records []Record) *Graph {
	b := NewBuilder()
	// Add only fails on a frozen builder.
	_ = b.AddAll(records)
	return b.Freeze()
}
