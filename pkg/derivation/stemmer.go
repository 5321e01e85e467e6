package derivation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/japaniel/crosstem/pkg/crosstem"
)

// MaxStemDepth bounds how many derived-from hops Stem walks. Words found at
// this depth are still considered as candidates but not expanded.
const MaxStemDepth = 3

// DefaultFamilyDepth is the depth GetWordFamily callers normally use.
const DefaultFamilyDepth = 2

// Score adjustments for root candidates. Lower scores are better.
const (
	depthPenalty = 2
	verbBonus    = 10
	nounBonus    = 5
)

// Source supplies the relation list for one language.
type Source interface {
	LoadDerivations(ctx context.Context, language string) ([]Record, error)
}

// Direction selects which edges the family explorer follows.
type Direction int

const (
	// Forward follows DerivesTo edges only (descendants).
	Forward Direction = iota
	// Both follows DerivesTo and DerivedFrom edges.
	Both
)

type options struct {
	thresholds func(code string) crosstem.Thresholds
	direction  Direction
	cacheSize  int64
	logger     *slog.Logger
}

// Option configures a Stemmer.
type Option func(*options)

// WithThresholds fixes the productivity thresholds instead of looking them up
// by language.
func WithThresholds(t crosstem.Thresholds) Option {
	return func(o *options) {
		o.thresholds = func(string) crosstem.Thresholds { return t }
	}
}

// WithThresholdsFunc injects the threshold lookup, e.g. Config.ThresholdsFor.
func WithThresholdsFunc(fn func(code string) crosstem.Thresholds) Option {
	return func(o *options) {
		if fn != nil {
			o.thresholds = fn
		}
	}
}

// WithFamilyDirection sets the edges GetWordFamily follows. Default Forward.
func WithFamilyDirection(d Direction) Option {
	return func(o *options) { o.direction = d }
}

// WithCache enables a result cache holding up to size stemmed words.
func WithCache(size int64) Option {
	return func(o *options) { o.cacheSize = size }
}

// WithLogger sets the logger used while loading. nil means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Candidate is a scored root candidate found while stemming.
type Candidate struct {
	Word         string `json:"word"`
	POS          string `json:"pos"`
	Depth        int    `json:"depth"`
	Productivity int    `json:"productivity"`
	Score        int    `json:"score"`
}

// Stemmer resolves derivational roots for one language.
//
// A Stemmer is immutable after construction and safe for concurrent use.
type Stemmer struct {
	language   string
	graph      *Graph
	thresholds crosstem.Thresholds
	direction  Direction
	cache      *stemCache
}

// New validates language, loads its relation list from src and builds the
// graph. Unsupported codes fail with crosstem.ErrLanguageNotSupported before
// src is touched; load failures wrap crosstem.ErrDataNotFound.
func New(ctx context.Context, language string, src Source, opts ...Option) (*Stemmer, error) {
	if _, err := crosstem.LookupLanguage(language); err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	if src == nil {
		return nil, fmt.Errorf("%w: no derivation source for %s", crosstem.ErrDataNotFound, language)
	}

	start := time.Now()
	records, err := src.LoadDerivations(ctx, language)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, crosstem.ErrDataNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", crosstem.ErrDataNotFound, language, err)
	}

	b := NewBuilder()
	_ = b.AddAll(records)
	g := b.Freeze()

	elapsed := time.Since(start)
	graphLoadDuration.WithLabelValues(language).Observe(elapsed.Seconds())
	graphNodes.WithLabelValues(language).Set(float64(g.Len()))
	o.logger.Info("derivation graph loaded",
		slog.String("language", language),
		slog.Int("words", g.Len()),
		slog.Int("relations", g.EdgeCount()),
		slog.Int("skipped", b.Skipped()),
		slog.Duration("elapsed", elapsed))
	if g.Len() == 0 {
		o.logger.Warn("derivation graph is empty; every word stems to itself", slog.String("language", language))
	}

	return newStemmer(language, g, o)
}

// NewFromGraph wraps an already built graph.
func NewFromGraph(language string, g *Graph, opts ...Option) (*Stemmer, error) {
	if _, err := crosstem.LookupLanguage(language); err != nil {
		return nil, err
	}
	return newStemmer(language, g, applyOptions(opts))
}

func applyOptions(opts []Option) options {
	o := options{thresholds: crosstem.ThresholdsFor}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

func newStemmer(language string, g *Graph, o options) (*Stemmer, error) {
	if g == nil {
		g = NewBuilder().Freeze()
	}
	cache, err := newStemCache(o.cacheSize)
	if err != nil {
		return nil, err
	}
	return &Stemmer{
		language:   language,
		graph:      g,
		thresholds: o.thresholds(language),
		direction:  o.direction,
		cache:      cache,
	}, nil
}

// Close releases the result cache, if any.
func (s *Stemmer) Close() { s.cache.close() }

// Language returns the ISO 639-3 code this stemmer was built for.
func (s *Stemmer) Language() string { return s.language }

// Graph returns the underlying frozen graph.
func (s *Stemmer) Graph() *Graph { return s.graph }

// Thresholds returns the productivity thresholds in use.
func (s *Stemmer) Thresholds() crosstem.Thresholds { return s.thresholds }

// Contains reports whether word is in the graph.
func (s *Stemmer) Contains(word string) bool {
	_, ok := s.graph.Lookup(crosstem.Normalize(word))
	return ok
}

// Stem returns the derivational root of word, or word unchanged when no
// acceptable root exists or the word is unknown.
func (s *Stemmer) Stem(word string) string {
	return s.StemWith(word, true)
}

// StemWith is Stem with derivational lookup switchable. With useDerivations
// false the word is returned as is.
func (s *Stemmer) StemWith(word string, useDerivations bool) string {
	if !useDerivations {
		stemRequests.WithLabelValues(s.language, outcomeDisabled).Inc()
		return word
	}
	key := crosstem.Normalize(word)
	if _, ok := s.graph.Lookup(key); !ok {
		stemRequests.WithLabelValues(s.language, outcomeOOV).Inc()
		return word
	}

	root, hit := s.cache.get(key)
	if hit {
		stemCacheHits.WithLabelValues(s.language).Inc()
	} else {
		root = s.resolve(key)
		s.cache.set(key, root)
	}

	if root == "" {
		stemRequests.WithLabelValues(s.language, outcomeIdentity).Inc()
		return word
	}
	stemRequests.WithLabelValues(s.language, outcomeRoot).Inc()
	return root
}

// resolve returns the accepted root for a normalized in-graph word, or "".
func (s *Stemmer) resolve(key string) string {
	candidates := s.collect(key)
	if len(candidates) == 0 {
		return ""
	}
	best := candidates[0]
	if utf8.RuneCountInString(best.Word) <= utf8.RuneCountInString(key) || best.POS == "V" {
		return best.Word
	}
	return ""
}

// Candidates returns the scored root candidates for word, best first. It is
// empty for unknown words and for words whose ancestors all fall below the
// productivity thresholds.
func (s *Stemmer) Candidates(word string) []Candidate {
	key := crosstem.Normalize(word)
	if _, ok := s.graph.Lookup(key); !ok {
		return nil
	}
	return s.collect(key)
}

type queued struct {
	word  string
	depth int
}

// collect walks DerivedFrom edges breadth first from start. Each newly seen
// parent is scored if it is productive enough, and enqueued either way so
// that low-productivity intermediate forms still lead to their own parents.
func (s *Stemmer) collect(start string) []Candidate {
	startLen := utf8.RuneCountInString(start)
	visited := map[string]bool{start: true}
	queue := []queued{{word: start}}
	var candidates []Candidate

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= MaxStemDepth {
			continue
		}
		node, ok := s.graph.Lookup(cur.word)
		if !ok {
			continue
		}
		for _, parent := range node.DerivedFrom() {
			if visited[parent.Word] {
				continue
			}
			visited[parent.Word] = true

			pnode, ok := s.graph.Lookup(parent.Word)
			if !ok {
				continue
			}
			productivity := pnode.Productivity()
			if productivity >= s.thresholds.For(parent.POS) {
				candidates = append(candidates, Candidate{
					Word:         parent.Word,
					POS:          parent.POS,
					Depth:        cur.depth,
					Productivity: productivity,
					Score:        score(parent, cur.depth, startLen),
				})
			}
			queue = append(queue, queued{word: parent.Word, depth: cur.depth + 1})
		}
	}

	// Stable: equal scores keep breadth-first discovery order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score < candidates[j].Score
	})
	return candidates
}

func score(parent Edge, depth, startLen int) int {
	n := utf8.RuneCountInString(parent.Word)
	sc := n + depth*depthPenalty
	switch {
	case parent.POS == "V":
		sc -= verbBonus
	case parent.POS == "N" && n < startLen:
		sc -= nounBonus
	}
	return sc
}

// Relation names the direction of a Derivation.
type Relation string

const (
	RelationDerivesTo   Relation = "DERIVES_TO"
	RelationDerivedFrom Relation = "DERIVED_FROM"
)

// Derivation is a direct neighbour of a word.
type Derivation struct {
	Form     string   `json:"form"`
	POS      string   `json:"pos"`
	Relation Relation `json:"relation"`
}

// GetDerivations lists the words derived from word followed by the words it
// is derived from. Unknown words yield an empty, non-nil slice.
func (s *Stemmer) GetDerivations(word string) []Derivation {
	node, ok := s.graph.Lookup(crosstem.Normalize(word))
	if !ok {
		return []Derivation{}
	}
	out := make([]Derivation, 0, len(node.DerivesTo())+len(node.DerivedFrom()))
	for _, e := range node.DerivesTo() {
		out = append(out, Derivation{Form: e.Word, POS: e.POS, Relation: RelationDerivesTo})
	}
	for _, e := range node.DerivedFrom() {
		out = append(out, Derivation{Form: e.Word, POS: e.POS, Relation: RelationDerivedFrom})
	}
	return out
}
