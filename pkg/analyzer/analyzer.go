// Package analyzer combines derivational stemming, inflectional lemmas and
// etymology into one per-language view of a word.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kljensen/snowball"
	"golang.org/x/sync/errgroup"

	"github.com/japaniel/crosstem/pkg/crosstem"
	"github.com/japaniel/crosstem/pkg/derivation"
	"github.com/japaniel/crosstem/pkg/etymology"
	"github.com/japaniel/crosstem/pkg/inflection"
)

// Source supplies both datasets an Analyzer needs. dictionary.Dir and
// db.Store implement it.
type Source interface {
	derivation.Source
	inflection.Source
}

type options struct {
	linker   *etymology.Linker
	stemOpts []derivation.Option
	logger   *slog.Logger
}

// Option configures New.
type Option func(*options)

// WithEtymology enables etymology lookups backed by l.
func WithEtymology(l *etymology.Linker) Option {
	return func(o *options) { o.linker = l }
}

// WithStemmerOptions passes options through to the derivational stemmer.
func WithStemmerOptions(opts ...derivation.Option) Option {
	return func(o *options) { o.stemOpts = append(o.stemOpts, opts...) }
}

// WithLogger sets the logger used while loading.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Analyzer is safe for concurrent use once constructed.
type Analyzer struct {
	language string
	stemmer  *derivation.Stemmer
	table    *inflection.Table
	linker   *etymology.Linker
}

// New loads the derivation graph and inflection table of language from src
// in parallel. Both are required; etymology is optional.
func New(ctx context.Context, language string, src Source, opts ...Option) (*Analyzer, error) {
	if _, err := crosstem.LookupLanguage(language); err != nil {
		return nil, err
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	var (
		stemmer *derivation.Stemmer
		table   *inflection.Table
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stemmer, err = derivation.New(gctx, language, src, append([]derivation.Option{derivation.WithLogger(o.logger)}, o.stemOpts...)...)
		return err
	})
	g.Go(func() error {
		var err error
		table, err = inflection.New(gctx, language, src, o.logger)
		return err
	})
	if err := g.Wait(); err != nil {
		if stemmer != nil {
			stemmer.Close()
		}
		return nil, err
	}
	return &Analyzer{language: language, stemmer: stemmer, table: table, linker: o.linker}, nil
}

// NewFromParts assembles an analyzer from already loaded components. linker
// may be nil.
func NewFromParts(stemmer *derivation.Stemmer, table *inflection.Table, linker *etymology.Linker) (*Analyzer, error) {
	if stemmer == nil || table == nil {
		return nil, fmt.Errorf("%w: analyzer needs a stemmer and an inflection table", crosstem.ErrInvalidConfig)
	}
	if stemmer.Language() != table.Language() {
		return nil, fmt.Errorf("%w: stemmer is %s but inflection table is %s",
			crosstem.ErrInvalidConfig, stemmer.Language(), table.Language())
	}
	return &Analyzer{language: stemmer.Language(), stemmer: stemmer, table: table, linker: linker}, nil
}

// Close releases the stemmer's cache.
func (a *Analyzer) Close() { a.stemmer.Close() }

func (a *Analyzer) Language() string { return a.language }

func (a *Analyzer) Stemmer() *derivation.Stemmer { return a.stemmer }

func (a *Analyzer) Inflections() *inflection.Table { return a.table }

// HasEtymology reports whether etymology lookups are available.
func (a *Analyzer) HasEtymology() bool { return a.linker != nil }

// EtymologyInfo is the cross-lingual origin of a word.
type EtymologyInfo struct {
	Origin           etymology.Origin   `json:"origin"`
	Chain            []etymology.Origin `json:"chain"`
	RelatedLanguages etymology.Related  `json:"related_languages"`
}

// Analysis is the combined view of a word.
type Analysis struct {
	Word                string                  `json:"word"`
	DerivationalStem    string                  `json:"derivational_stem"`
	InflectionalLemma   string                  `json:"inflectional_lemma,omitempty"`
	POS                 string                  `json:"pos,omitempty"`
	GrammaticalFeatures string                  `json:"grammatical_features"`
	WordFamily          []string                `json:"word_family"`
	Derivations         []derivation.Derivation `json:"derivations"`
	Inflections         []inflection.Inflection `json:"inflections"`
	Etymology           *EtymologyInfo          `json:"etymology,omitempty"`
}

// Analyze reports everything known about word. depth bounds the word
// family walk.
func (a *Analyzer) Analyze(word string, depth int) Analysis {
	res := Analysis{
		Word:             word,
		DerivationalStem: a.stemmer.Stem(word),
		WordFamily:       a.stemmer.GetWordFamily(word, depth),
		Derivations:      a.stemmer.GetDerivations(word),
		Inflections:      []inflection.Inflection{},
	}
	if infl, ok := a.table.Analyze(word); ok {
		res.InflectionalLemma = infl.Lemma
		res.POS = infl.POS
		res.GrammaticalFeatures = infl.Features
		res.Inflections = a.table.GetInflections(word)
	}
	if a.linker != nil {
		name := crosstem.LanguageName(a.language)
		if origin, ok := a.linker.GetOrigin(word, name); ok {
			res.Etymology = &EtymologyInfo{
				Origin:           origin,
				Chain:            a.linker.TraceChain(word, name, etymology.DefaultTraceDepth),
				RelatedLanguages: a.linker.FindRelated(word, name),
			}
		}
	}
	return res
}

// FullStem lemmatizes word and then stems the lemma, so inflected forms
// reach the same root as their base ("organizations" → "organize").
func (a *Analyzer) FullStem(word string) string {
	lemma, ok := a.table.GetLemma(word)
	if !ok {
		lemma = word
	}
	return a.stemmer.Stem(lemma)
}

// FullStemmer adapts an Analyzer to the Stem/Language pair used by ingest,
// stemming with FullStem.
type FullStemmer struct{ a *Analyzer }

// FullStemmer returns a stemmer that applies FullStem.
func (a *Analyzer) FullStemmer() FullStemmer { return FullStemmer{a: a} }

func (f FullStemmer) Language() string        { return f.a.language }
func (f FullStemmer) Stem(word string) string { return f.a.FullStem(word) }

// RelationType says how two words are related.
type RelationType string

const (
	RelationNone         RelationType = ""
	RelationDerivational RelationType = "derivational"
	RelationInflectional RelationType = "inflectional"
	RelationBoth         RelationType = "both"
)

// Relation is the result of AreRelated.
type Relation struct {
	Related    bool         `json:"related"`
	Type       RelationType `json:"relationship_type,omitempty"`
	CommonRoot string       `json:"common_root,omitempty"`
}

// AreRelated checks the derivational relation of two words and, when
// checkInflection is set, whether they are forms of one lemma.
func (a *Analyzer) AreRelated(word1, word2 string, checkInflection bool) Relation {
	deriv := a.stemmer.AreRelated(word1, word2)
	infl := checkInflection && a.table.AreInflections(word1, word2)
	switch {
	case deriv && infl:
		return Relation{Related: true, Type: RelationBoth, CommonRoot: a.FullStem(word1)}
	case deriv:
		return Relation{Related: true, Type: RelationDerivational, CommonRoot: a.stemmer.Stem(word1)}
	case infl:
		lemma, _ := a.table.GetLemma(word1)
		return Relation{Related: true, Type: RelationInflectional, CommonRoot: lemma}
	}
	return Relation{}
}

// TraceEtymology follows word's origin chain for at most maxDepth hops. It
// returns false when no etymology data is loaded.
func (a *Analyzer) TraceEtymology(word string, maxDepth int) ([]etymology.Origin, bool) {
	if a.linker == nil {
		return nil, false
	}
	return a.linker.TraceChain(word, crosstem.LanguageName(a.language), maxDepth), true
}

// Comparison sets the derivational root of a word beside the snowball stem.
type Comparison struct {
	Word         string `json:"word"`
	Derivational string `json:"derivational"`
	// Snowball is empty when the language has no snowball algorithm.
	Snowball string `json:"snowball,omitempty"`
}

// CompareSuffixStemmer stems each word with both the derivational stemmer
// and the language's snowball suffix stripper.
func (a *Analyzer) CompareSuffixStemmer(words []string) []Comparison {
	lang, _ := crosstem.LookupLanguage(a.language)
	out := make([]Comparison, 0, len(words))
	for _, w := range words {
		c := Comparison{Word: w, Derivational: a.stemmer.Stem(w)}
		if lang.Snowball != "" {
			if s, err := snowball.Stem(crosstem.Normalize(w), lang.Snowball, true); err == nil {
				c.Snowball = s
			}
		}
		out = append(out, c)
	}
	return out
}
