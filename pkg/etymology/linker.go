// Package etymology traces word origins across languages from Etymological
// Wordnet style relation records.
//
// Records are keyed by the language name used in the dataset (for example
// "English", "Middle French"), not by ISO code. Use crosstem.LanguageName to
// translate a supported code.
package etymology

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/japaniel/crosstem/pkg/crosstem"
)

// Relation types found in the dataset.
const (
	RelBorrowedFrom  = "borrowed_from"
	RelInheritedFrom = "inherited_from"
	RelCognateOf     = "cognate_of"
	RelRelatedTo     = "etymologically_related_to"
	RelHasRoot       = "has_root"
	RelHasAffix      = "has_affix"
)

// DefaultTraceDepth is the number of origin hops TraceChain follows by default.
const DefaultTraceDepth = 5

// originPriority orders the relation types GetOrigin accepts.
var originPriority = []string{RelBorrowedFrom, RelInheritedFrom, RelRelatedTo}

// Record is one etymological relation.
type Record struct {
	TermID         string `json:"term_id"`
	Lang           string `json:"lang"`
	Term           string `json:"term"`
	RelType        string `json:"reltype"`
	RelatedTermID  string `json:"related_term_id"`
	RelatedLang    string `json:"related_lang"`
	RelatedTerm    string `json:"related_term"`
	Position       string `json:"position"`
	GroupTag       string `json:"group_tag"`
	ParentTag      string `json:"parent_tag"`
	ParentPosition string `json:"parent_position"`
}

// Origin is a step in an origin chain. RelType is empty for the starting
// term.
type Origin struct {
	Term    string `json:"term"`
	Lang    string `json:"lang"`
	RelType string `json:"reltype,omitempty"`
}

// TermRef names a term in a language.
type TermRef struct {
	Term string `json:"term"`
	Lang string `json:"lang"`
}

// Related groups a term's relations by kind.
type Related struct {
	BorrowedFrom  []TermRef `json:"borrowed_from"`
	InheritedFrom []TermRef `json:"inherited_from"`
	Cognates      []TermRef `json:"cognates"`
	Related       []TermRef `json:"related"`
	Roots         []TermRef `json:"roots"`
	Affixes       []TermRef `json:"affixes"`
}

// Source supplies the etymology dataset.
type Source interface {
	LoadEtymology(ctx context.Context) ([]Record, error)
}

type key struct {
	term string
	lang string
}

// Linker answers etymology queries over an in-memory index. It is read-only
// after construction and safe for concurrent use.
type Linker struct {
	records []Record
	byTerm  map[key][]Record
}

// New loads the dataset from src. A missing dataset is reported as
// crosstem.ErrDataNotFound.
func New(ctx context.Context, src Source, logger *slog.Logger) (*Linker, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no etymology source", crosstem.ErrDataNotFound)
	}
	if logger == nil {
		logger = slog.Default()
	}
	records, err := src.LoadEtymology(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, crosstem.ErrDataNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: etymology: %v", crosstem.ErrDataNotFound, err)
	}
	l := NewLinker(records)
	logger.Info("etymology loaded", slog.Int("records", len(l.records)), slog.Int("terms", len(l.byTerm)))
	return l, nil
}

// NewLinker indexes records by lowercased term and language.
func NewLinker(records []Record) *Linker {
	l := &Linker{byTerm: make(map[key][]Record)}
	for _, r := range records {
		if r.Term == "" {
			continue
		}
		k := key{term: strings.ToLower(r.Term), lang: r.Lang}
		l.byTerm[k] = append(l.byTerm[k], r)
		l.records = append(l.records, r)
	}
	return l
}

// Len returns the number of indexed records.
func (l *Linker) Len() int { return len(l.records) }

// GetEtymology returns every relation recorded for term in lang, in dataset
// order.
func (l *Linker) GetEtymology(term, lang string) []Record {
	return l.byTerm[key{term: strings.ToLower(term), lang: lang}]
}

// GetOrigin returns the direct source of term, preferring borrowings over
// inheritance over looser relations.
func (l *Linker) GetOrigin(term, lang string) (Origin, bool) {
	records := l.GetEtymology(term, lang)
	for _, rel := range originPriority {
		for _, r := range records {
			if r.RelType == rel {
				return Origin{Term: r.RelatedTerm, Lang: r.RelatedLang, RelType: rel}, true
			}
		}
	}
	return Origin{}, false
}

// GetCognates returns the cognate_of relations of term.
func (l *Linker) GetCognates(term, lang string) []TermRef {
	out := []TermRef{}
	for _, r := range l.GetEtymology(term, lang) {
		if r.RelType == RelCognateOf {
			out = append(out, TermRef{Term: r.RelatedTerm, Lang: r.RelatedLang})
		}
	}
	return out
}

// TraceChain follows GetOrigin from term for at most maxDepth hops. The chain
// starts with term itself and stops early when an origin is missing or a
// term/language pair repeats.
func (l *Linker) TraceChain(term, lang string, maxDepth int) []Origin {
	chain := []Origin{{Term: term, Lang: lang}}
	visited := map[key]bool{{term: strings.ToLower(term), lang: lang}: true}

	cur := chain[0]
	for i := 0; i < maxDepth; i++ {
		origin, ok := l.GetOrigin(cur.Term, cur.Lang)
		if !ok {
			break
		}
		k := key{term: strings.ToLower(origin.Term), lang: origin.Lang}
		if visited[k] {
			break
		}
		visited[k] = true
		chain = append(chain, origin)
		cur = origin
	}
	return chain
}

// FindRelated buckets every relation of term by type. Unknown relation types
// are ignored.
func (l *Linker) FindRelated(term, lang string) Related {
	out := Related{
		BorrowedFrom:  []TermRef{},
		InheritedFrom: []TermRef{},
		Cognates:      []TermRef{},
		Related:       []TermRef{},
		Roots:         []TermRef{},
		Affixes:       []TermRef{},
	}
	for _, r := range l.GetEtymology(term, lang) {
		ref := TermRef{Term: r.RelatedTerm, Lang: r.RelatedLang}
		switch r.RelType {
		case RelBorrowedFrom:
			out.BorrowedFrom = append(out.BorrowedFrom, ref)
		case RelInheritedFrom:
			out.InheritedFrom = append(out.InheritedFrom, ref)
		case RelCognateOf:
			out.Cognates = append(out.Cognates, ref)
		case RelRelatedTo:
			out.Related = append(out.Related, ref)
		case RelHasRoot:
			out.Roots = append(out.Roots, ref)
		case RelHasAffix:
			out.Affixes = append(out.Affixes, ref)
		}
	}
	return out
}

// LanguageStatistics counts distinct terms per language.
func (l *Linker) LanguageStatistics() map[string]int {
	stats := make(map[string]int)
	for k := range l.byTerm {
		stats[k.lang]++
	}
	return stats
}

// Records returns the indexed records in dataset order.
func (l *Linker) Records() []Record {
	return append([]Record(nil), l.records...)
}
