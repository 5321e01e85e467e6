// Package inflection maps inflected word forms to their lemmas and back.
package inflection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/japaniel/crosstem/pkg/crosstem"
)

// Entry is one row of an inflection dataset: a single inflected form of a
// lemma with its grammatical features.
type Entry struct {
	Lemma        string `json:"lemma"`
	Form         string `json:"form"`
	POS          string `json:"pos"`
	Features     string `json:"features"`
	Segmentation string `json:"segmentation"`
}

// Variant is one reading of an inflected form.
type Variant struct {
	POS          string `json:"pos"`
	Features     string `json:"features"`
	Segmentation string `json:"segmentation"`
}

// Inflection is a form of a lemma as returned by GetInflections.
type Inflection struct {
	Form     string `json:"form"`
	POS      string `json:"pos"`
	Features string `json:"features"`
}

// Analysis summarizes a word's inflectional status.
type Analysis struct {
	Word     string   `json:"word"`
	Lemma    string   `json:"lemma"`
	POS      string   `json:"pos"`
	Features string   `json:"features"`
	AllForms []string `json:"all_forms"`
}

// Source supplies inflection rows for one language.
type Source interface {
	LoadInflections(ctx context.Context, language string) ([]Entry, error)
}

type lemma struct {
	pos      string
	forms    []string
	variants map[string][]Variant
}

// Table is an immutable lemma/form index for one language. It is safe for
// concurrent use.
type Table struct {
	language string
	lemmas   map[string]*lemma
	order    []string
	byForm   map[string]string
}

// New validates language and builds its table from src.
func New(ctx context.Context, language string, src Source, logger *slog.Logger) (*Table, error) {
	if _, err := crosstem.LookupLanguage(language); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("%w: no inflection source for %s", crosstem.ErrDataNotFound, language)
	}
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := src.LoadInflections(ctx, language)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, crosstem.ErrDataNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: inflections %s: %v", crosstem.ErrDataNotFound, language, err)
	}

	t := NewTable(language, entries)
	logger.Info("inflection table loaded",
		slog.String("language", language),
		slog.Int("lemmas", len(t.order)),
		slog.Int("forms", len(t.byForm)))
	return t, nil
}

// NewTable indexes entries in order. A lemma's POS is the POS of its first
// entry; a form shared by several lemmas resolves to the first of them.
func NewTable(language string, entries []Entry) *Table {
	t := &Table{
		language: language,
		lemmas:   make(map[string]*lemma),
		byForm:   make(map[string]string),
	}
	for _, e := range entries {
		lk := crosstem.Normalize(strings.TrimSpace(e.Lemma))
		fk := crosstem.Normalize(strings.TrimSpace(e.Form))
		if lk == "" || fk == "" {
			continue
		}
		l, ok := t.lemmas[lk]
		if !ok {
			l = &lemma{pos: e.POS, variants: make(map[string][]Variant)}
			t.lemmas[lk] = l
			t.order = append(t.order, lk)
		}
		if _, seen := l.variants[fk]; !seen {
			l.forms = append(l.forms, fk)
		}
		l.variants[fk] = append(l.variants[fk], Variant{POS: e.POS, Features: e.Features, Segmentation: e.Segmentation})
		if _, ok := t.byForm[fk]; !ok {
			t.byForm[fk] = lk
		}
	}
	return t
}

// Language returns the table's language code.
func (t *Table) Language() string { return t.language }

// Len returns the number of lemmas.
func (t *Table) Len() int { return len(t.order) }

// GetLemma returns the lemma of word. A word that is itself a lemma is its
// own lemma.
func (t *Table) GetLemma(word string) (string, bool) {
	key := crosstem.Normalize(word)
	if _, ok := t.lemmas[key]; ok {
		return key, true
	}
	l, ok := t.byForm[key]
	return l, ok
}

// GetInflections lists every form of word's lemma except the lemma itself,
// one entry per variant.
func (t *Table) GetInflections(word string) []Inflection {
	key, ok := t.GetLemma(word)
	if !ok {
		return []Inflection{}
	}
	l := t.lemmas[key]
	out := []Inflection{}
	for _, form := range l.forms {
		if form == key {
			continue
		}
		for _, v := range l.variants[form] {
			out = append(out, Inflection{Form: form, POS: v.POS, Features: v.Features})
		}
	}
	return out
}

// GetPOS returns the POS of word's lemma.
func (t *Table) GetPOS(word string) (string, bool) {
	key, ok := t.GetLemma(word)
	if !ok {
		return "", false
	}
	return t.lemmas[key].pos, true
}

// Analyze returns the lemma, POS and features of word along with every
// other form of its lemma, or false if the word is unknown.
func (t *Table) Analyze(word string) (Analysis, bool) {
	key, ok := t.GetLemma(word)
	if !ok {
		return Analysis{}, false
	}
	l := t.lemmas[key]
	lower := crosstem.Normalize(word)

	var features string
	if lower != key {
		if vs := l.variants[lower]; len(vs) > 0 {
			features = vs[0].Features
		}
	}
	all := make([]string, 0, len(l.forms))
	for _, form := range l.forms {
		if form != key {
			all = append(all, form)
		}
	}
	sort.Strings(all)

	return Analysis{Word: word, Lemma: key, POS: l.pos, Features: features, AllForms: all}, true
}

// AreInflections reports whether both words resolve to the same lemma.
func (t *Table) AreInflections(word1, word2 string) bool {
	l1, ok1 := t.GetLemma(word1)
	l2, ok2 := t.GetLemma(word2)
	return ok1 && ok2 && l1 == l2
}

// Entries returns the table's rows in their original order.
func (t *Table) Entries() []Entry {
	var out []Entry
	for _, key := range t.order {
		l := t.lemmas[key]
		for _, form := range l.forms {
			for _, v := range l.variants[form] {
				out = append(out, Entry{
					Lemma:        key,
					Form:         form,
					POS:          v.POS,
					Features:     v.Features,
					Segmentation: v.Segmentation,
				})
			}
		}
	}
	return out
}

// POSFromFeatures extracts the POS tag that leads a MorphyNet feature string,
// e.g. "V" from "V|V.PTCP;PRS".
func POSFromFeatures(features string) string {
	pos, _, _ := strings.Cut(features, "|")
	pos, _, _ = strings.Cut(pos, ";")
	return pos
}
