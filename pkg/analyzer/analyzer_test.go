package analyzer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/crosstem/pkg/crosstem"
	"github.com/japaniel/crosstem/pkg/derivation"
	"github.com/japaniel/crosstem/pkg/etymology"
	"github.com/japaniel/crosstem/pkg/inflection"
)

type memSource struct {
	derivations map[string][]derivation.Record
	inflections map[string][]inflection.Entry
}

func (m memSource) LoadDerivations(_ context.Context, lang string) ([]derivation.Record, error) {
	r, ok := m.derivations[lang]
	if !ok {
		return nil, crosstem.ErrDataNotFound
	}
	return r, nil
}

func (m memSource) LoadInflections(_ context.Context, lang string) ([]inflection.Entry, error) {
	e, ok := m.inflections[lang]
	if !ok {
		return nil, crosstem.ErrDataNotFound
	}
	return e, nil
}

func englishSource() memSource {
	return memSource{
		derivations: map[string][]derivation.Record{"eng": {
			{SourceWord: "organize", TargetWord: "organization", SourcePOS: "V", TargetPOS: "N", Affix: "-ation", AffixType: derivation.Suffix},
			{SourceWord: "organize", TargetWord: "organizer", SourcePOS: "V", TargetPOS: "N", Affix: "-er", AffixType: derivation.Suffix},
			{SourceWord: "organization", TargetWord: "organizational", SourcePOS: "N", TargetPOS: "ADJ", Affix: "-al", AffixType: derivation.Suffix},
		}},
		inflections: map[string][]inflection.Entry{"eng": {
			{Lemma: "organization", Form: "organization", POS: "N", Features: "N|SG"},
			{Lemma: "organization", Form: "organizations", POS: "N", Features: "N|PL"},
			{Lemma: "organize", Form: "organizes", POS: "V", Features: "V|PRS;3;SG"},
			{Lemma: "organize", Form: "organized", POS: "V", Features: "V|PST"},
			{Lemma: "run", Form: "runs", POS: "V", Features: "V|PRS;3;SG"},
			{Lemma: "run", Form: "running", POS: "V", Features: "V|V.PTCP;PRS"},
		}},
	}
}

func testLinker() *etymology.Linker {
	return etymology.NewLinker([]etymology.Record{
		{Lang: "English", Term: "organization", RelType: etymology.RelBorrowedFrom, RelatedLang: "Middle French", RelatedTerm: "organisation"},
		{Lang: "Middle French", Term: "organisation", RelType: etymology.RelBorrowedFrom, RelatedLang: "Medieval Latin", RelatedTerm: "organizatio"},
		{Lang: "English", Term: "organization", RelType: etymology.RelCognateOf, RelatedLang: "German", RelatedTerm: "Organisation"},
	})
}

var low = crosstem.Thresholds{Verb: 1, Other: 1}

func newEnglish(t *testing.T, opts ...Option) *Analyzer {
	t.Helper()
	opts = append([]Option{WithStemmerOptions(derivation.WithThresholds(low))}, opts...)
	a, err := New(context.Background(), "eng", englishSource(), opts...)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestNewRequiresBothDatasets(t *testing.T) {
	src := englishSource()
	delete(src.inflections, "eng")
	_, err := New(context.Background(), "eng", src)
	assert.ErrorIs(t, err, crosstem.ErrDataNotFound)

	_, err = New(context.Background(), "xx", englishSource())
	assert.ErrorIs(t, err, crosstem.ErrLanguageNotSupported)
}

func TestNewFromParts(t *testing.T) {
	stemmer, err := derivation.NewFromGraph("eng", derivation.BuildGraph(nil))
	require.NoError(t, err)

	_, err = NewFromParts(stemmer, nil, nil)
	assert.ErrorIs(t, err, crosstem.ErrInvalidConfig)

	_, err = NewFromParts(stemmer, inflection.NewTable("fra", nil), nil)
	assert.ErrorIs(t, err, crosstem.ErrInvalidConfig)

	a, err := NewFromParts(stemmer, inflection.NewTable("eng", nil), nil)
	require.NoError(t, err)
	assert.Equal(t, "eng", a.Language())
	assert.False(t, a.HasEtymology())
}

func TestAnalyzeInflectedForm(t *testing.T) {
	a := newEnglish(t)
	res := a.Analyze("organizations", 2)

	assert.Equal(t, "organizations", res.Word)
	assert.Equal(t, "organization", res.InflectionalLemma)
	assert.Equal(t, "N", res.POS)
	assert.Equal(t, "N|PL", res.GrammaticalFeatures)
	assert.Equal(t, []inflection.Inflection{{Form: "organizations", POS: "N", Features: "N|PL"}}, res.Inflections)
	// Not in the derivation graph itself.
	assert.Equal(t, "organizations", res.DerivationalStem)
	assert.Equal(t, []string{"organizations"}, res.WordFamily)
	assert.Nil(t, res.Etymology)
}

func TestAnalyzeDerivedWord(t *testing.T) {
	a := newEnglish(t)
	res := a.Analyze("organization", 2)

	assert.Equal(t, "organize", res.DerivationalStem)
	assert.Equal(t, []string{"organization", "organizational"}, res.WordFamily)
	assert.Equal(t, []derivation.Derivation{
		{Form: "organizational", POS: "ADJ", Relation: derivation.RelationDerivesTo},
		{Form: "organize", POS: "V", Relation: derivation.RelationDerivedFrom},
	}, res.Derivations)
	assert.Equal(t, "organization", res.InflectionalLemma)
	assert.Empty(t, res.GrammaticalFeatures, "a lemma has no features of its own")
}

func TestAnalyzeUnknownWord(t *testing.T) {
	a := newEnglish(t)
	res := a.Analyze("zzqx", 2)
	assert.Equal(t, "zzqx", res.DerivationalStem)
	assert.Empty(t, res.InflectionalLemma)
	assert.Equal(t, []inflection.Inflection{}, res.Inflections)

	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"word": "zzqx",
		"derivational_stem": "zzqx",
		"grammatical_features": "",
		"word_family": ["zzqx"],
		"derivations": [],
		"inflections": []
	}`, string(out))
}

func TestAnalyzeWithEtymology(t *testing.T) {
	a := newEnglish(t, WithEtymology(testLinker()))
	require.True(t, a.HasEtymology())

	res := a.Analyze("organization", 2)
	require.NotNil(t, res.Etymology)
	assert.Equal(t, etymology.Origin{Term: "organisation", Lang: "Middle French", RelType: etymology.RelBorrowedFrom}, res.Etymology.Origin)
	assert.Len(t, res.Etymology.Chain, 3)
	assert.Equal(t, []etymology.TermRef{{Term: "Organisation", Lang: "German"}}, res.Etymology.RelatedLanguages.Cognates)
}

func TestFullStem(t *testing.T) {
	a := newEnglish(t)
	assert.Equal(t, "organize", a.FullStem("organizations"))
	assert.Equal(t, "organize", a.FullStem("Organizations"))
	assert.Equal(t, "run", a.FullStem("running"))
	assert.Equal(t, "zzqx", a.FullStem("zzqx"))

	fs := a.FullStemmer()
	assert.Equal(t, "eng", fs.Language())
	assert.Equal(t, "organize", fs.Stem("organizations"))
}

func TestAreRelated(t *testing.T) {
	a := newEnglish(t)
	tests := []struct {
		name            string
		w1, w2          string
		checkInflection bool
		want            Relation
	}{
		{"derivational", "organize", "organizational", true, Relation{Related: true, Type: RelationDerivational, CommonRoot: "organize"}},
		{"inflectional", "run", "running", true, Relation{Related: true, Type: RelationInflectional, CommonRoot: "run"}},
		{"inflection not checked", "run", "running", false, Relation{}},
		{"both", "organize", "Organize", true, Relation{Related: true, Type: RelationBoth, CommonRoot: "organize"}},
		{"unrelated", "organizer", "running", true, Relation{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.AreRelated(tt.w1, tt.w2, tt.checkInflection))
		})
	}
}

func TestTraceEtymology(t *testing.T) {
	without := newEnglish(t)
	_, ok := without.TraceEtymology("organization", etymology.DefaultTraceDepth)
	assert.False(t, ok)

	a := newEnglish(t, WithEtymology(testLinker()))
	chain, ok := a.TraceEtymology("organization", 1)
	require.True(t, ok)
	assert.Equal(t, []etymology.Origin{
		{Term: "organization", Lang: "English"},
		{Term: "organisation", Lang: "Middle French", RelType: etymology.RelBorrowedFrom},
	}, chain)
}

func TestCompareSuffixStemmer(t *testing.T) {
	a := newEnglish(t)
	got := a.CompareSuffixStemmer([]string{"organizational", "running"})
	require.Len(t, got, 2)
	assert.Equal(t, "organize", got[0].Derivational)
	assert.Equal(t, "organiz", got[0].Snowball)
	assert.Equal(t, "running", got[1].Derivational)
	assert.Equal(t, "run", got[1].Snowball)
}

func TestCompareWithoutSnowballAlgorithm(t *testing.T) {
	src := memSource{
		derivations: map[string][]derivation.Record{"deu": {}},
		inflections: map[string][]inflection.Entry{"deu": {}},
	}
	a, err := New(context.Background(), "deu", src)
	require.NoError(t, err)
	got := a.CompareSuffixStemmer([]string{"Häuser"})
	assert.Equal(t, []Comparison{{Word: "Häuser", Derivational: "Häuser"}}, got)
}
