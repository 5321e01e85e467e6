package etymology

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/crosstem/pkg/crosstem"
)

func r(term, lang, rel, relTerm, relLang string) Record {
	return Record{Term: term, Lang: lang, RelType: rel, RelatedTerm: relTerm, RelatedLang: relLang}
}

func sampleRecords() []Record {
	return []Record{
		r("portmanteau", "English", RelRelatedTo, "mantle", "English"),
		r("portmanteau", "English", RelBorrowedFrom, "portemanteau", "Middle French"),
		r("portemanteau", "Middle French", RelHasRoot, "porter", "Old French"),
		r("portemanteau", "Middle French", RelInheritedFrom, "portemantel", "Old French"),
		r("woordenboek", "Dutch", RelCognateOf, "wurdboek", "West Frisian"),
		r("woordenboek", "Dutch", RelCognateOf, "Wörterbuch", "German"),
		r("woordenboek", "Dutch", RelHasAffix, "-boek", "Dutch"),
		r("loopa", "Latin", RelBorrowedFrom, "loopb", "Greek"),
		r("loopb", "Greek", RelBorrowedFrom, "Loopa", "Latin"),
		r("", "Latin", RelHasRoot, "nothing", "Latin"),
	}
}

type sliceSource []Record

func (s sliceSource) LoadEtymology(context.Context) ([]Record, error) { return s, nil }

func TestGetEtymology(t *testing.T) {
	l := NewLinker(sampleRecords())
	assert.Equal(t, 9, l.Len())
	assert.Len(t, l.GetEtymology("Portmanteau", "English"), 2)
	assert.Empty(t, l.GetEtymology("portmanteau", "French"))
}

func TestGetOriginPriority(t *testing.T) {
	l := NewLinker(sampleRecords())

	o, ok := l.GetOrigin("portmanteau", "English")
	require.True(t, ok)
	assert.Equal(t, Origin{Term: "portemanteau", Lang: "Middle French", RelType: RelBorrowedFrom}, o)

	// has_root never counts as an origin.
	o, ok = l.GetOrigin("portemanteau", "Middle French")
	require.True(t, ok)
	assert.Equal(t, RelInheritedFrom, o.RelType)

	_, ok = l.GetOrigin("woordenboek", "Dutch")
	assert.False(t, ok)
}

func TestGetCognates(t *testing.T) {
	l := NewLinker(sampleRecords())
	assert.Equal(t, []TermRef{
		{Term: "wurdboek", Lang: "West Frisian"},
		{Term: "Wörterbuch", Lang: "German"},
	}, l.GetCognates("woordenboek", "Dutch"))
	assert.Equal(t, []TermRef{}, l.GetCognates("zzqx", "Dutch"))
}

func TestTraceChain(t *testing.T) {
	l := NewLinker(sampleRecords())

	assert.Equal(t, []Origin{
		{Term: "portmanteau", Lang: "English"},
		{Term: "portemanteau", Lang: "Middle French", RelType: RelBorrowedFrom},
		{Term: "portemantel", Lang: "Old French", RelType: RelInheritedFrom},
	}, l.TraceChain("portmanteau", "English", DefaultTraceDepth))

	assert.Len(t, l.TraceChain("portmanteau", "English", 1), 2)
	assert.Equal(t, []Origin{{Term: "zzqx", Lang: "English"}}, l.TraceChain("zzqx", "English", DefaultTraceDepth))
}

func TestTraceChainStopsOnCycle(t *testing.T) {
	l := NewLinker(sampleRecords())
	chain := l.TraceChain("loopa", "Latin", 10)
	assert.Equal(t, []Origin{
		{Term: "loopa", Lang: "Latin"},
		{Term: "loopb", Lang: "Greek", RelType: RelBorrowedFrom},
	}, chain)
}

func TestFindRelated(t *testing.T) {
	l := NewLinker(sampleRecords())
	rel := l.FindRelated("woordenboek", "Dutch")
	assert.Len(t, rel.Cognates, 2)
	assert.Equal(t, []TermRef{{Term: "-boek", Lang: "Dutch"}}, rel.Affixes)
	assert.Empty(t, rel.BorrowedFrom)
	assert.NotNil(t, rel.BorrowedFrom)

	rel = l.FindRelated("portemanteau", "Middle French")
	assert.Equal(t, []TermRef{{Term: "porter", Lang: "Old French"}}, rel.Roots)
	assert.Len(t, rel.InheritedFrom, 1)
}

func TestLanguageStatistics(t *testing.T) {
	l := NewLinker(sampleRecords())
	assert.Equal(t, map[string]int{
		"English":       1,
		"Middle French": 1,
		"Dutch":         1,
		"Latin":         1,
		"Greek":         1,
	}, l.LanguageStatistics())
}

func TestRecordsKeepOrder(t *testing.T) {
	in := sampleRecords()
	l := NewLinker(in)
	assert.Equal(t, in[:9], l.Records())
}

func TestNew(t *testing.T) {
	l, err := New(context.Background(), sliceSource(sampleRecords()), nil)
	require.NoError(t, err)
	assert.Equal(t, 9, l.Len())

	_, err = New(context.Background(), nil, nil)
	assert.ErrorIs(t, err, crosstem.ErrDataNotFound)
}
