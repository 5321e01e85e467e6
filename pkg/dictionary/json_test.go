package dictionary

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/crosstem/pkg/crosstem"
	"github.com/japaniel/crosstem/pkg/derivation"
	"github.com/japaniel/crosstem/pkg/etymology"
	"github.com/japaniel/crosstem/pkg/inflection"
)

const graphDoc = `{
  "organize": {"pos": "V",
    "derives_to": {"organization": {"pos": "N", "affix": "-ation", "affix_type": "suffix"},
                   "organizer": {"pos": "N", "affix": "-er", "affix_type": "suffix"}},
    "derived_from": {}},
  "wordy": {"derived_from": {"ptb": {"pos": "V", "affix": "-y"}, "pta": {"pos": "V", "affix": "-y"}},
            "pos": "ADJ", "extra": [1, 2, {"x": null}]},
  "organization": {"pos": "N", "derives_to": {},
    "derived_from": {"organize": {"pos": "V", "affix": "-ation", "affix_type": "suffix"}}},
  "organizer": {"pos": "N", "derives_to": {},
    "derived_from": {"organize": {"pos": "V", "affix": "-er", "affix_type": "suffix"}}}
}`

func TestReadDerivationsJSON(t *testing.T) {
	records, err := ReadDerivationsJSON(strings.NewReader(graphDoc))
	require.NoError(t, err)
	require.Len(t, records, 4)

	// Document order is kept, including parent order within a word.
	assert.Equal(t, "ptb", records[0].SourceWord)
	assert.Equal(t, "pta", records[1].SourceWord)
	assert.Equal(t, "ADJ", records[0].TargetPOS, "pos after derived_from still applies")
	assert.Equal(t, derivation.Record{
		SourceWord: "organize",
		TargetWord: "organization",
		SourcePOS:  "V",
		TargetPOS:  "N",
		Affix:      "-ation",
		AffixType:  derivation.Suffix,
	}, records[2])

	g := derivation.BuildGraph(records)
	s, err := derivation.NewFromGraph("eng", g, derivation.WithThresholds(crosstem.Thresholds{Verb: 1, Other: 1}))
	require.NoError(t, err)
	assert.Equal(t, "ptb", s.Stem("wordy"))
	assert.Equal(t, "organize", s.Stem("organizer"))
}

func TestReadDerivationsJSON_Malformed(t *testing.T) {
	for _, doc := range []string{`[]`, `{"a": {"pos": 1}}`, `{"a": {"derived_from": {"b": "x"}}}`, `{"a":`} {
		_, err := ReadDerivationsJSON(strings.NewReader(doc))
		assert.Error(t, err, doc)
	}
}

func TestDerivationsJSONRoundTrip(t *testing.T) {
	records, err := ReadDerivationsJSON(strings.NewReader(graphDoc))
	require.NoError(t, err)
	g := derivation.BuildGraph(records)

	var buf bytes.Buffer
	require.NoError(t, WriteDerivationsJSON(&buf, g))
	again, err := ReadDerivationsJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, records, again)
}

func TestInflectionsJSONRoundTrip(t *testing.T) {
	tbl := inflection.NewTable("eng", []inflection.Entry{
		{Lemma: "run", Form: "runs", POS: "V", Features: "V|PRS;3;SG", Segmentation: "run|s"},
		{Lemma: "run", Form: "ran", POS: "V", Features: "V|PST"},
		{Lemma: "run", Form: "ran", POS: "V", Features: "V|V.PTCP;PST"},
		{Lemma: "cat", Form: "cats", POS: "N", Features: "N|PL"},
	})
	var buf bytes.Buffer
	require.NoError(t, WriteInflectionsJSON(&buf, tbl))
	assert.True(t, strings.HasPrefix(buf.String(), `{"run":{"pos":"V","forms":{"runs":[`), buf.String())

	entries, err := ReadInflectionsJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, tbl.Entries(), entries)
}

func TestInflectionsJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteInflectionsJSON(&buf, inflection.NewTable("eng", nil)))
	assert.Equal(t, "{}\n", buf.String())
	entries, err := ReadInflectionsJSON(&buf)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEtymologyJSONRoundTrip(t *testing.T) {
	in := []etymology.Record{
		{Term: "portmanteau", Lang: "English", RelType: "borrowed_from", RelatedTerm: "portemanteau", RelatedLang: "Middle French"},
		{Term: "a<b", Lang: "English", RelType: "has_affix", RelatedTerm: "-b", RelatedLang: "English"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteEtymologyJSON(&buf, in))
	assert.Contains(t, buf.String(), "a<b")

	out, err := ReadEtymologyJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = ReadEtymologyJSON(strings.NewReader(`{"term":"x"}`))
	assert.Error(t, err)
}

func TestDirSources(t *testing.T) {
	dir := Dir{Path: t.TempDir()}
	ctx := context.Background()

	_, err := dir.LoadDerivations(ctx, "eng")
	assert.ErrorIs(t, err, crosstem.ErrDataNotFound)
	_, err = dir.LoadInflections(ctx, "eng")
	assert.ErrorIs(t, err, crosstem.ErrDataNotFound)
	_, err = dir.LoadEtymology(ctx)
	assert.ErrorIs(t, err, crosstem.ErrDataNotFound)

	require.NoError(t, os.WriteFile(dir.DerivationsPath("eng"), []byte(graphDoc), 0o644))
	records, err := dir.LoadDerivations(ctx, "eng")
	require.NoError(t, err)
	assert.Len(t, records, 4)

	require.NoError(t, os.WriteFile(dir.DerivationsPath("fra"), []byte(`{"broken"`), 0o644))
	_, err = dir.LoadDerivations(ctx, "fra")
	assert.ErrorIs(t, err, crosstem.ErrDataNotFound)
	assert.Contains(t, err.Error(), filepath.Base(dir.DerivationsPath("fra")))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = dir.LoadDerivations(cancelled, "eng")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirFeedsStemmer(t *testing.T) {
	dir := Dir{Path: t.TempDir()}
	require.NoError(t, os.WriteFile(dir.DerivationsPath("eng"), []byte(graphDoc), 0o644))

	s, err := derivation.New(context.Background(), "eng", dir)
	require.NoError(t, err)
	assert.Equal(t, 6, s.Graph().Len())
}
