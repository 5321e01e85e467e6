package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/crosstem/pkg/crosstem"
	"github.com/japaniel/crosstem/pkg/derivation"
	"github.com/japaniel/crosstem/pkg/etymology"
	"github.com/japaniel/crosstem/pkg/inflection"
)

func TestStoreDerivations(t *testing.T) {
	ctx := context.Background()
	s := NewStore(setupTestDB(t))
	defer s.DB().Close()

	_, err := s.LoadDerivations(ctx, "eng")
	assert.ErrorIs(t, err, crosstem.ErrDataNotFound)

	records := []derivation.Record{
		{SourceWord: "ptb", TargetWord: "wordy", SourcePOS: "V", TargetPOS: "ADJ", Affix: "-y", AffixType: derivation.Suffix},
		{SourceWord: "pta", TargetWord: "wordy", SourcePOS: "V", TargetPOS: "ADJ", Affix: "-y", AffixType: derivation.Suffix},
		{SourceWord: "organize", TargetWord: "organization", SourcePOS: "V", TargetPOS: "N", Affix: "-ation"},
	}
	require.NoError(t, s.ImportDerivations(ctx, "eng", records))
	got, err := s.LoadDerivations(ctx, "eng")
	require.NoError(t, err)
	assert.Equal(t, records, got)

	// Re-import replaces instead of appending.
	require.NoError(t, s.ImportDerivations(ctx, "eng", records[:1]))
	got, err = s.LoadDerivations(ctx, "eng")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	require.NoError(t, s.ImportDerivations(ctx, "fra", records[2:]))
	langs, err := s.Languages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"eng", "fra"}, langs)
}

func TestStoreFeedsStemmerInOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore(setupTestDB(t))
	defer s.DB().Close()

	require.NoError(t, s.ImportDerivations(ctx, "eng", []derivation.Record{
		{SourceWord: "ptb", TargetWord: "wordy", SourcePOS: "V", TargetPOS: "ADJ"},
		{SourceWord: "pta", TargetWord: "wordy", SourcePOS: "V", TargetPOS: "ADJ"},
	}))
	stemmer, err := derivation.New(ctx, "eng", s, derivation.WithThresholds(crosstem.Thresholds{Verb: 1, Other: 1}))
	require.NoError(t, err)
	assert.Equal(t, "ptb", stemmer.Stem("wordy"))
}

func TestStoreInflections(t *testing.T) {
	ctx := context.Background()
	s := NewStore(setupTestDB(t))
	defer s.DB().Close()

	entries := []inflection.Entry{
		{Lemma: "run", Form: "runs", POS: "V", Features: "V|PRS;3;SG", Segmentation: "run|s"},
		{Lemma: "run", Form: "ran", POS: "V", Features: "V|PST"},
	}
	require.NoError(t, s.ImportInflections(ctx, "eng", entries))
	got, err := s.LoadInflections(ctx, "eng")
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	_, err = s.LoadInflections(ctx, "deu")
	assert.ErrorIs(t, err, crosstem.ErrDataNotFound)
}

func TestStoreEtymology(t *testing.T) {
	ctx := context.Background()
	s := NewStore(setupTestDB(t))
	defer s.DB().Close()

	_, err := s.LoadEtymology(ctx)
	assert.ErrorIs(t, err, crosstem.ErrDataNotFound)

	records := []etymology.Record{
		{TermID: "1", Lang: "English", Term: "portmanteau", RelType: "borrowed_from", RelatedLang: "Middle French", RelatedTerm: "portemanteau"},
		{TermID: "2", Lang: "Dutch", Term: "woordenboek", RelType: "cognate_of", RelatedLang: "German", RelatedTerm: "Wörterbuch"},
	}
	require.NoError(t, s.ImportEtymology(ctx, records))
	got, err := s.LoadEtymology(ctx)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestStoreOnDisk(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "crosstem.db")
	conn, err := Open(path)
	require.NoError(t, err)
	s := NewStore(conn)
	require.NoError(t, s.ImportInflections(ctx, "eng", []inflection.Entry{{Lemma: "cat", Form: "cats", POS: "N"}}))
	require.NoError(t, conn.Close())

	conn, err = Open(path)
	require.NoError(t, err)
	defer conn.Close()
	got, err := NewStore(conn).LoadInflections(ctx, "eng")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
