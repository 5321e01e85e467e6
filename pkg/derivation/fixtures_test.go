package derivation

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/japaniel/crosstem/pkg/crosstem"
)

func rec(source, sourcePOS, target, targetPOS, affix string) Record {
	return Record{
		SourceWord: source,
		TargetWord: target,
		SourcePOS:  sourcePOS,
		TargetPOS:  targetPOS,
		Affix:      affix,
		AffixType:  Suffix,
	}
}

// organizeRecords is the small English family used across tests:
//
//	organize (V) → organization (N) → organizational (ADJ)
//	organize (V) → organizer (N)
func organizeRecords() []Record {
	return []Record{
		rec("organize", "V", "organization", "N", "-ation"),
		rec("organize", "V", "organizer", "N", "-er"),
		rec("organization", "N", "organizational", "ADJ", "-al"),
	}
}

func disjointRecords() []Record {
	return []Record{
		rec("run", "V", "runner", "N", "-er"),
		rec("walk", "V", "walker", "N", "-er"),
	}
}

var low = crosstem.Thresholds{Verb: 1, Other: 1}

func mustStemmer(t testing.TB, records []Record, opts ...Option) *Stemmer {
	t.Helper()
	s, err := NewFromGraph("eng", BuildGraph(records), opts...)
	if err != nil {
		t.Fatalf("NewFromGraph: %v", err)
	}
	return s
}

type mapSource struct {
	data  map[string][]Record
	calls atomic.Int32
}

func (m *mapSource) LoadDerivations(_ context.Context, language string) ([]Record, error) {
	m.calls.Add(1)
	records, ok := m.data[language]
	if !ok {
		return nil, crosstem.ErrDataNotFound
	}
	return records, nil
}
