package derivation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAreRelated(t *testing.T) {
	records := append(organizeRecords(), disjointRecords()...)
	s := mustStemmer(t, records, WithThresholds(low))

	tests := []struct {
		a, b string
		want bool
	}{
		{"organize", "organization", true},
		{"Organization", "organizer", true},
		{"run", "runner", true},
		{"run", "walk", false},
		{"runner", "walker", false},
		{"organizer", "organizer", true},
		{"zzqx", "zzqx", true},
		{"zzqx", "Zzqx", true},
		{"zzqx", "run", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.AreRelated(tt.a, tt.b), "%s ~ %s", tt.a, tt.b)
	}
}

func TestAreRelatedThroughFamilyWithoutSharedStem(t *testing.T) {
	// Default English thresholds leave every word stemming to itself, so the
	// relation has to come from the depth-1 family overlap.
	s := mustStemmer(t, organizeRecords())
	assert.Equal(t, "organization", s.Stem("organization"))
	assert.True(t, s.AreRelated("organize", "organization"))
	assert.False(t, s.AreRelated("organizer", "organizational"))
}
