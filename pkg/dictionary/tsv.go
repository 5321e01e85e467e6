package dictionary

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/japaniel/crosstem/pkg/derivation"
	"github.com/japaniel/crosstem/pkg/etymology"
	"github.com/japaniel/crosstem/pkg/inflection"
)

// Format names a derivational TSV layout.
type Format string

const (
	// FormatAuto picks MorphyNet or UniMorph from the first row's width.
	FormatAuto Format = "auto"
	// FormatMorphyNet: source, target, source POS, target POS, affix, affix type.
	FormatMorphyNet Format = "morphynet"
	// FormatUniMorph: source, target, "SRC:TGT" POS pair, affix.
	FormatUniMorph Format = "unimorph"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatAuto, FormatMorphyNet, FormatUniMorph:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want auto, morphynet or unimorph)", s)
}

// ReadStats reports what a TSV or CSV reader consumed.
type ReadStats struct {
	Format  Format
	Rows    int
	Skipped int
}

func newTSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return cr
}

// ReadDerivationsTSV reads a MorphyNet or UniMorph derivational export.
// Rows that are too short or have an empty word are skipped.
func ReadDerivationsTSV(r io.Reader, format Format) ([]derivation.Record, ReadStats, error) {
	cr := newTSVReader(r)
	stats := ReadStats{Format: format}
	var out []derivation.Record

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, err
		}
		if stats.Format == FormatAuto || stats.Format == "" {
			switch len(row) {
			case 6:
				stats.Format = FormatMorphyNet
			case 4:
				stats.Format = FormatUniMorph
			default:
				return nil, stats, fmt.Errorf("cannot detect format: expected 4 or 6 columns, got %d", len(row))
			}
		}

		rec, ok := parseDerivationRow(row, stats.Format)
		if !ok {
			stats.Skipped++
			continue
		}
		out = append(out, rec)
		stats.Rows++
	}
	return out, stats, nil
}

func parseDerivationRow(row []string, format Format) (derivation.Record, bool) {
	var rec derivation.Record
	switch format {
	case FormatMorphyNet:
		if len(row) < 6 {
			return rec, false
		}
		rec = derivation.Record{
			SourceWord: strings.TrimSpace(row[0]),
			TargetWord: strings.TrimSpace(row[1]),
			SourcePOS:  strings.TrimSpace(row[2]),
			TargetPOS:  strings.TrimSpace(row[3]),
			Affix:      strings.TrimSpace(row[4]),
			AffixType:  derivation.AffixType(strings.ToLower(strings.TrimSpace(row[5]))),
		}
	case FormatUniMorph:
		if len(row) < 4 {
			return rec, false
		}
		src, tgt, ok := strings.Cut(strings.TrimSpace(row[2]), ":")
		if !ok {
			tgt = src
		}
		affix := strings.TrimSpace(row[3])
		rec = derivation.Record{
			SourceWord: strings.TrimSpace(row[0]),
			TargetWord: strings.TrimSpace(row[1]),
			SourcePOS:  src,
			TargetPOS:  tgt,
			Affix:      affix,
			AffixType:  affixTypeOf(affix),
		}
	default:
		return rec, false
	}
	return rec, rec.SourceWord != "" && rec.TargetWord != ""
}

// affixTypeOf classifies a hyphenated affix: "-er" is a suffix, "un-" a
// prefix. Bare affixes are treated as suffixes.
func affixTypeOf(affix string) derivation.AffixType {
	if strings.HasSuffix(affix, "-") && !strings.HasPrefix(affix, "-") {
		return derivation.Prefix
	}
	return derivation.Suffix
}

// ReadInflectionsTSV reads a MorphyNet inflectional export: lemma, form,
// features, segmentation. The POS is the leading tag of the features.
func ReadInflectionsTSV(r io.Reader) ([]inflection.Entry, ReadStats, error) {
	cr := newTSVReader(r)
	stats := ReadStats{Format: FormatMorphyNet}
	var out []inflection.Entry

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, err
		}
		if len(row) != 4 {
			stats.Skipped++
			continue
		}
		features := strings.TrimSpace(row[2])
		out = append(out, inflection.Entry{
			Lemma:        strings.ToLower(strings.TrimSpace(row[0])),
			Form:         strings.ToLower(strings.TrimSpace(row[1])),
			POS:          inflection.POSFromFeatures(features),
			Features:     features,
			Segmentation: strings.TrimSpace(row[3]),
		})
		stats.Rows++
	}
	return out, stats, nil
}

const etymologyColumns = 11

// ReadEtymologyCSV reads the Etymological Wordnet CSV export. The first
// line is a header; rows without exactly eleven columns are skipped.
func ReadEtymologyCSV(r io.Reader) ([]etymology.Record, ReadStats, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	stats := ReadStats{}
	var out []etymology.Record

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, nil
		}
		return nil, stats, fmt.Errorf("read header: %w", err)
	}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, err
		}
		if len(row) != etymologyColumns {
			stats.Skipped++
			continue
		}
		out = append(out, etymology.Record{
			TermID:         row[0],
			Lang:           row[1],
			Term:           row[2],
			RelType:        row[3],
			RelatedTermID:  row[4],
			RelatedLang:    row[5],
			RelatedTerm:    row[6],
			Position:       row[7],
			GroupTag:       row[8],
			ParentTag:      row[9],
			ParentPosition: row[10],
		})
		stats.Rows++
	}
	return out, stats, nil
}
