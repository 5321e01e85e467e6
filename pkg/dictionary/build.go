package dictionary

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/japaniel/crosstem/pkg/crosstem"
	"github.com/japaniel/crosstem/pkg/derivation"
	"github.com/japaniel/crosstem/pkg/etymology"
	"github.com/japaniel/crosstem/pkg/inflection"
)

// MorphyNetPath returns where a MorphyNet checkout keeps language's
// derivational export.
func MorphyNetPath(morphynetDir, language string) string {
	return filepath.Join(morphynetDir, language, language+".derivational.v1.tsv")
}

// ConvertStats describes one converted file.
type ConvertStats struct {
	ReadStats
	Words int
}

// ConvertDerivations turns a derivational TSV into a graph document at out.
func ConvertDerivations(ctx context.Context, in, out string, format Format) (ConvertStats, error) {
	var stats ConvertStats
	var records []derivation.Record
	err := readRaw(ctx, in, func(r io.Reader) error {
		var err error
		records, stats.ReadStats, err = ReadDerivationsTSV(r, format)
		return err
	})
	if err != nil {
		return stats, err
	}
	g := derivation.BuildGraph(records)
	stats.Words = g.Len()
	return stats, writeFileAtomic(out, func(w io.Writer) error {
		return WriteDerivationsJSON(w, g)
	})
}

// ConvertInflections turns an inflectional TSV into an inflection document.
func ConvertInflections(ctx context.Context, in, out, language string) (ConvertStats, error) {
	var stats ConvertStats
	var entries []inflection.Entry
	err := readRaw(ctx, in, func(r io.Reader) error {
		var err error
		entries, stats.ReadStats, err = ReadInflectionsTSV(r)
		return err
	})
	if err != nil {
		return stats, err
	}
	t := inflection.NewTable(language, entries)
	stats.Words = t.Len()
	return stats, writeFileAtomic(out, func(w io.Writer) error {
		return WriteInflectionsJSON(w, t)
	})
}

// ConvertEtymology turns the etymology CSV export into a JSON array.
func ConvertEtymology(ctx context.Context, in, out string) (ConvertStats, error) {
	var stats ConvertStats
	var records []etymology.Record
	err := readRaw(ctx, in, func(r io.Reader) error {
		var err error
		records, stats.ReadStats, err = ReadEtymologyCSV(r)
		return err
	})
	if err != nil {
		return stats, err
	}
	stats.Words = len(records)
	return stats, writeFileAtomic(out, func(w io.Writer) error {
		return WriteEtymologyJSON(w, records)
	})
}

// readRaw is readFile without the ErrDataNotFound wrapping: converter input
// errors are reported as they are.
func readRaw(ctx context.Context, path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := fn(&ctxReader{ctx: ctx, r: f}); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// BuildSummary reports the outcome of BuildAll per language.
type BuildSummary struct {
	Built   map[string]int
	Missing []string
	Failed  map[string]error
}

// BuildAll converts the MorphyNet derivational export of every supported
// language under morphynetDir into outDir. Languages without an export are
// listed in Missing; conversion failures are collected in Failed and do not
// stop the other languages.
func BuildAll(ctx context.Context, morphynetDir, outDir string, logger *slog.Logger) (BuildSummary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	summary := BuildSummary{Built: map[string]int{}, Failed: map[string]error{}}
	out := Dir{Path: outDir}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, code := range crosstem.LanguageCodes() {
		in := MorphyNetPath(morphynetDir, code)
		if _, err := os.Stat(in); errors.Is(err, os.ErrNotExist) {
			logger.Warn("skipping language without derivational export",
				slog.String("language", code), slog.String("path", in))
			summary.Missing = append(summary.Missing, code)
			continue
		}
		code := code
		g.Go(func() error {
			stats, err := ConvertDerivations(gctx, in, out.DerivationsPath(code), FormatMorphyNet)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Error("convert failed", slog.String("language", code), slog.Any("error", err))
				summary.Failed[code] = err
				return nil
			}
			logger.Info("converted",
				slog.String("language", code),
				slog.Int("words", stats.Words),
				slog.Int("rows", stats.Rows),
				slog.Int("skipped", stats.Skipped))
			summary.Built[code] = stats.Words
			return nil
		})
	}
	err := g.Wait()
	sort.Strings(summary.Missing)
	return summary, err
}
