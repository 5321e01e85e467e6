package dictionary

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/japaniel/crosstem/pkg/crosstem"
	"github.com/japaniel/crosstem/pkg/db"
)

// Importer copies the datasets of a data directory into a database so the
// stemmer can later load them through db.Store.
type Importer struct {
	dir    Dir
	store  *db.Store
	logger *slog.Logger
	// Workers bounds how many languages are read at once. Writes are
	// serialized by the store's transactions.
	Workers int
}

// NewImporter creates an importer reading from dir and writing to store.
func NewImporter(dir Dir, store *db.Store, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{dir: dir, store: store, logger: logger, Workers: 4}
}

// ImportSummary counts what each import step wrote.
type ImportSummary struct {
	Derivations map[string]int
	Inflections map[string]int
	Etymology   int
	// Missing lists "<language>/<dataset>" pairs with no file in the data directory.
	Missing []string
}

// Import copies derivations and inflections for each language, and the
// etymology dataset when withEtymology is set. An empty languages slice means
// every supported language. Missing files are recorded, not fatal; any other
// error cancels the remaining work.
func (im *Importer) Import(ctx context.Context, languages []string, withEtymology bool) (ImportSummary, error) {
	if len(languages) == 0 {
		languages = crosstem.LanguageCodes()
	}
	for _, code := range languages {
		if !crosstem.IsSupported(code) {
			return ImportSummary{}, fmt.Errorf("%w: %s", crosstem.ErrLanguageNotSupported, code)
		}
	}

	summary := ImportSummary{Derivations: map[string]int{}, Inflections: map[string]int{}}
	var mu sync.Mutex
	missing := func(what string) {
		mu.Lock()
		summary.Missing = append(summary.Missing, what)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	if im.Workers > 0 {
		g.SetLimit(im.Workers)
	}
	for _, code := range languages {
		code := code
		g.Go(func() error {
			if !fileExists(im.dir.DerivationsPath(code)) {
				missing(code + "/derivations")
			} else {
				records, err := im.dir.LoadDerivations(gctx, code)
				if err != nil {
					return err
				}
				if err := im.store.ImportDerivations(gctx, code, records); err != nil {
					return err
				}
				mu.Lock()
				summary.Derivations[code] = len(records)
				mu.Unlock()
				im.logger.Info("imported derivations", slog.String("language", code), slog.Int("records", len(records)))
			}

			if !fileExists(im.dir.InflectionsPath(code)) {
				missing(code + "/inflections")
			} else {
				entries, err := im.dir.LoadInflections(gctx, code)
				if err != nil {
					return err
				}
				if err := im.store.ImportInflections(gctx, code, entries); err != nil {
					return err
				}
				mu.Lock()
				summary.Inflections[code] = len(entries)
				mu.Unlock()
				im.logger.Info("imported inflections", slog.String("language", code), slog.Int("entries", len(entries)))
			}
			return nil
		})
	}
	if withEtymology {
		g.Go(func() error {
			if !fileExists(im.dir.EtymologyPath()) {
				missing("etymology")
				return nil
			}
			records, err := im.dir.LoadEtymology(gctx)
			if err != nil {
				return err
			}
			if err := im.store.ImportEtymology(gctx, records); err != nil {
				return err
			}
			mu.Lock()
			summary.Etymology = len(records)
			mu.Unlock()
			im.logger.Info("imported etymology", slog.Int("records", len(records)))
			return nil
		})
	}
	err := g.Wait()
	sort.Strings(summary.Missing)
	return summary, err
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
