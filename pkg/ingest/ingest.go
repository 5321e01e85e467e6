// Package ingest stems the words of a corpus document and records word,
// root and occurrence counts per source in the database.
package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/japaniel/crosstem/pkg/corpus"
	"github.com/japaniel/crosstem/pkg/crosstem"
	"github.com/japaniel/crosstem/pkg/db"
)

// Stemmer maps a word to its root. *derivation.Stemmer satisfies it.
type Stemmer interface {
	Language() string
	Stem(word string) string
}

// Pool abstracts the worker pool so tests can inject failing implementations.
type Pool interface {
	Start(ctx context.Context)
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Ingester writes the stemmed words of a document into the database.
type Ingester struct {
	DB      *sql.DB
	Stemmer Stemmer
	// BatchSize is the number of sentences committed per transaction.
	BatchSize     int
	FlushInterval time.Duration
	Workers       int
	// Logger receives resume and progress messages. nil means slog.Default().
	Logger *slog.Logger
	// OnProgress is called with the number of sentences written so far.
	OnProgress func(current, total int)

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) Pool
}

// NewIngester creates an Ingester with default batching and concurrency.
func NewIngester(conn *sql.DB, stemmer Stemmer) *Ingester {
	return &Ingester{
		DB:            conn,
		Stemmer:       stemmer,
		BatchSize:     50,
		FlushInterval: 100 * time.Millisecond,
		Workers:       4,
	}
}

type wordCount struct {
	Word  string
	Root  string
	Count int
}

type stemmedSentence struct {
	Index int
	Text  string
	Words []wordCount
}

func (ig *Ingester) logger() *slog.Logger {
	if ig.Logger != nil {
		return ig.Logger
	}
	return slog.Default()
}

func (ig *Ingester) newPool() Pool {
	if ig.PoolFactory != nil {
		return ig.PoolFactory(ig.Workers, ig.Workers*2)
	}
	return NewWorkerPool(ig.Workers, ig.Workers*2)
}

// Ingest stems sentences and links their words to sourceID. Work resumes
// after the source's last checkpoint; every written sentence advances the
// checkpoint in the same transaction as its words. It returns the number of
// word occurrences recorded.
func (ig *Ingester) Ingest(ctx context.Context, sourceID int64, sentences []corpus.Sentence) (int, error) {
	if ig.Stemmer == nil {
		return 0, fmt.Errorf("%w: ingester has no stemmer", crosstem.ErrInvalidConfig)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	log := ig.logger().With(slog.Int64("source", sourceID), slog.String("language", ig.Stemmer.Language()))

	last, err := db.GetSourceProgress(ig.DB, sourceID)
	if err != nil {
		log.Warn("could not read progress, starting over", slog.Any("error", err))
		last = -1
	}
	start := last + 1
	if start >= len(sentences) {
		log.Info("source already ingested", slog.Int("sentences", len(sentences)))
		return 0, nil
	}
	if start > 0 {
		log.Info("resuming", slog.Int("from", start), slog.Int("total", len(sentences)))
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := ig.newPool()
	pool.Start(runCtx)
	results := make(chan stemmedSentence, ig.Workers*2)
	bw := NewBatchWriter(ig.DB, ig.BatchSize, ig.FlushInterval)

	var links atomic.Int64
	consumerDone := make(chan error, 1)
	go func() {
		err := ig.consume(sourceID, start, len(sentences), results, bw, &links)
		if err != nil {
			cancel()
		}
		consumerDone <- err
	}()

	var submitErr error
	for i := start; i < len(sentences); i++ {
		idx, sent := i, sentences[i]
		err := pool.SubmitCtx(runCtx, func(ctx context.Context) error {
			res := ig.stemSentence(idx, sent)
			select {
			case results <- res:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			submitErr = err
			cancel()
			break
		}
	}

	// Workers are gone after Close, so nothing sends on results any more.
	pool.Close()
	close(results)
	consumerErr := <-consumerDone
	closeErr := bw.Close()

	n := int(links.Load())
	switch {
	case ctx.Err() != nil:
		return n, ctx.Err()
	case consumerErr != nil:
		return n, consumerErr
	case closeErr != nil:
		return n, closeErr
	case submitErr != nil:
		return n, submitErr
	}
	log.Info("ingested", slog.Int("sentences", len(sentences)-start), slog.Int("occurrences", n))
	return n, nil
}

// consume reorders stemmed sentences by index and submits each to the batch
// writer once every earlier sentence has been submitted.
func (ig *Ingester) consume(sourceID int64, next, total int, results <-chan stemmedSentence, bw *BatchWriter, links *atomic.Int64) error {
	language := ig.Stemmer.Language()
	step := max(ig.BatchSize, 1)
	pending := make(map[int]stemmedSentence)
	for res := range results {
		pending[res.Index] = res
		for {
			item, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			err := bw.Submit(func(_ context.Context, tx *sql.Tx) error {
				for _, w := range item.Words {
					wordID, err := db.CreateOrGetWord(tx, w.Word, w.Root, language)
					if err != nil {
						return fmt.Errorf("persist word %s: %w", w.Word, err)
					}
					occ := db.Occurrence{WordID: wordID, SourceID: sourceID, Sentence: item.Text, Count: w.Count}
					if err := db.RecordOccurrence(tx, occ); err != nil {
						return fmt.Errorf("record %s: %w", w.Word, err)
					}
					links.Add(int64(w.Count))
				}
				if err := db.UpdateSourceProgress(tx, sourceID, item.Index); err != nil {
					return fmt.Errorf("save progress: %w", err)
				}
				return nil
			})
			if err != nil {
				return err
			}
			next++
			if ig.OnProgress != nil && (next%step == 0 || next == total) {
				ig.OnProgress(next, total)
			}
		}
	}
	return nil
}

// stemSentence counts the normalized words of a sentence in first-seen order
// and stems each distinct word once.
func (ig *Ingester) stemSentence(index int, sentence corpus.Sentence) stemmedSentence {
	counts := make(map[string]int)
	var order []string
	for _, w := range sentence.Words {
		key := crosstem.Normalize(w)
		if key == "" {
			continue
		}
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}
	words := make([]wordCount, 0, len(order))
	for _, w := range order {
		words = append(words, wordCount{Word: w, Root: ig.Stemmer.Stem(w), Count: counts[w]})
	}
	return stemmedSentence{Index: index, Text: sentence.Text, Words: words}
}
