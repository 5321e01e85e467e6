package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/japaniel/crosstem/pkg/corpus"
	"github.com/japaniel/crosstem/pkg/db"
)

func generateBenchmarkSentences(n int) []corpus.Sentence {
	sentences := make([]corpus.Sentence, 0, n)
	for i := 0; i < n; i++ {
		text := fmt.Sprintf("The organizers organized %d organizational meetings for runners and walkers.", i)
		sentences = append(sentences, corpus.Sentence{Text: text, Words: corpus.Words(text)})
	}
	return sentences
}

func benchmarkIngest(b *testing.B, workers int, sentences []corpus.Sentence) {
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		conn := setupDB(b)
		// Focus on application throughput rather than durability.
		_, _ = conn.Exec("PRAGMA synchronous = OFF")

		sourceID, err := db.CreateOrGetSource(conn, db.Source{SourceType: "test", Title: fmt.Sprintf("bench_%d_%d", workers, i), URL: "http://bench"})
		if err != nil {
			conn.Close()
			b.Fatalf("CreateOrGetSource failed: %v", err)
		}
		ingester := NewIngester(conn, suffixStemmer{})
		ingester.Workers = workers
		ingester.BatchSize = 100
		b.StartTimer()

		_, err = ingester.Ingest(context.Background(), sourceID, sentences)
		b.StopTimer()
		conn.Close()
		if err != nil {
			b.Fatalf("Ingest failed: %v", err)
		}
	}
}

func BenchmarkIngest(b *testing.B) {
	benchmarkIngest(b, 4, generateBenchmarkSentences(1000))
}

func BenchmarkIngestConcurrencyScaling(b *testing.B) {
	sentences := generateBenchmarkSentences(1000)
	for _, workers := range []int{1, 2, 4, 8} {
		b.Run(fmt.Sprintf("Workers_%d", workers), func(b *testing.B) {
			benchmarkIngest(b, workers, sentences)
		})
	}
}
