package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/japaniel/crosstem/pkg/corpus"
	"github.com/japaniel/crosstem/pkg/crosstem"
	"github.com/japaniel/crosstem/pkg/db"
	"github.com/japaniel/crosstem/pkg/ingest"
)

func (a *app) corpusCmd() *cobra.Command {
	var (
		pageURL     string
		file        string
		metricsAddr string
		top         int
	)
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Stem every word of an article or text file and record root frequencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (pageURL == "") == (file == "") {
				return fmt.Errorf("%w: give exactly one of --url or --file", crosstem.ErrInvalidConfig)
			}
			ctx := cmd.Context()
			conn, err := a.database()
			if err != nil {
				return err
			}
			if metricsAddr != "" {
				stop := serveMetrics(metricsAddr, a.logger)
				defer stop()
			}

			doc, sourceType, err := loadDocument(ctx, pageURL, file)
			if err != nil {
				return err
			}
			sourceID, err := db.CreateOrGetSource(conn, db.Source{
				SourceType: sourceType,
				Title:      doc.Title,
				Author:     doc.Byline,
				Website:    doc.SiteName,
				URL:        doc.URL,
			})
			if err != nil {
				return err
			}
			sentences := corpus.Segment(doc.Text)
			a.logger.Info("document loaded",
				slog.String("title", doc.Title),
				slog.Int64("source", sourceID),
				slog.Int("sentences", len(sentences)))

			stemmer, closeStemmer, err := a.corpusStemmer(ctx)
			if err != nil {
				return err
			}
			defer closeStemmer()

			ig := ingest.NewIngester(conn, stemmer)
			ig.Logger = a.logger
			if a.cfg.Workers > 0 {
				ig.Workers = a.cfg.Workers
			}
			if a.cfg.BatchSize > 0 {
				ig.BatchSize = a.cfg.BatchSize
			}
			n, err := ig.Ingest(ctx, sourceID, sentences)
			if err != nil {
				return err
			}

			freqs, err := db.GetRootFrequencies(conn, sourceID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d new occurrences, %d roots\n", doc.Title, n, len(freqs))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for i, f := range freqs {
				if top > 0 && i >= top {
					break
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\n", f.Root, f.Occurrences, strings.Join(f.Words, ", "))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&pageURL, "url", "", "article to fetch")
	cmd.Flags().StringVar(&file, "file", "", "local .html or plain text file")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while ingesting")
	cmd.Flags().IntVar(&top, "top", 20, "number of roots to print (0 for all)")
	return cmd
}

func loadDocument(ctx context.Context, pageURL, file string) (corpus.Document, string, error) {
	if pageURL != "" {
		doc, err := corpus.Fetch(ctx, nil, pageURL)
		return doc, "website_article", err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return corpus.Document{}, "", err
	}
	switch strings.ToLower(filepath.Ext(file)) {
	case ".html", ".htm":
		doc, err := corpus.FromHTML(bytes.NewReader(data), "")
		if doc.Title == "" {
			doc.Title = filepath.Base(file)
		}
		return doc, "file", err
	}
	return corpus.Document{Title: filepath.Base(file), Text: string(data)}, "file", nil
}

// corpusStemmer prefers lemma-then-root stemming and falls back to the
// derivational stemmer when no inflection data is available.
func (a *app) corpusStemmer(ctx context.Context) (ingest.Stemmer, func(), error) {
	an, err := a.analyzer(ctx, false)
	if err == nil {
		return an.FullStemmer(), an.Close, nil
	}
	if !errors.Is(err, crosstem.ErrDataNotFound) {
		return nil, nil, err
	}
	a.logger.Warn("no inflection data, stemming without lemmatization", slog.Any("error", err))
	s, err := a.stemmer(ctx)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}

func serveMetrics(addr string, logger *slog.Logger) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	logger.Info("serving metrics", slog.String("addr", addr))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
