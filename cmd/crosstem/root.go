package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/japaniel/crosstem/pkg/analyzer"
	"github.com/japaniel/crosstem/pkg/crosstem"
	"github.com/japaniel/crosstem/pkg/db"
	"github.com/japaniel/crosstem/pkg/derivation"
	"github.com/japaniel/crosstem/pkg/dictionary"
	"github.com/japaniel/crosstem/pkg/etymology"
	"github.com/japaniel/crosstem/pkg/inflection"
)

// dataSource is what every lookup command reads from: a data directory or
// a database.
type dataSource interface {
	analyzer.Source
	etymology.Source
}

// app holds the state shared by all commands of one invocation.
type app struct {
	configPath string
	dataDir    string
	dbPath     string
	language   string
	logLevel   string
	logJSON    bool

	cfg    crosstem.Config
	logger *slog.Logger
	conn   *sql.DB
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "crosstem",
		Short: "Cross-part-of-speech derivational stemming",
		Long: `crosstem reduces words to their derivational root across parts of speech
(organization, organizer, organizational → organize) using MorphyNet data,
and adds inflectional lemmas and cross-lingual etymology on top.`,
		Version:           crosstem.Version(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", crosstem.DefaultConfigPath(), "config file")
	f.StringVar(&a.dataDir, "data-dir", "", "directory holding <lang>_derivations.json, <lang>_inflections.json and etymology.json")
	f.StringVar(&a.dbPath, "db", "", "SQLite database to read language data from and write corpora to")
	f.StringVarP(&a.language, "lang", "l", "", "ISO 639-3 language code")
	f.StringVar(&a.logLevel, "log-level", "info", "debug, info, warn or error")
	f.BoolVar(&a.logJSON, "log-json", false, "log as JSON")

	root.AddCommand(
		a.stemCmd(),
		a.familyCmd(),
		a.derivationsCmd(),
		a.relatedCmd(),
		a.analyzeCmd(),
		a.etymologyCmd(),
		a.languagesCmd(),
		a.compareCmd(),
		a.preprocessCmd(),
		a.importCmd(),
		a.downloadCmd(),
		a.corpusCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.logLevel)); err != nil {
		return fmt.Errorf("%w: log level %q", crosstem.ErrInvalidConfig, a.logLevel)
	}
	a.logger = newLogger(cmd.ErrOrStderr(), level, a.logJSON)
	slog.SetDefault(a.logger)

	cfg, err := crosstem.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	if a.dbPath != "" {
		cfg.Database = a.dbPath
	}
	if a.language != "" {
		cfg.Language = a.language
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger.Debug("configuration loaded",
		slog.String("config", a.configPath),
		slog.String("data_dir", cfg.DataDir),
		slog.String("database", cfg.Database),
		slog.String("language", cfg.Language))
	return nil
}

func newLogger(w io.Writer, level slog.Level, asJSON bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if asJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (a *app) close() {
	if a.conn != nil {
		a.conn.Close()
		a.conn = nil
	}
}

// database opens the configured database once per invocation.
func (a *app) database() (*sql.DB, error) {
	if a.conn != nil {
		return a.conn, nil
	}
	if a.cfg.Database == "" {
		return nil, fmt.Errorf("%w: no database configured (use --db)", crosstem.ErrInvalidConfig)
	}
	conn, err := db.Open(a.cfg.Database)
	if err != nil {
		return nil, err
	}
	a.conn = conn
	return conn, nil
}

// source returns the database layered over the data directory when a
// database is configured, else the data directory alone.
func (a *app) source() (dataSource, error) {
	if a.cfg.Database != "" {
		conn, err := a.database()
		if err != nil {
			return nil, err
		}
		return layeredSource{store: db.NewStore(conn), dir: a.dir()}, nil
	}
	return a.dir(), nil
}

// layeredSource reads from the database and falls back to the data
// directory for datasets the database does not hold.
type layeredSource struct {
	store *db.Store
	dir   dictionary.Dir
}

func (s layeredSource) LoadDerivations(ctx context.Context, language string) ([]derivation.Record, error) {
	r, err := s.store.LoadDerivations(ctx, language)
	if errors.Is(err, crosstem.ErrDataNotFound) {
		return s.dir.LoadDerivations(ctx, language)
	}
	return r, err
}

func (s layeredSource) LoadInflections(ctx context.Context, language string) ([]inflection.Entry, error) {
	e, err := s.store.LoadInflections(ctx, language)
	if errors.Is(err, crosstem.ErrDataNotFound) {
		return s.dir.LoadInflections(ctx, language)
	}
	return e, err
}

func (s layeredSource) LoadEtymology(ctx context.Context) ([]etymology.Record, error) {
	r, err := s.store.LoadEtymology(ctx)
	if errors.Is(err, crosstem.ErrDataNotFound) {
		return s.dir.LoadEtymology(ctx)
	}
	return r, err
}

func (a *app) dir() dictionary.Dir {
	return dictionary.Dir{Path: a.cfg.DataDir}
}

func (a *app) stemmerOptions() []derivation.Option {
	opts := []derivation.Option{
		derivation.WithThresholdsFunc(a.cfg.ThresholdsFor),
		derivation.WithLogger(a.logger),
	}
	if a.cfg.CacheSize > 0 {
		opts = append(opts, derivation.WithCache(int64(a.cfg.CacheSize)))
	}
	return opts
}

func (a *app) stemmer(ctx context.Context, opts ...derivation.Option) (*derivation.Stemmer, error) {
	src, err := a.source()
	if err != nil {
		return nil, err
	}
	return derivation.New(ctx, a.cfg.Language, src, append(a.stemmerOptions(), opts...)...)
}

// linker loads etymology data. Missing data yields a nil linker when
// optional is set.
func (a *app) linker(ctx context.Context, optional bool) (*etymology.Linker, error) {
	src, err := a.source()
	if err != nil {
		return nil, err
	}
	l, err := etymology.New(ctx, src, a.logger)
	if err != nil && optional && errors.Is(err, crosstem.ErrDataNotFound) {
		a.logger.Debug("etymology unavailable", slog.Any("error", err))
		return nil, nil
	}
	return l, err
}

func (a *app) analyzer(ctx context.Context, withEtymology bool) (*analyzer.Analyzer, error) {
	src, err := a.source()
	if err != nil {
		return nil, err
	}
	opts := []analyzer.Option{
		analyzer.WithStemmerOptions(a.stemmerOptions()...),
		analyzer.WithLogger(a.logger),
	}
	if withEtymology {
		l, err := a.linker(ctx, true)
		if err != nil {
			return nil, err
		}
		if l != nil {
			opts = append(opts, analyzer.WithEtymology(l))
		}
	}
	return analyzer.New(ctx, a.cfg.Language, src, opts...)
}

func parseLanguages(arg string) []string {
	if arg == "" {
		return nil
	}
	var out []string
	for _, code := range strings.Split(arg, ",") {
		if code = strings.TrimSpace(code); code != "" {
			out = append(out, code)
		}
	}
	return out
}
