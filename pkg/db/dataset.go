package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/japaniel/crosstem/pkg/crosstem"
	"github.com/japaniel/crosstem/pkg/derivation"
	"github.com/japaniel/crosstem/pkg/etymology"
	"github.com/japaniel/crosstem/pkg/inflection"
)

// Store serves the datasets kept in SQLite. It implements
// derivation.Source, inflection.Source and etymology.Source.
type Store struct {
	db *sql.DB
}

var (
	_ derivation.Source = (*Store)(nil)
	_ inflection.Source = (*Store)(nil)
	_ etymology.Source  = (*Store)(nil)
)

// NewStore wraps a migrated connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying connection.
func (s *Store) DB() *sql.DB { return s.db }

// replace runs del and then one insert per row inside a single transaction.
func (s *Store) replace(ctx context.Context, del string, delArgs []any, insert string, n int, row func(i int) []any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, del, delArgs...); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, row(i)...); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// ImportDerivations replaces language's relation list.
func (s *Store) ImportDerivations(ctx context.Context, language string, records []derivation.Record) error {
	err := s.replace(ctx,
		`DELETE FROM derivations WHERE language = ?`, []any{language},
		`INSERT INTO derivations (language, seq, source_word, target_word, source_pos, target_pos, affix, affix_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		len(records), func(i int) []any {
			r := records[i]
			return []any{language, i, r.SourceWord, r.TargetWord, r.SourcePOS, r.TargetPOS, r.Affix, string(r.AffixType)}
		})
	if err != nil {
		return fmt.Errorf("import derivations %s: %w", language, err)
	}
	return nil
}

// LoadDerivations returns language's relation list in import order.
func (s *Store) LoadDerivations(ctx context.Context, language string) ([]derivation.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_word, target_word, source_pos, target_pos, affix, affix_type
		 FROM derivations WHERE language = ? ORDER BY seq`, language)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []derivation.Record
	for rows.Next() {
		var r derivation.Record
		var affixType string
		if err := rows.Scan(&r.SourceWord, &r.TargetWord, &r.SourcePOS, &r.TargetPOS, &r.Affix, &affixType); err != nil {
			return nil, err
		}
		r.AffixType = derivation.AffixType(affixType)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no derivations for %s in database", crosstem.ErrDataNotFound, language)
	}
	return out, nil
}

// ImportInflections replaces language's inflection rows.
func (s *Store) ImportInflections(ctx context.Context, language string, entries []inflection.Entry) error {
	err := s.replace(ctx,
		`DELETE FROM inflections WHERE language = ?`, []any{language},
		`INSERT INTO inflections (language, seq, lemma, form, pos, features, segmentation)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		len(entries), func(i int) []any {
			e := entries[i]
			return []any{language, i, e.Lemma, e.Form, e.POS, e.Features, e.Segmentation}
		})
	if err != nil {
		return fmt.Errorf("import inflections %s: %w", language, err)
	}
	return nil
}

// LoadInflections returns language's inflection rows in import order.
func (s *Store) LoadInflections(ctx context.Context, language string) ([]inflection.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lemma, form, pos, features, segmentation
		 FROM inflections WHERE language = ? ORDER BY seq`, language)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []inflection.Entry
	for rows.Next() {
		var e inflection.Entry
		if err := rows.Scan(&e.Lemma, &e.Form, &e.POS, &e.Features, &e.Segmentation); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no inflections for %s in database", crosstem.ErrDataNotFound, language)
	}
	return out, nil
}

// ImportEtymology replaces the etymology dataset.
func (s *Store) ImportEtymology(ctx context.Context, records []etymology.Record) error {
	err := s.replace(ctx,
		`DELETE FROM etymology`, nil,
		`INSERT INTO etymology (seq, term_id, lang, term, reltype, related_term_id, related_lang, related_term,
		                        position, group_tag, parent_tag, parent_position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		len(records), func(i int) []any {
			r := records[i]
			return []any{i, r.TermID, r.Lang, r.Term, r.RelType, r.RelatedTermID, r.RelatedLang, r.RelatedTerm,
				r.Position, r.GroupTag, r.ParentTag, r.ParentPosition}
		})
	if err != nil {
		return fmt.Errorf("import etymology: %w", err)
	}
	return nil
}

// LoadEtymology returns the etymology dataset in import order.
func (s *Store) LoadEtymology(ctx context.Context) ([]etymology.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT term_id, lang, term, reltype, related_term_id, related_lang, related_term,
		        position, group_tag, parent_tag, parent_position
		 FROM etymology ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []etymology.Record
	for rows.Next() {
		var r etymology.Record
		if err := rows.Scan(&r.TermID, &r.Lang, &r.Term, &r.RelType, &r.RelatedTermID, &r.RelatedLang,
			&r.RelatedTerm, &r.Position, &r.GroupTag, &r.ParentTag, &r.ParentPosition); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no etymology in database", crosstem.ErrDataNotFound)
	}
	return out, nil
}

// Languages lists the languages with derivations in the database.
func (s *Store) Languages(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT language FROM derivations ORDER BY language`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		out = append(out, code)
	}
	return out, rows.Err()
}
