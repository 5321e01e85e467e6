package db

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DBExecutor is satisfied by both *sql.DB and *sql.Tx.
type DBExecutor interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// CreateOrGetWord returns the id of word in language, inserting it when
// missing. A non-empty root replaces the stored one.
func CreateOrGetWord(db DBExecutor, word, root, language string) (int64, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return 0, errors.New("word must be non-empty")
	}
	var id int64
	err := db.QueryRow(`
		INSERT INTO words (word, root, language) VALUES (?, ?, ?)
		ON CONFLICT(word, language) DO UPDATE SET
		  root = COALESCE(NULLIF(excluded.root, ''), words.root)
		RETURNING id`, word, root, language).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert word %q: %w", word, err)
	}
	return id, nil
}

// GetWordsBySource lists the words seen in a source in insertion order.
func GetWordsBySource(db DBExecutor, sourceID int64) ([]Word, error) {
	rows, err := db.Query(`
		SELECT w.id, w.word, w.root, w.language
		FROM words w JOIN word_sources ws ON ws.word_id = w.id
		WHERE ws.source_id = ?
		ORDER BY w.id`, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Word
	for rows.Next() {
		var w Word
		if err := rows.Scan(&w.ID, &w.Word, &w.Root, &w.Language); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// GetRootFrequencies sums occurrence counts per root for a source, most
// frequent first. Words without a root count under their own form.
func GetRootFrequencies(db DBExecutor, sourceID int64) ([]RootFrequency, error) {
	rows, err := db.Query(`
		SELECT CASE WHEN w.root = '' THEN w.word ELSE w.root END AS r, w.word, ws.occurrence_count
		FROM word_sources ws JOIN words w ON w.id = ws.word_id
		WHERE ws.source_id = ?
		ORDER BY r, w.word`, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RootFrequency
	index := map[string]int{}
	for rows.Next() {
		var root, word string
		var count int
		if err := rows.Scan(&root, &word, &count); err != nil {
			return nil, err
		}
		i, ok := index[root]
		if !ok {
			i = len(out)
			index[root] = i
			out = append(out, RootFrequency{Root: root})
		}
		out[i].Occurrences += count
		out[i].Words = append(out[i].Words, word)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Occurrences > out[j].Occurrences })
	return out, nil
}
