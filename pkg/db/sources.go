package db

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxContexts caps the sentences remembered per word and source.
const MaxContexts = 5

// CreateOrGetSource returns the id of the source identified by its URL,
// title and author, inserting it first when no such source exists.
func CreateOrGetSource(db DBExecutor, src Source) (int64, error) {
	kind := strings.TrimSpace(src.SourceType)
	if kind == "" {
		return 0, errors.New("source type must be non-empty")
	}
	// The identity index makes the insert a no-op for known sources.
	if _, err := db.Exec(`
		INSERT INTO sources (source_type, title, author, website, url, meta)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		kind, src.Title, src.Author, src.Website, src.URL, src.Meta); err != nil {
		return 0, fmt.Errorf("insert source: %w", err)
	}
	var id int64
	err := db.QueryRow(`
		SELECT id FROM sources
		WHERE IFNULL(url, '') = ? AND IFNULL(title, '') = ? AND IFNULL(author, '') = ?`,
		src.URL, src.Title, src.Author).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("select source: %w", err)
	}
	return id, nil
}

// GetSource loads a source row by id.
func GetSource(db DBExecutor, id int64) (Source, error) {
	var s Source
	var addedAt *time.Time
	err := db.QueryRow(`
		SELECT id, source_type, IFNULL(title, ''), IFNULL(author, ''), IFNULL(website, ''),
		       IFNULL(url, ''), IFNULL(meta, ''), last_processed_sentence, added_at
		FROM sources WHERE id = ?`, id).
		Scan(&s.ID, &s.SourceType, &s.Title, &s.Author, &s.Website, &s.URL, &s.Meta, &s.Progress, &addedAt)
	if err != nil {
		return Source{}, fmt.Errorf("source %d: %w", id, err)
	}
	if addedAt != nil {
		s.AddedAt = *addedAt
	}
	return s, nil
}

// sentenceID interns text and returns its row id. Blank text has no row and
// yields 0.
func sentenceID(db DBExecutor, text string) (int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}
	var id int64
	err := db.QueryRow(`
		INSERT INTO sentences (text) VALUES (?)
		ON CONFLICT(text) DO UPDATE SET text = excluded.text
		RETURNING id`, text).Scan(&id)
	return id, err
}

// RecordOccurrence adds o.Count sightings of a word to a source. The first
// sentence recorded for the pair stays its example; the latest one becomes
// its context. Up to MaxContexts distinct sentences are kept per pair.
func RecordOccurrence(db DBExecutor, o Occurrence) error {
	switch {
	case o.WordID <= 0:
		return fmt.Errorf("word id must be positive, got %d", o.WordID)
	case o.SourceID <= 0:
		return fmt.Errorf("source id must be positive, got %d", o.SourceID)
	case o.Count < 1:
		return fmt.Errorf("occurrence count must be positive, got %d", o.Count)
	}

	sid, err := sentenceID(db, o.Sentence)
	if err != nil {
		return fmt.Errorf("intern sentence: %w", err)
	}
	var sentence any
	if sid != 0 {
		sentence = sid
	}

	var linkID int64
	err = db.QueryRow(`
		INSERT INTO word_sources (word_id, source_id, context_sentence_id, example_sentence_id, occurrence_count, first_seen_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(word_id, source_id) DO UPDATE SET
		  occurrence_count = word_sources.occurrence_count + excluded.occurrence_count,
		  context_sentence_id = COALESCE(excluded.context_sentence_id, word_sources.context_sentence_id),
		  example_sentence_id = COALESCE(word_sources.example_sentence_id, excluded.example_sentence_id)
		RETURNING id`,
		o.WordID, o.SourceID, sentence, sentence, o.Count, time.Now().UTC()).Scan(&linkID)
	if err != nil {
		return fmt.Errorf("upsert occurrence: %w", err)
	}
	if sid == 0 {
		return nil
	}

	_, err = db.Exec(`
		INSERT INTO word_contexts (word_source_id, sentence_id)
		SELECT ?, ?
		WHERE (SELECT COUNT(*) FROM word_contexts WHERE word_source_id = ?) < ?
		ON CONFLICT DO NOTHING`,
		linkID, sid, linkID, MaxContexts)
	if err != nil {
		return fmt.Errorf("store context: %w", err)
	}
	return nil
}

// GetOccurrence returns the link between a word and a source with its
// sentences resolved.
func GetOccurrence(db DBExecutor, wordID, sourceID int64) (WordSource, error) {
	var ws WordSource
	var firstSeen *time.Time
	err := db.QueryRow(`
		SELECT ws.id, ws.word_id, ws.source_id, IFNULL(c.text, ''), IFNULL(e.text, ''),
		       ws.occurrence_count, ws.first_seen_at
		FROM word_sources ws
		LEFT JOIN sentences c ON c.id = ws.context_sentence_id
		LEFT JOIN sentences e ON e.id = ws.example_sentence_id
		WHERE ws.word_id = ? AND ws.source_id = ?`, wordID, sourceID).
		Scan(&ws.ID, &ws.WordID, &ws.SourceID, &ws.ContextSentence, &ws.ExampleSentence, &ws.OccurrenceCount, &firstSeen)
	if err != nil {
		return WordSource{}, err
	}
	if firstSeen != nil {
		ws.FirstSeenAt = *firstSeen
	}

	rows, err := db.Query(`
		SELECT s.text FROM word_contexts wc JOIN sentences s ON s.id = wc.sentence_id
		WHERE wc.word_source_id = ? ORDER BY s.id`, ws.ID)
	if err != nil {
		return WordSource{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return WordSource{}, err
		}
		ws.Contexts = append(ws.Contexts, text)
	}
	return ws, rows.Err()
}

// GetSourceProgress returns the index of the last sentence ingested from a
// source, or -1 when none has been.
func GetSourceProgress(db DBExecutor, sourceID int64) (int, error) {
	var index int
	err := db.QueryRow(`SELECT last_processed_sentence FROM sources WHERE id = ?`, sourceID).Scan(&index)
	return index, err
}

// UpdateSourceProgress records index as the last sentence ingested.
func UpdateSourceProgress(db DBExecutor, sourceID int64, index int) error {
	res, err := db.Exec(`UPDATE sources SET last_processed_sentence = ? WHERE id = ?`, index, sourceID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("source %d does not exist", sourceID)
	}
	return nil
}
