package db

import "time"

// Word is a corpus word form together with its derivational root.
type Word struct {
	ID       int64
	Word     string
	Root     string
	Language string
}

// Source is a document words were ingested from. URL, Title and Author
// together identify it.
type Source struct {
	ID         int64
	SourceType string
	Title      string
	Author     string
	Website    string
	URL        string
	Meta       string
	Progress   int
	AddedAt    time.Time
}

// Occurrence is a batch of sightings of one word in one sentence of a source.
type Occurrence struct {
	WordID   int64
	SourceID int64
	Sentence string
	Count    int
}

// WordSource is the stored link between a word and a source.
type WordSource struct {
	ID              int64
	WordID          int64
	SourceID        int64
	ContextSentence string
	ExampleSentence string
	Contexts        []string
	OccurrenceCount int
	FirstSeenAt     time.Time
}

type RootFrequency struct {
	Root        string
	Occurrences int
	Words       []string
}
