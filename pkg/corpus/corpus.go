// Package corpus turns web articles and plain text into sentences and word
// tokens for stemming. It does no tagging: a word is a run of letters.
package corpus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-shiori/go-readability"
)

// MaxBodySize caps how much of a fetched page is read.
const MaxBodySize = 10 * 1024 * 1024

// Document is the readable part of an article.
type Document struct {
	Title    string
	Byline   string
	SiteName string
	URL      string
	Text     string
}

// Sentence is one sentence of a document with the words it contains.
type Sentence struct {
	Text  string
	Words []string
}

// DefaultClient is used by Fetch when no client is given.
var DefaultClient = &http.Client{Timeout: 30 * time.Second}

var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"Referer":                   "https://www.google.com/",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Upgrade-Insecure-Requests": "1",
}

// Fetch downloads rawURL and extracts its article text. Pages that answer
// with anything but 200, or that exceed MaxBodySize, are errors.
func Fetch(ctx context.Context, client *http.Client, rawURL string) (Document, error) {
	if client == nil {
		client = DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Document{}, fmt.Errorf("create request: %w", err)
	}
	// Some sites block the default Go user agent.
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Document{}, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}
	if resp.ContentLength > MaxBodySize {
		return Document{}, fmt.Errorf("fetch %s: content length %d exceeds %d bytes", rawURL, resp.ContentLength, MaxBodySize)
	}
	// Read one byte past the cap to tell a full page from a truncated one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return Document{}, fmt.Errorf("read body: %w", err)
	}
	if len(body) > MaxBodySize {
		return Document{}, fmt.Errorf("fetch %s: body exceeds %d bytes", rawURL, MaxBodySize)
	}
	return FromHTML(bytes.NewReader(body), rawURL)
}

var (
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// FromHTML extracts the article from an HTML page. rawURL resolves relative
// links and may be empty.
func FromHTML(r io.Reader, rawURL string) (Document, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Document{}, err
	}
	// Ruby annotations would otherwise be glued onto the base text.
	content = reRT.ReplaceAll(content, nil)
	content = reRP.ReplaceAll(content, nil)

	var pageURL *url.URL
	if rawURL != "" {
		if pageURL, err = url.Parse(rawURL); err != nil {
			return Document{}, fmt.Errorf("parse url: %w", err)
		}
	}
	article, err := readability.FromReader(bytes.NewReader(content), pageURL)
	if err != nil {
		return Document{}, fmt.Errorf("extract article: %w", err)
	}
	return Document{
		Title:    article.Title,
		Byline:   article.Byline,
		SiteName: article.SiteName,
		URL:      rawURL,
		Text:     article.TextContent,
	}, nil
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？', '\n':
		return true
	}
	return false
}

// SplitSentences cuts text after every sentence terminator or newline. The
// terminator stays with its sentence; blank pieces are dropped.
func SplitSentences(text string) []string {
	var out []string
	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			out = append(out, s)
		}
		current.Reset()
	}
	for _, r := range text {
		current.WriteRune(r)
		if isSentenceEnd(r) {
			flush()
		}
	}
	flush()
	return out
}

// Words returns the runs of letters in s, in order. An apostrophe or hyphen
// between two letters joins them ("don't", "well-known").
func Words(s string) []string {
	var out []string
	runes := []rune(s)
	start := -1
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.Is(unicode.Mn, r):
			if start < 0 {
				start = i
			}
		case start >= 0 && (r == '\'' || r == '’' || r == '-') &&
			i+1 < len(runes) && unicode.IsLetter(runes[i+1]):
		default:
			if start >= 0 {
				out = append(out, string(runes[start:i]))
				start = -1
			}
		}
	}
	if start >= 0 {
		out = append(out, string(runes[start:]))
	}
	return out
}

// Segment splits text into sentences and tokenizes each one. Sentences
// without words are dropped.
func Segment(text string) []Sentence {
	var out []Sentence
	for _, s := range SplitSentences(text) {
		words := Words(s)
		if len(words) == 0 {
			continue
		}
		out = append(out, Sentence{Text: s, Words: words})
	}
	return out
}
