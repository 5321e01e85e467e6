package corpus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHTML(t *testing.T) {
	f, err := os.Open("testdata/article.html")
	require.NoError(t, err)
	defer f.Close()

	doc, err := FromHTML(f, "http://localhost/article")
	require.NoError(t, err)
	assert.Contains(t, doc.Title, "Organizations Organize")
	assert.Contains(t, doc.Text, "Every organization needs an organizer")
	assert.NotContains(t, doc.Text, "Copyright notice")
	assert.Equal(t, "http://localhost/article", doc.URL)
}

func TestFromHTMLDropsRubyAnnotations(t *testing.T) {
	page := `<html><body><article><p>` + strings.Repeat("Filler sentence for the extractor. ", 20) +
		`The word <ruby>漢字<rp>(</rp><rt>かんじ</rt><rp>)</rp></ruby> appears once.</p></article></body></html>`
	doc, err := FromHTML(strings.NewReader(page), "")
	require.NoError(t, err)
	assert.Contains(t, doc.Text, "漢字")
	assert.NotContains(t, doc.Text, "かんじ")
}

func TestFetch(t *testing.T) {
	page, err := os.ReadFile("testdata/article.html")
	require.NoError(t, err)

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/article":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(page)
		default:
			http.Error(w, "blocked", http.StatusForbidden)
		}
	}))
	defer srv.Close()

	doc, err := Fetch(context.Background(), srv.Client(), srv.URL+"/article")
	require.NoError(t, err)
	assert.Contains(t, doc.Title, "Organizations")
	assert.Contains(t, gotUA, "Mozilla/5.0")

	_, err = Fetch(context.Background(), srv.Client(), srv.URL+"/forbidden")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestFetchRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No Content-Length, so the size is only known while reading.
		chunk := []byte(strings.Repeat("a", 1<<20))
		for i := 0; i <= MaxBodySize>>20; i++ {
			w.Write(chunk)
		}
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.Client(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"latin", "One. Two! Three? Four", []string{"One.", "Two!", "Three?", "Four"}},
		{"newlines", "first line\n\nsecond line\n", []string{"first line", "second line"}},
		{"cjk", "猫です。犬！本当？", []string{"猫です。", "犬！", "本当？"}},
		{"empty", "  \n ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSentences(tt.in))
		})
	}
}

func TestWords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"The organizer's well-known plan, v2.", []string{"The", "organizer's", "well-known", "plan", "v"}},
		{"Größe über Ärger", []string{"Größe", "über", "Ärger"}},
		{"rock 'n' roll -- again-", []string{"rock", "n", "roll", "again"}},
		{"123 456", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Words(tt.in), tt.in)
	}
}

func TestSegment(t *testing.T) {
	got := Segment("Runners run. 42! Walkers walk.")
	require.Len(t, got, 2)
	assert.Equal(t, Sentence{Text: "Runners run.", Words: []string{"Runners", "run"}}, got[0])
	assert.Equal(t, []string{"Walkers", "walk"}, got[1].Words)
}
