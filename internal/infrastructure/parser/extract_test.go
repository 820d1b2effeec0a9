package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsRelay/internal/domain"
)

var storyParagraphs = []string{
	"The central bank held interest rates steady on Thursday afternoon.",
	"Officials said inflation was easing faster than they had expected.",
	"Markets rallied after the announcement, with shares closing higher.",
	"Analysts now expect the first cut to arrive early next year instead.",
	"The decision was backed by seven of the nine committee members.",
	"Two members voted for an immediate reduction of a quarter point.",
}

func storyPage() string {
	var b strings.Builder
	b.WriteString(`<html><head><title>ignored</title></head><body>`)
	b.WriteString(`<h1 data-testid="headline">  Rates held   steady </h1>`)
	b.WriteString(`<p>Short caption</p>`)
	for _, p := range storyParagraphs {
		fmt.Fprintf(&b, `<div data-component="text-block"><p>%s</p></div>`, p)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func newStoryServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /news/private/\n")
	})
	mux.HandleFunc("/news/world/story-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, storyPage())
	})
	mux.HandleFunc("/news/private/story-2", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, storyPage())
	})
	mux.HandleFunc("/sport/short", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><h1>Tiny</h1><p>Not much to read here at all.</p></body></html>`)
	})
	mux.HandleFunc("/culture/latin1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=windows-1252")
		_, _ = w.Write([]byte("<html><body><h1>Caf\xe9 culture</h1></body></html>"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTMLExtractorExtract(t *testing.T) {
	t.Parallel()

	srv := newStoryServer(t)
	fetcher := NewFetcher(nil, "NewsRelayTest/1.0", 5*time.Second)
	extractor := NewHTMLExtractor(fetcher, nil, testProfile(srv.URL), ExtractorOptions{})
	fixed := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	extractor.now = func() time.Time { return fixed }

	article, err := extractor.Extract(context.Background(), srv.URL+"/news/world/story-1")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/news/world/story-1", article.URL)
	assert.Equal(t, "Rates held steady", article.Title)
	assert.Equal(t, "world", article.Category)
	assert.Equal(t, fixed, article.ExtractedAt)
	assert.Equal(t, strings.Join(storyParagraphs, " "), article.Content)
	assert.Equal(t, len(strings.Fields(strings.Join(storyParagraphs, " "))), article.WordCount)
	assert.NotContains(t, article.Content, "Short caption")
}

func TestHTMLExtractorTruncatesContent(t *testing.T) {
	t.Parallel()

	srv := newStoryServer(t)
	fetcher := NewFetcher(nil, "", 5*time.Second)
	extractor := NewHTMLExtractor(fetcher, nil, testProfile(srv.URL), ExtractorOptions{MaxContentLen: 120})

	article, err := extractor.Extract(context.Background(), srv.URL+"/news/world/story-1")
	require.NoError(t, err)

	assert.Equal(t, 120, utf8.RuneCountInString(article.Content))
	assert.Greater(t, article.WordCount, len(strings.Fields(article.Content)))
}

func TestHTMLExtractorFailures(t *testing.T) {
	t.Parallel()

	srv := newStoryServer(t)
	fetcher := NewFetcher(nil, "NewsRelayTest/1.0", 5*time.Second)
	robots := NewRobotsGate(nil, "NewsRelayTest")
	extractor := NewHTMLExtractor(fetcher, robots, testProfile(srv.URL), ExtractorOptions{})

	tests := []struct {
		name string
		path string
		want domain.Reason
	}{
		{name: "too short", path: "/sport/short", want: domain.ReasonTooShort},
		{name: "missing page", path: "/news/gone", want: domain.ReasonFetch},
		{name: "robots", path: "/news/private/story-2", want: domain.ReasonRobotsBlocked},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := extractor.Extract(context.Background(), srv.URL+tc.path)
			require.Error(t, err)
			assert.Equal(t, tc.want, domain.ReasonOf(err))
		})
	}

	_, err := extractor.Extract(context.Background(), srv.URL+"/news/world/story-1")
	assert.NoError(t, err)
}

func TestFetcherDecodesDeclaredCharset(t *testing.T) {
	t.Parallel()

	srv := newStoryServer(t)
	fetcher := NewFetcher(nil, "", 5*time.Second)

	body, err := fetcher.Get(context.Background(), srv.URL+"/culture/latin1")
	require.NoError(t, err)
	assert.Contains(t, string(body), "Café culture")
}

func TestReadabilityText(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString(`<html><head><title>Long read</title></head><body><nav><a href="/">Home</a></nav><article>`)
	for _, p := range storyParagraphs {
		fmt.Fprintf(&b, "<p>%s %s</p>", p, p)
	}
	b.WriteString(`</article><footer>Copyright</footer></body></html>`)

	text, err := readabilityText([]byte(b.String()), "https://www.bbc.com/news/articles/long")
	require.NoError(t, err)
	assert.Contains(t, text, storyParagraphs[0])
	assert.Contains(t, text, storyParagraphs[5])
}
