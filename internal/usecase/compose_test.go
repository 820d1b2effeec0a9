package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/infrastructure/storage"
	"NewsRelay/internal/ports"
)

func TestPrioritize(t *testing.T) {
	t.Parallel()

	articles := []domain.Article{
		{URL: "1", Urgency: domain.UrgencyLow},
		{URL: "2", Urgency: domain.UrgencyHigh},
		{URL: "3", Urgency: domain.UrgencyMedium},
		{URL: "4", Urgency: domain.UrgencyHigh},
	}

	got := Prioritize(articles, 10)
	urgencies := make([]domain.Urgency, len(got))
	urls := make([]string, len(got))
	for i, a := range got {
		urgencies[i] = a.Urgency
		urls[i] = a.URL
	}
	assert.Equal(t, []domain.Urgency{domain.UrgencyHigh, domain.UrgencyHigh, domain.UrgencyMedium, domain.UrgencyLow}, urgencies)
	assert.Equal(t, []string{"2", "4", "3", "1"}, urls)

	assert.Len(t, Prioritize(articles, 2), 2)
	assert.Empty(t, Prioritize(articles, 0))
	assert.Equal(t, "1", articles[0].URL)
}

func TestCleanDraft(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "Tweet: Markets rally", want: "Markets rally"},
		{in: "HERE'S A TWEET: Markets rally", want: "Markets rally"},
		{in: "  Social media post:   \"Markets rally\"  ", want: "Markets rally"},
		{in: `"Quoted once"`, want: "Quoted once"},
		{in: `""Quoted twice""`, want: `"Quoted twice"`},
		{in: `Says "hello" today`, want: `Says "hello" today`},
		{in: "", want: ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CleanDraft(tc.in, domain.PostCharLimit), tc.in)
	}

	long := CleanDraft(strings.Repeat("x", 400), domain.PostCharLimit)
	assert.Equal(t, domain.PostCharLimit, domain.CharCount(long))
	assert.True(t, strings.HasSuffix(long, domain.Ellipsis))
}

func TestParseHashtags(t *testing.T) {
	t.Parallel()

	reply := "Here you go:\n#BreakingNews\n  #Politics  \n#\nUK\n#UK\n#Economy\n#Trade\n#Extra"
	assert.Equal(t, []string{"#BreakingNews", "#Politics", "#UK", "#Economy", "#Trade"}, ParseHashtags(reply, 5))
	assert.Equal(t, []string{}, ParseHashtags("no tags here", 5))
}

func TestComposeTextFailures(t *testing.T) {
	t.Parallel()

	failing := &fakeModel{reply: func(ports.CompletionRequest) (string, error) {
		return "", domain.Fail(domain.ReasonBackend, "ollama", errors.New("status 500"))
	}}
	_, err := NewComposer(ComposerDeps{Drafter: failing}).ComposeText(context.Background(), domain.Article{URL: "u"})
	assert.Equal(t, domain.ReasonBackend, domain.ReasonOf(err))

	_, err = NewComposer(ComposerDeps{Drafter: staticModel(`Tweet: ""`)}).ComposeText(context.Background(), domain.Article{URL: "u"})
	assert.Equal(t, domain.ReasonEmptyResponse, domain.ReasonOf(err))
}

func TestComposeHashtagsFailureIsEmpty(t *testing.T) {
	t.Parallel()

	failing := &fakeModel{reply: func(ports.CompletionRequest) (string, error) { return "", errors.New("quota") }}
	composer := NewComposer(ComposerDeps{Hashtagger: failing})

	assert.Equal(t, []string{}, composer.ComposeHashtags(context.Background(), "text", domain.Article{}))
}

func TestComposerPrompts(t *testing.T) {
	t.Parallel()

	drafter := staticModel("Markets rally on trade deal")
	tagger := staticModel("#Markets")
	composer := NewComposer(ComposerDeps{Drafter: drafter, Hashtagger: tagger})

	article := domain.Article{
		URL: "u", Title: "Trade deal", Summary: "Deal signed", Topics: []string{"trade", "uk"},
		Sentiment: domain.SentimentPositive, Urgency: domain.UrgencyHigh, Category: "business",
	}
	drafts, err := composer.ProcessArticles(context.Background(), []domain.Article{article}, nil)
	require.NoError(t, err)
	require.Len(t, drafts, 1)

	require.Len(t, drafter.prompts, 1)
	assert.Contains(t, drafter.prompts[0], "Title: Trade deal")
	assert.Contains(t, drafter.prompts[0], "Topics: trade, uk")
	assert.Contains(t, drafter.prompts[0], "- Keep under 150 characters")
	assert.Contains(t, drafter.prompts[0], "Match the sentiment (positive)")

	require.Len(t, tagger.prompts, 1)
	assert.Contains(t, tagger.prompts[0], "Tweet: Markets rally on trade deal")
	assert.Contains(t, tagger.prompts[0], "Category: business")

	assert.Equal(t, "Markets rally on trade deal #Markets", drafts[0].FullPost)
}

func TestComposerEndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	storePath := filepath.Join(dir, "store.json")
	queuePath := filepath.Join(dir, "queue.json")

	makeArticles := func(category string, urgencies ...domain.Urgency) []domain.Article {
		var out []domain.Article
		for i, u := range urgencies {
			a := domain.Article{
				URL:      fmt.Sprintf("https://www.bbc.com/%s/%d", category, i),
				Title:    fmt.Sprintf("%s story %d", category, i),
				Category: category,
				Urgency:  u,
				Topics:   []string{category},
			}
			if i != 1 {
				a.Summary = "Something happened"
				a.Content = "Full text"
			}
			out = append(out, a)
		}
		return out
	}
	news := makeArticles("news", domain.UrgencyLow, domain.UrgencyHigh, domain.UrgencyHigh)
	sport := makeArticles("sport", domain.UrgencyMedium, domain.UrgencyHigh, domain.UrgencyLow)

	storeFile := storage.NewArticleStoreFile(storePath, nil)
	require.NoError(t, storeFile.SaveArticleStore(context.Background(), domain.ArticleStore{
		Categories: domain.Categories{
			SummarizeCategory("news", news),
			SummarizeCategory("sport", sport),
		},
		AllArticles: append(append([]domain.Article{}, news...), sport...),
	}))

	long := strings.Repeat("Breaking update ", 30)
	drafter := staticModel(`"` + long + `"`)
	tagger := staticModel("#News\n#UK\n#World")
	queueFile := storage.NewPostQueueFile(queuePath)

	composer := NewComposer(ComposerDeps{
		Store:       storeFile,
		Queue:       queueFile,
		Drafter:     drafter,
		Hashtagger:  tagger,
		MaxArticles: 4,
	})

	report, err := composer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, report.Loaded)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 4, report.Considered)
	assert.Equal(t, 4, report.Drafted)

	records, err := queueFile.LoadPostQueue(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 4)

	var urls []string
	for _, raw := range records {
		var draft domain.PostDraft
		require.NoError(t, json.Unmarshal(raw, &draft))
		assert.LessOrEqual(t, domain.CharCount(draft.Text), domain.PostCharLimit)
		assert.LessOrEqual(t, domain.CharCount(draft.FullPost), domain.PostCharLimit)
		assert.Equal(t, []string{"#News", "#UK", "#World"}, draft.Hashtags)
		urls = append(urls, draft.ArticleURL)
	}
	assert.Equal(t, []string{
		"https://www.bbc.com/news/2",
		"https://www.bbc.com/sport/0",
		"https://www.bbc.com/news/0",
		"https://www.bbc.com/sport/2",
	}, urls)
}

func TestComposerSkipsFailedDrafts(t *testing.T) {
	t.Parallel()

	calls := 0
	drafter := &fakeModel{reply: func(ports.CompletionRequest) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("boom")
		}
		return "Second works", nil
	}}
	queue := &memQueue{}
	records := []domain.StoredCategory{{Name: "news", Records: []json.RawMessage{
		json.RawMessage(`{"url":"a","summary":"x","urgency":"high"}`),
		json.RawMessage(`{"url":"b","summary":"y"}`),
		json.RawMessage(`{"url":""}`),
		json.RawMessage(`not json`),
	}}}

	composer := NewComposer(ComposerDeps{Store: staticRecords(records), Queue: queue, Drafter: drafter})
	report, err := composer.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Loaded)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, queue.saved, 1)
	require.Len(t, queue.saved[0], 1)
	assert.Equal(t, "b", queue.saved[0][0].ArticleURL)
	assert.Equal(t, []string{}, queue.saved[0][0].Hashtags)
}

func TestComposerNothingProduced(t *testing.T) {
	t.Parallel()

	queue := &memQueue{}
	composer := NewComposer(ComposerDeps{Store: staticRecords(nil), Queue: queue, Drafter: staticModel("x")})

	_, err := composer.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrNothingProduced)
	assert.Empty(t, queue.saved)
}

func TestLoadArticlesDefaults(t *testing.T) {
	t.Parallel()

	records := []domain.StoredCategory{{Name: "culture", Records: []json.RawMessage{
		json.RawMessage(`{"url":"https://www.bbc.com/culture/x","extracted_at":"2024-05-01T12:00:00.123456","word_count":12}`),
	}}}
	articles, err := NewComposer(ComposerDeps{Store: staticRecords(records)}).LoadArticles(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 1)

	assert.Equal(t, "culture", articles[0].Category)
	assert.Equal(t, domain.SentimentNeutral, articles[0].Sentiment)
	assert.Equal(t, domain.UrgencyMedium, articles[0].Urgency)
	assert.Equal(t, []string{}, articles[0].Topics)
}

type staticRecords []domain.StoredCategory

func (s staticRecords) LoadArticleRecords(context.Context) ([]domain.StoredCategory, error) {
	return s, nil
}
