package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

func TestParseAnnotation(t *testing.T) {
	t.Parallel()

	direct, ok := ParseAnnotation(` {"headline":"H","summary":"S","key_topics":["a","b"],"sentiment":"negative","urgency":"high"} `)
	require.True(t, ok)
	assert.Equal(t, domain.Annotation{
		Headline:  "H",
		Summary:   "S",
		KeyTopics: []string{"a", "b"},
		Sentiment: domain.SentimentNegative,
		Urgency:   domain.UrgencyHigh,
	}, direct)

	embedded, ok := ParseAnnotation("Sure! Here is the JSON:\n{\"headline\":\"H\",\"summary\":\"S\",\"key_topics\":[],\"sentiment\":\"joyful\",\"urgency\":\"low\"}\nHope it helps.")
	require.True(t, ok)
	assert.Equal(t, domain.SentimentNeutral, embedded.Sentiment)
	assert.Equal(t, domain.UrgencyLow, embedded.Urgency)
	assert.Equal(t, []string{}, embedded.KeyTopics)

	_, ok = ParseAnnotation("I cannot analyze this article.")
	assert.False(t, ok)

	_, ok = ParseAnnotation(`{"headline": {"nested": true}}`)
	assert.False(t, ok)
}

func TestAnnotatorFallsBackOnNonJSON(t *testing.T) {
	t.Parallel()

	annotator := NewAnnotator(AnnotatorDeps{Model: staticModel("The article talks about markets."), ModelName: "llama3.2:latest"})

	got := annotator.Annotate(context.Background(), domain.Article{URL: "u", Content: "Markets fell.", Category: "business"})

	assert.Equal(t, domain.FallbackAnnotation(), got.Analysis)
	assert.Equal(t, "Analysis failed", got.Title)
	assert.Equal(t, "Could not analyze content", got.Summary)
	assert.Equal(t, []string{}, got.Topics)
	assert.Equal(t, domain.SentimentNeutral, got.Sentiment)
	assert.Equal(t, domain.UrgencyMedium, got.Urgency)
}

func TestAnnotatorFallsBackOnBackendError(t *testing.T) {
	t.Parallel()

	model := &fakeModel{reply: func(ports.CompletionRequest) (string, error) {
		return "", domain.Fail(domain.ReasonBackend, "ollama", errors.New("connection refused"))
	}}
	got := NewAnnotator(AnnotatorDeps{Model: model}).Annotate(context.Background(), domain.Article{URL: "u", Title: "Kept"})

	assert.Equal(t, "Kept", got.Title)
	assert.Equal(t, domain.FallbackAnnotation(), got.Analysis)
}

func TestAnnotatorPrompt(t *testing.T) {
	t.Parallel()

	var seen ports.CompletionRequest
	model := &fakeModel{reply: func(req ports.CompletionRequest) (string, error) {
		seen = req
		return `{"headline":"H","summary":"S","key_topics":["economy"],"sentiment":"positive","urgency":"high"}`, nil
	}}
	opts := ports.SamplingOptions{Temperature: 0.1, MaxTokens: 150, TopK: 10, TopP: 0.9}
	annotator := NewAnnotator(AnnotatorDeps{Model: model, ModelName: "llama3.2:latest", Options: opts})

	content := strings.Repeat("a", 800) + strings.Repeat("q", 200)
	got := annotator.Annotate(context.Background(), domain.Article{URL: "u", Content: content, Category: "sport"})

	assert.Equal(t, "llama3.2:latest", seen.Model)
	assert.Equal(t, opts, seen.Options)
	assert.True(t, strings.HasPrefix(seen.Prompt, "Analyze this sport article briefly. Return only JSON:"))
	assert.Contains(t, seen.Prompt, "Content: "+strings.Repeat("a", 800)+"...")
	assert.NotContains(t, seen.Prompt, "q")
	assert.Contains(t, seen.Prompt, `"key_topics":["topic1","topic2"]`)

	assert.Equal(t, "H", got.Title)
	assert.Equal(t, []string{"economy"}, got.Topics)
	assert.Equal(t, domain.UrgencyHigh, got.Urgency)
}
