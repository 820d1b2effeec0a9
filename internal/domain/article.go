package domain

import (
	"strings"
	"time"
)

// Sentiment is the tone the annotation model assigned to an article.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Urgency drives post ordering; it never filters articles out.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// ParseSentiment maps free-form model output onto the known values.
func ParseSentiment(value string) Sentiment {
	switch s := Sentiment(strings.ToLower(strings.TrimSpace(value))); s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return s
	default:
		return SentimentNeutral
	}
}

// ParseUrgency maps free-form model output onto the known values.
func ParseUrgency(value string) Urgency {
	switch u := Urgency(strings.ToLower(strings.TrimSpace(value))); u {
	case UrgencyHigh, UrgencyMedium, UrgencyLow:
		return u
	default:
		return UrgencyMedium
	}
}

// Annotation is the LLM-produced enrichment attached to an article.
type Annotation struct {
	Headline  string    `json:"headline"`
	Summary   string    `json:"summary"`
	KeyTopics []string  `json:"key_topics"`
	Sentiment Sentiment `json:"sentiment"`
	Urgency   Urgency   `json:"urgency"`
}

// FallbackAnnotation is used whenever the model output cannot be parsed.
func FallbackAnnotation() Annotation {
	return Annotation{
		Headline:  "Analysis failed",
		Summary:   "Could not analyze content",
		KeyTopics: []string{},
		Sentiment: SentimentNeutral,
		Urgency:   UrgencyMedium,
	}
}

// Article is one harvested content unit keyed by URL.
type Article struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	ExtractedAt time.Time  `json:"extracted_at"`
	WordCount   int        `json:"word_count"`
	Category    string     `json:"category"`
	Analysis    Annotation `json:"ai_analysis"`
	Summary     string     `json:"summary"`
	Topics      []string   `json:"topics"`
	Sentiment   Sentiment  `json:"sentiment"`
	Urgency     Urgency    `json:"urgency"`
}

// UntitledArticle is stored when neither the page nor the model gave a title.
const UntitledArticle = "No title found"

// WithAnnotation returns a copy of the article carrying the annotation block
// and the flattened summary fields derived from it.
func (a Article) WithAnnotation(an Annotation) Article {
	if an.KeyTopics == nil {
		an.KeyTopics = []string{}
	}
	a.Analysis = an
	a.Summary = an.Summary
	a.Topics = append([]string{}, an.KeyTopics...)
	a.Sentiment = ParseSentiment(string(an.Sentiment))
	a.Urgency = ParseUrgency(string(an.Urgency))

	if a.Title == "" {
		a.Title = strings.TrimSpace(an.Headline)
	}
	if a.Title == "" {
		a.Title = UntitledArticle
	}
	return a
}

// HasText reports whether the article carries anything worth posting about.
func (a Article) HasText() bool {
	return strings.TrimSpace(a.Summary) != "" || strings.TrimSpace(a.Content) != ""
}

// CategorySeed lists the entry points crawled for one harvest category.
type CategorySeed struct {
	Name  string
	Pages []string
	Feeds []string
}
