package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

const annotationTemplate = `{"headline":"Main headline","summary":"Brief summary","key_topics":["topic1","topic2"],"sentiment":"positive/negative/neutral","urgency":"high/medium/low"}`

var jsonSpan = regexp.MustCompile(`\{[^}]*\}`)

// AnnotatorDeps wires the annotation model.
type AnnotatorDeps struct {
	Model      ports.LanguageModel
	ModelName  string
	Options    ports.SamplingOptions
	ExcerptLen int
	Logger     *slog.Logger
}

// Annotator enriches extracted articles with an LLM annotation.
type Annotator struct {
	model      ports.LanguageModel
	modelName  string
	options    ports.SamplingOptions
	excerptLen int
	logger     *slog.Logger
}

// NewAnnotator builds an annotator; ExcerptLen defaults to 800 characters.
func NewAnnotator(deps AnnotatorDeps) *Annotator {
	if deps.ExcerptLen <= 0 {
		deps.ExcerptLen = 800
	}
	return &Annotator{
		model:      deps.Model,
		modelName:  deps.ModelName,
		options:    deps.Options,
		excerptLen: deps.ExcerptLen,
		logger:     deps.Logger,
	}
}

// Annotate never fails: any backend or parse problem yields the fallback
// annotation.
func (a *Annotator) Annotate(ctx context.Context, article domain.Article) domain.Article {
	if a.model == nil {
		return article.WithAnnotation(domain.FallbackAnnotation())
	}

	reply, err := a.model.Complete(ctx, ports.CompletionRequest{
		Model:   a.modelName,
		Prompt:  a.prompt(article),
		Options: a.options,
	})
	if err != nil {
		a.warn("annotation failed", "url", article.URL, "category", article.Category, "error", err)
		return article.WithAnnotation(domain.FallbackAnnotation())
	}

	annotation, ok := ParseAnnotation(reply)
	if !ok {
		a.warn("annotation unparseable", "url", article.URL, "reply", domain.Preview(reply, 80))
		return article.WithAnnotation(domain.FallbackAnnotation())
	}

	a.debug("annotated", "url", article.URL, "sentiment", annotation.Sentiment, "urgency", annotation.Urgency)
	return article.WithAnnotation(annotation)
}

func (a *Annotator) prompt(article domain.Article) string {
	excerpt := article.Content
	if runes := []rune(excerpt); len(runes) > a.excerptLen {
		excerpt = string(runes[:a.excerptLen])
	}
	return fmt.Sprintf("Analyze this %s article briefly. Return only JSON:\n\nContent: %s...\n\n%s",
		article.Category, excerpt, annotationTemplate)
}

type annotationReply struct {
	Headline  string   `json:"headline"`
	Summary   string   `json:"summary"`
	KeyTopics []string `json:"key_topics"`
	Sentiment string   `json:"sentiment"`
	Urgency   string   `json:"urgency"`
}

// ParseAnnotation reads a model reply: the whole reply as JSON first, then the
// first flat {...} span inside it.
func ParseAnnotation(reply string) (domain.Annotation, bool) {
	reply = strings.TrimSpace(reply)

	if strings.HasPrefix(reply, "{") {
		if an, ok := decodeAnnotation(reply); ok {
			return an, true
		}
	}

	if span := jsonSpan.FindString(reply); span != "" {
		if an, ok := decodeAnnotation(span); ok {
			return an, true
		}
	}

	return domain.Annotation{}, false
}

func decodeAnnotation(raw string) (domain.Annotation, bool) {
	var r annotationReply
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return domain.Annotation{}, false
	}
	topics := r.KeyTopics
	if topics == nil {
		topics = []string{}
	}
	return domain.Annotation{
		Headline:  r.Headline,
		Summary:   r.Summary,
		KeyTopics: topics,
		Sentiment: domain.ParseSentiment(r.Sentiment),
		Urgency:   domain.ParseUrgency(r.Urgency),
	}, true
}

func (a *Annotator) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}

func (a *Annotator) warn(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}
