package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
	"NewsRelay/pkg/pause"
)

var boilerplatePrefixes = []string{
	"Tweet:",
	"Here's a tweet:",
	"Here's the tweet:",
	"Tweet text:",
	"Generated tweet:",
	"Social media post:",
}

// ComposerDeps wires the drafting and hashtag models.
type ComposerDeps struct {
	Store ports.ArticleStoreReader
	Queue ports.PostQueueWriter

	Drafter           ports.LanguageModel
	DrafterModel      string
	DrafterOptions    ports.SamplingOptions
	Hashtagger        ports.LanguageModel
	HashtaggerModel   string
	HashtaggerOptions ports.SamplingOptions

	MaxArticles  int
	Delay        time.Duration
	CharLimit    int
	TargetLength int
	MaxHashtags  int

	Logger *slog.Logger
}

// Composer turns stored articles into queued post drafts.
type Composer struct {
	store ports.ArticleStoreReader
	queue ports.PostQueueWriter

	drafter           ports.LanguageModel
	drafterModel      string
	drafterOptions    ports.SamplingOptions
	hashtagger        ports.LanguageModel
	hashtaggerModel   string
	hashtaggerOptions ports.SamplingOptions

	maxArticles  int
	delay        time.Duration
	charLimit    int
	targetLength int
	maxHashtags  int

	logger *slog.Logger
}

// NewComposer applies defaults: 10 articles, 280 characters, 150 character
// target and 5 hashtags. A zero Delay disables pacing.
func NewComposer(deps ComposerDeps) *Composer {
	c := &Composer{
		store:             deps.Store,
		queue:             deps.Queue,
		drafter:           deps.Drafter,
		drafterModel:      deps.DrafterModel,
		drafterOptions:    deps.DrafterOptions,
		hashtagger:        deps.Hashtagger,
		hashtaggerModel:   deps.HashtaggerModel,
		hashtaggerOptions: deps.HashtaggerOptions,
		maxArticles:       deps.MaxArticles,
		delay:             deps.Delay,
		charLimit:         deps.CharLimit,
		targetLength:      deps.TargetLength,
		maxHashtags:       deps.MaxHashtags,
		logger:            deps.Logger,
	}
	if c.maxArticles <= 0 {
		c.maxArticles = 10
	}
	if c.charLimit <= 0 {
		c.charLimit = domain.PostCharLimit
	}
	if c.targetLength <= 0 {
		c.targetLength = 150
	}
	if c.maxHashtags <= 0 {
		c.maxHashtags = domain.MaxHashtags
	}
	return c
}

// Run loads the store, drafts posts and writes the Post Queue. Nothing is
// written when no draft was produced.
func (c *Composer) Run(ctx context.Context) (ComposeReport, error) {
	var report ComposeReport

	articles, err := c.LoadArticles(ctx)
	if err != nil {
		return report, err
	}
	report.Loaded = len(articles)

	drafts, err := c.ProcessArticles(ctx, articles, &report)
	if err != nil {
		return report, err
	}
	report.Drafted = len(drafts)

	if len(drafts) == 0 {
		c.warn("no drafts produced", "articles", report.Loaded)
		return report, domain.ErrNothingProduced
	}

	if c.queue != nil {
		if err := c.queue.SavePostQueue(ctx, drafts); err != nil {
			return report, fmt.Errorf("save post queue: %w", err)
		}
	}
	c.info("post queue written", "drafts", len(drafts))
	return report, nil
}

type storedArticle struct {
	URL       string   `json:"url"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Summary   string   `json:"summary"`
	Topics    []string `json:"topics"`
	Sentiment string   `json:"sentiment"`
	Urgency   string   `json:"urgency"`
	Category  string   `json:"category"`
}

// LoadArticles flattens the stored categories in file order. Records that do
// not decode or carry no URL are skipped.
func (c *Composer) LoadArticles(ctx context.Context) ([]domain.Article, error) {
	if c.store == nil {
		return nil, fmt.Errorf("article store is not configured")
	}

	categories, err := c.store.LoadArticleRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load article store: %w", err)
	}

	var articles []domain.Article
	for _, cat := range categories {
		for i, raw := range cat.Records {
			var rec storedArticle
			if err := json.Unmarshal(raw, &rec); err != nil {
				c.warn("skipping malformed article", "category", cat.Name, "index", i, "error", err)
				continue
			}
			if strings.TrimSpace(rec.URL) == "" {
				c.warn("skipping article without url", "category", cat.Name, "index", i)
				continue
			}

			category := rec.Category
			if category == "" {
				category = cat.Name
			}
			topics := rec.Topics
			if topics == nil {
				topics = []string{}
			}
			articles = append(articles, domain.Article{
				URL:       rec.URL,
				Title:     rec.Title,
				Content:   rec.Content,
				Summary:   rec.Summary,
				Topics:    topics,
				Sentiment: domain.ParseSentiment(rec.Sentiment),
				Urgency:   domain.ParseUrgency(rec.Urgency),
				Category:  category,
			})
		}
	}

	c.info("articles loaded", "articles", len(articles), "categories", len(categories))
	return articles, nil
}

// Prioritize orders articles high, medium, low (stable within a bucket) and
// keeps at most maxCount of them.
func Prioritize(articles []domain.Article, maxCount int) []domain.Article {
	rank := map[domain.Urgency]int{
		domain.UrgencyHigh:   0,
		domain.UrgencyMedium: 1,
		domain.UrgencyLow:    2,
	}

	ordered := append([]domain.Article(nil), articles...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return rank[domain.ParseUrgency(string(ordered[i].Urgency))] < rank[domain.ParseUrgency(string(ordered[j].Urgency))]
	})
	if maxCount >= 0 && len(ordered) > maxCount {
		ordered = ordered[:maxCount]
	}
	return ordered
}

// ProcessArticles drafts a post for each prioritized article. Articles
// without text are dropped before the cut; a failed draft skips the article.
func (c *Composer) ProcessArticles(ctx context.Context, articles []domain.Article, report *ComposeReport) ([]domain.PostDraft, error) {
	if report == nil {
		report = &ComposeReport{}
	}

	withText := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if !a.HasText() {
			c.warn("skipping article with no content", "url", a.URL, "title", a.Title)
			report.Skipped++
			continue
		}
		withText = append(withText, a)
	}

	selected := Prioritize(withText, c.maxArticles)
	report.Considered = len(selected)

	drafts := make([]domain.PostDraft, 0, len(selected))
	for i, article := range selected {
		if i > 0 {
			if err := pause.Sleep(ctx, c.delay); err != nil {
				return drafts, err
			}
		}
		c.info("processing article", "index", i+1, "total", len(selected), "title", domain.Preview(article.Title, 50))

		text, err := c.ComposeText(ctx, article)
		if err != nil {
			if ctx.Err() != nil {
				return drafts, ctx.Err()
			}
			c.warn("draft failed", "url", article.URL, "reason", domain.ReasonOf(err), "error", err)
			report.Failed++
			continue
		}

		hashtags := c.ComposeHashtags(ctx, text, article)
		drafts = append(drafts, domain.NewPostDraft(text, hashtags, article, c.charLimit))
	}

	return drafts, nil
}

// ComposeText asks the drafting model for a post without hashtags.
func (c *Composer) ComposeText(ctx context.Context, article domain.Article) (string, error) {
	if c.drafter == nil {
		return "", domain.Fail(domain.ReasonBackend, article.URL, fmt.Errorf("drafting model is not configured"))
	}

	reply, err := c.drafter.Complete(ctx, ports.CompletionRequest{
		Model:   c.drafterModel,
		Prompt:  c.textPrompt(article),
		Options: c.drafterOptions,
	})
	if err != nil {
		return "", fmt.Errorf("compose text: %w", err)
	}

	text := CleanDraft(reply, c.charLimit)
	if text == "" {
		return "", domain.Fail(domain.ReasonEmptyResponse, article.URL, nil)
	}
	c.debug("draft generated", "url", article.URL, "draft", domain.Preview(text, 50))
	return text, nil
}

// ComposeHashtags asks the hashtag model for up to maxHashtags tags. Any
// failure yields an empty list.
func (c *Composer) ComposeHashtags(ctx context.Context, text string, article domain.Article) []string {
	if c.hashtagger == nil {
		return []string{}
	}

	reply, err := c.hashtagger.Complete(ctx, ports.CompletionRequest{
		Model:   c.hashtaggerModel,
		Prompt:  c.hashtagPrompt(text, article),
		Options: c.hashtaggerOptions,
	})
	if err != nil {
		c.warn("hashtags failed", "url", article.URL, "error", err)
		return []string{}
	}

	tags := ParseHashtags(reply, c.maxHashtags)
	c.debug("hashtags generated", "url", article.URL, "hashtags", strings.Join(tags, ", "))
	return tags
}

// ParseHashtags keeps the lines of reply that start with '#' and carry at
// least one more character, up to limit.
func ParseHashtags(reply string, limit int) []string {
	tags := []string{}
	for _, line := range strings.Split(strings.TrimSpace(reply), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "#") || len(line) <= 1 {
			continue
		}
		tags = append(tags, line)
		if len(tags) == limit {
			break
		}
	}
	return tags
}

// CleanDraft strips known boilerplate prefixes and one layer of surrounding
// double quotes, then bounds the text to limit characters.
func CleanDraft(text string, limit int) string {
	text = strings.TrimSpace(text)
	for _, prefix := range boilerplatePrefixes {
		if len(text) >= len(prefix) && strings.EqualFold(text[:len(prefix)], prefix) {
			text = strings.TrimSpace(text[len(prefix):])
		}
	}

	if len(text) >= 2 && strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}

	return domain.Truncate(text, limit)
}

func (c *Composer) textPrompt(a domain.Article) string {
	return fmt.Sprintf(`Create a compelling Twitter/X tweet based on this news article. Keep it under %d characters, engaging, and informative.

Title: %s
Summary: %s
Topics: %s
Sentiment: %s
Urgency: %s

Requirements:
- Keep under %d characters
- Make it engaging and shareable
- Include key information
- Match the sentiment (%s)
- Don't include hashtags (they will be added separately)
- Make it sound natural and newsworthy

Tweet:`,
		c.charLimit, a.Title, a.Summary, strings.Join(a.Topics, ", "), a.Sentiment, a.Urgency,
		c.targetLength, a.Sentiment)
}

func (c *Composer) hashtagPrompt(text string, a domain.Article) string {
	return fmt.Sprintf(`Generate 3-%d trending and relevant hashtags for this tweet about a news article.

Tweet: %s
Article Topics: %s
Category: %s
Sentiment: %s
Urgency: %s

Requirements:
- Generate 3-%d hashtags maximum
- Make them trending and relevant to current events
- Include mix of specific and general hashtags
- Consider the article category and topics
- Make them likely to trend on social media
- Return only the hashtags, one per line, with # symbol
- No explanations or additional text

Example format:
#BreakingNews
#Politics
#UK`,
		c.maxHashtags, text, strings.Join(a.Topics, ", "), a.Category, a.Sentiment, a.Urgency, c.maxHashtags)
}

func (c *Composer) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Composer) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Composer) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
