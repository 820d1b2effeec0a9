package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
	"NewsRelay/internal/site"
)

var errRobotsDisallowed = errors.New("disallowed by robots.txt")

// ExtractorOptions bound what counts as a usable article body.
type ExtractorOptions struct {
	MinParagraphs   int
	MinParagraphLen int
	MinContentLen   int
	MaxContentLen   int
	Readability     bool
}

func (o ExtractorOptions) withDefaults() ExtractorOptions {
	if o.MinParagraphs <= 0 {
		o.MinParagraphs = 5
	}
	if o.MinParagraphLen <= 0 {
		o.MinParagraphLen = 20
	}
	if o.MinContentLen <= 0 {
		o.MinContentLen = 100
	}
	if o.MaxContentLen <= 0 {
		o.MaxContentLen = 3000
	}
	return o
}

// titleStrategy tries to pull a title out of a parsed page.
type titleStrategy func(doc *goquery.Document) (string, bool)

// paragraphStrategy returns the candidate paragraphs one selector yields.
type paragraphStrategy func(doc *goquery.Document) []string

// HTMLExtractor turns article pages into unannotated domain articles.
type HTMLExtractor struct {
	fetcher    *Fetcher
	robots     *RobotsGate
	profile    site.Profile
	opts       ExtractorOptions
	titles     []titleStrategy
	paragraphs []paragraphStrategy
	now        func() time.Time
}

var _ ports.ArticleExtractor = (*HTMLExtractor)(nil)

// NewHTMLExtractor builds an extractor from the profile's selector ladders.
// A nil robots gate disables robots.txt checks.
func NewHTMLExtractor(fetcher *Fetcher, robots *RobotsGate, profile site.Profile, opts ExtractorOptions) *HTMLExtractor {
	e := &HTMLExtractor{
		fetcher: fetcher,
		robots:  robots,
		profile: profile,
		opts:    opts.withDefaults(),
		now:     time.Now,
	}
	for _, selector := range profile.TitleSelectors {
		e.titles = append(e.titles, selectorTitle(selector))
	}
	for _, selector := range profile.BodySelectors {
		e.paragraphs = append(e.paragraphs, selectorParagraphs(selector))
	}
	return e
}

// Extract fetches pageURL and builds an article, or returns a *domain.Failure.
func (e *HTMLExtractor) Extract(ctx context.Context, pageURL string) (domain.Article, error) {
	if e.robots != nil {
		allowed, err := e.robots.Allowed(ctx, pageURL)
		if err != nil {
			return domain.Article{}, domain.Fail(domain.ReasonFetch, pageURL, err)
		}
		if !allowed {
			return domain.Article{}, domain.Fail(domain.ReasonRobotsBlocked, pageURL, errRobotsDisallowed)
		}
	}

	body, err := e.fetcher.Get(ctx, pageURL)
	if err != nil {
		return domain.Article{}, domain.Fail(domain.ReasonFetch, pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.Article{}, domain.Fail(domain.ReasonParse, pageURL, fmt.Errorf("parse document: %w", err))
	}

	title := e.extractTitle(doc)
	content := strings.Join(e.collectParagraphs(doc), " ")

	if e.opts.Readability && utf8.RuneCountInString(content) < e.opts.MinContentLen {
		if text, err := readabilityText(body, pageURL); err == nil && utf8.RuneCountInString(text) > utf8.RuneCountInString(content) {
			content = text
		}
	}

	if n := utf8.RuneCountInString(content); n < e.opts.MinContentLen {
		return domain.Article{}, domain.Fail(domain.ReasonTooShort, pageURL, fmt.Errorf("content has %d characters", n))
	}

	return domain.Article{
		URL:         pageURL,
		Title:       title,
		Content:     cut(content, e.opts.MaxContentLen),
		ExtractedAt: e.now().UTC(),
		WordCount:   len(strings.Fields(content)),
		Category:    e.profile.Categorize(pageURL),
	}, nil
}

func (e *HTMLExtractor) extractTitle(doc *goquery.Document) string {
	for _, strategy := range e.titles {
		if title, ok := strategy(doc); ok {
			return title
		}
	}
	return ""
}

// collectParagraphs walks the body selectors in order, accumulating distinct
// paragraphs until enough have been found or the selectors run out.
func (e *HTMLExtractor) collectParagraphs(doc *goquery.Document) []string {
	seen := map[string]struct{}{}
	var parts []string

	for _, strategy := range e.paragraphs {
		for _, text := range strategy(doc) {
			if utf8.RuneCountInString(text) <= e.opts.MinParagraphLen {
				continue
			}
			if _, ok := seen[text]; ok {
				continue
			}
			seen[text] = struct{}{}
			parts = append(parts, text)
		}
		if len(parts) >= e.opts.MinParagraphs {
			break
		}
	}
	return parts
}

func selectorTitle(selector string) titleStrategy {
	return func(doc *goquery.Document) (string, bool) {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			return "", false
		}
		return normalizeText(sel.Text()), true
	}
}

func selectorParagraphs(selector string) paragraphStrategy {
	return func(doc *goquery.Document) []string {
		var out []string
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			out = append(out, normalizeText(s.Text()))
		})
		return out
	}
}

func readabilityText(body []byte, pageURL string) (string, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return "", err
	}

	var parts []string
	doc.Find("p, li, h2, h3").Each(func(_ int, s *goquery.Selection) {
		if text := normalizeText(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		return normalizeText(doc.Text()), nil
	}
	return strings.Join(parts, " "), nil
}

// cut keeps the first limit runes of s.
func cut(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
