package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
	"NewsRelay/internal/poster"
	"NewsRelay/pkg/pause"
)

// PublisherDeps wires the browser, the queue and the optional ledger.
type PublisherDeps struct {
	Queue    ports.PostQueueReader
	Launcher ports.BrowserLauncher
	Ledger   ports.PostLedger
	Settings poster.Settings
	// Strategies overrides the default ladder when set.
	Strategies []poster.Strategy

	Interval  time.Duration
	MaxPosts  int
	CharLimit int
	HoldOpen  time.Duration

	Logger   *slog.Logger
	Now      func() time.Time
	NewRunID func() string
}

// Publisher submits queued drafts through one authenticated browser session.
type Publisher struct {
	queue      ports.PostQueueReader
	launcher   ports.BrowserLauncher
	ledger     ports.PostLedger
	settings   poster.Settings
	strategies []poster.Strategy

	interval  time.Duration
	maxPosts  int
	charLimit int
	holdOpen  time.Duration

	logger   *slog.Logger
	now      func() time.Time
	newRunID func() string
}

// NewPublisher builds a publisher. A zero MaxPosts publishes the whole queue.
func NewPublisher(deps PublisherDeps) *Publisher {
	p := &Publisher{
		queue:      deps.Queue,
		launcher:   deps.Launcher,
		ledger:     deps.Ledger,
		settings:   deps.Settings,
		strategies: deps.Strategies,
		interval:   deps.Interval,
		maxPosts:   deps.MaxPosts,
		charLimit:  deps.CharLimit,
		holdOpen:   deps.HoldOpen,
		logger:     deps.Logger,
		now:        deps.Now,
		newRunID:   deps.NewRunID,
	}
	if p.charLimit <= 0 {
		p.charLimit = domain.PostCharLimit
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.newRunID == nil {
		p.newRunID = uuid.NewString
	}
	return p
}

type queuedPost struct {
	articleURL string
	text       string
}

// Run publishes the queue sequentially. A login failure aborts the run with
// a domain.ReasonAuth error; other per-post failures are counted. The browser
// session is always closed before Run returns.
func (p *Publisher) Run(ctx context.Context) (PublishReport, error) {
	report := PublishReport{RunID: p.newRunID(), Strategies: map[string]int{}}

	items, err := p.loadQueue(ctx, &report)
	if err != nil {
		return report, err
	}
	if len(items) == 0 {
		p.warn("nothing to publish", "queued", report.Queued, "skipped", report.Skipped, "duplicates", report.Duplicates)
		return report, domain.ErrNothingProduced
	}
	if p.launcher == nil {
		return report, fmt.Errorf("browser launcher is not configured")
	}

	session, err := p.launcher.Open(ctx)
	if err != nil {
		return report, fmt.Errorf("open browser: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			p.warn("browser close failed", "error", cerr)
		}
		p.info("browser session closed")
	}()

	var client *poster.Poster
	if len(p.strategies) > 0 {
		client = poster.NewWithLadder(session, poster.NewLadder(p.logger, p.strategies...), p.settings, p.logger)
	} else {
		client = poster.New(session, p.settings, p.logger)
	}

	if err := client.Login(ctx); err != nil {
		return report, fmt.Errorf("login: %w", err)
	}

	for i, item := range items {
		if i > 0 {
			p.info("waiting before next post", "interval", p.interval)
			if err := pause.Sleep(ctx, p.interval); err != nil {
				return report, err
			}
		}

		report.Attempted++
		p.info("posting", "index", i+1, "total", len(items), "article", item.articleURL)

		outcome, err := client.Post(ctx, item.text)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			if domain.IsFatal(err) {
				return report, err
			}
			report.Failed++
			p.warn("post failed", "article", item.articleURL, "reason", domain.ReasonOf(err), "error", err)
			continue
		}

		report.Published++
		report.Strategies[outcome.StrategyName]++
		p.info("post confirmed", "article", item.articleURL, "strategy", outcome.StrategyIndex)
		p.record(ctx, report.RunID, item, outcome)
	}

	if p.holdOpen > 0 {
		p.info("holding browser open", "duration", p.holdOpen)
		_ = pause.Sleep(ctx, p.holdOpen)
	}

	p.info("publishing finished", "published", report.Published, "failed", report.Failed)
	if report.Published == 0 {
		return report, domain.ErrNothingProduced
	}
	return report, nil
}

func (p *Publisher) loadQueue(ctx context.Context, report *PublishReport) ([]queuedPost, error) {
	if p.queue == nil {
		return nil, fmt.Errorf("post queue is not configured")
	}

	records, err := p.queue.LoadPostQueue(ctx)
	if err != nil {
		return nil, fmt.Errorf("load post queue: %w", err)
	}
	report.Queued = len(records)

	items := make([]queuedPost, 0, len(records))
	for i, raw := range records {
		var draft domain.PostDraft
		if err := json.Unmarshal(raw, &draft); err != nil {
			p.warn("skipping malformed draft", "index", i, "error", err)
			report.Skipped++
			continue
		}
		text := strings.TrimSpace(draft.PostText())
		if text == "" {
			p.warn("skipping empty draft", "index", i, "article", draft.ArticleURL)
			report.Skipped++
			continue
		}
		if domain.CharCount(text) > p.charLimit {
			p.warn("truncating post", "index", i, "length", domain.CharCount(text))
			text = domain.Truncate(text, p.charLimit)
		}
		items = append(items, queuedPost{articleURL: draft.ArticleURL, text: text})
	}

	items = p.dropPublished(ctx, items, report)

	if p.maxPosts > 0 && len(items) > p.maxPosts {
		items = items[:p.maxPosts]
	}
	return items, nil
}

func (p *Publisher) dropPublished(ctx context.Context, items []queuedPost, report *PublishReport) []queuedPost {
	if p.ledger == nil || len(items) == 0 {
		return items
	}

	urls := make([]string, 0, len(items))
	for _, item := range items {
		if item.articleURL != "" {
			urls = append(urls, item.articleURL)
		}
	}

	published, err := p.ledger.AlreadyPublished(ctx, urls)
	if err != nil {
		p.warn("ledger lookup failed", "error", err)
		return items
	}

	kept := items[:0]
	for _, item := range items {
		if item.articleURL != "" && published[item.articleURL] {
			report.Duplicates++
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

func (p *Publisher) record(ctx context.Context, runID string, item queuedPost, outcome poster.Outcome) {
	if p.ledger == nil || item.articleURL == "" {
		return
	}
	err := p.ledger.RecordPublished(ctx, domain.PublishedPost{
		ArticleURL:  item.articleURL,
		PostText:    item.text,
		Strategy:    outcome.StrategyName,
		RunID:       runID,
		PublishedAt: p.now(),
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		p.warn("ledger record failed", "article", item.articleURL, "error", err)
	}
}

func (p *Publisher) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Publisher) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
