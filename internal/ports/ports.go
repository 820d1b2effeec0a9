package ports

import (
	"context"
	"encoding/json"
	"time"

	"NewsRelay/internal/domain"
)

// LinkDiscoverer turns seed URLs into candidate article URLs.
type LinkDiscoverer interface {
	Discover(ctx context.Context, seeds []string, limitPerSeed int) ([]string, error)
}

// ArticleExtractor fetches one page and extracts an unannotated article.
type ArticleExtractor interface {
	Extract(ctx context.Context, url string) (domain.Article, error)
}

// SamplingOptions tune a single completion call.
type SamplingOptions struct {
	Temperature float64
	MaxTokens   int
	TopK        int
	TopP        float64
}

// CompletionRequest is a provider-neutral LLM call.
type CompletionRequest struct {
	Model   string
	Prompt  string
	Options SamplingOptions
}

// LanguageModel answers a prompt with free-form text.
type LanguageModel interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ArticleStoreWriter persists a harvest.
type ArticleStoreWriter interface {
	SaveArticleStore(ctx context.Context, store domain.ArticleStore) error
}

// ArticleStoreReader loads stored articles without decoding individual records.
type ArticleStoreReader interface {
	LoadArticleRecords(ctx context.Context) ([]domain.StoredCategory, error)
}

// PostQueueWriter persists composed drafts.
type PostQueueWriter interface {
	SavePostQueue(ctx context.Context, drafts []domain.PostDraft) error
}

// PostQueueReader loads queued drafts without decoding individual records.
type PostQueueReader interface {
	LoadPostQueue(ctx context.Context) ([]json.RawMessage, error)
}

// ArticleArchive keeps a long-lived copy of harvested articles.
type ArticleArchive interface {
	Archive(ctx context.Context, articles []domain.Article) error
}

// PostLedger persists published posts for deduplication and audit.
type PostLedger interface {
	AlreadyPublished(ctx context.Context, urls []string) (map[string]bool, error)
	RecordPublished(ctx context.Context, post domain.PublishedPost) error
}

// Notifier streams run summaries to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// Locator addresses one element of the remote UI.
type Locator struct {
	Expr  string
	XPath bool
}

// CSS builds a CSS selector locator.
func CSS(expr string) Locator { return Locator{Expr: expr} }

// XPath builds an XPath locator.
func XPath(expr string) Locator { return Locator{Expr: expr, XPath: true} }

func (l Locator) String() string {
	if l.XPath {
		return "xpath:" + l.Expr
	}
	return l.Expr
}

// Shortcut is a key pressed together with modifiers.
type Shortcut struct {
	Key  string
	Ctrl bool
}

// BrowserSession is the automation capability set the publisher relies on.
type BrowserSession interface {
	Navigate(ctx context.Context, url string) error
	Location(ctx context.Context) (string, error)
	WaitReady(ctx context.Context, loc Locator, timeout time.Duration) error
	Click(ctx context.Context, loc Locator) error
	Clear(ctx context.Context, loc Locator) error
	SendKeys(ctx context.Context, loc Locator, text string) error
	// ExecuteScript runs body with the located element bound to `el`.
	ExecuteScript(ctx context.Context, loc Locator, body string) error
	PressShortcut(ctx context.Context, loc Locator, shortcut Shortcut) error
	Close() error
}

// BrowserLauncher starts a fresh automated browser session.
type BrowserLauncher interface {
	Open(ctx context.Context) (BrowserSession, error)
}
