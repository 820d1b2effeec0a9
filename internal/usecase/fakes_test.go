package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
	"NewsRelay/internal/poster"
)

type fakeModel struct {
	mu      sync.Mutex
	prompts []string
	reply   func(req ports.CompletionRequest) (string, error)
}

func (m *fakeModel) Complete(_ context.Context, req ports.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, req.Prompt)
	m.mu.Unlock()
	return m.reply(req)
}

func staticModel(reply string) *fakeModel {
	return &fakeModel{reply: func(ports.CompletionRequest) (string, error) { return reply, nil }}
}

type fakeDiscoverer struct {
	links map[string][]string
	err   error
}

func (d *fakeDiscoverer) Discover(_ context.Context, seeds []string, limitPerSeed int) ([]string, error) {
	if d.err != nil {
		return nil, d.err
	}
	var out []string
	for _, seed := range seeds {
		links := d.links[seed]
		if len(links) > limitPerSeed {
			links = links[:limitPerSeed]
		}
		out = append(out, links...)
	}
	return out, nil
}

type fakeExtractor struct {
	mu       sync.Mutex
	articles map[string]domain.Article
	failures map[string]error
	calls    []string
}

func (e *fakeExtractor) Extract(_ context.Context, url string) (domain.Article, error) {
	e.mu.Lock()
	e.calls = append(e.calls, url)
	e.mu.Unlock()

	if err, ok := e.failures[url]; ok {
		return domain.Article{}, err
	}
	if a, ok := e.articles[url]; ok {
		return a, nil
	}
	return domain.Article{}, domain.Fail(domain.ReasonFetch, url, errors.New("404"))
}

type memStoreWriter struct {
	saved []domain.ArticleStore
}

func (s *memStoreWriter) SaveArticleStore(_ context.Context, store domain.ArticleStore) error {
	s.saved = append(s.saved, store)
	return nil
}

type failingArchive struct{ calls int }

func (a *failingArchive) Archive(context.Context, []domain.Article) error {
	a.calls++
	return errors.New("mongo down")
}

type memQueue struct {
	records []json.RawMessage
	saved   [][]domain.PostDraft
}

func (q *memQueue) LoadPostQueue(context.Context) ([]json.RawMessage, error) {
	return q.records, nil
}

func (q *memQueue) SavePostQueue(_ context.Context, drafts []domain.PostDraft) error {
	q.saved = append(q.saved, drafts)
	return nil
}

func queueOf(drafts ...domain.PostDraft) *memQueue {
	q := &memQueue{}
	for _, d := range drafts {
		raw, _ := json.Marshal(d)
		q.records = append(q.records, raw)
	}
	return q
}

// permissiveSession accepts every browser command and sits on the home page.
type permissiveSession struct {
	mu     sync.Mutex
	closed int
	waitFn func(loc ports.Locator) error
}

func (s *permissiveSession) Navigate(context.Context, string) error { return nil }

func (s *permissiveSession) Location(context.Context) (string, error) {
	return "https://twitter.com/home", nil
}

func (s *permissiveSession) WaitReady(_ context.Context, loc ports.Locator, _ time.Duration) error {
	if s.waitFn != nil {
		return s.waitFn(loc)
	}
	return nil
}

func (s *permissiveSession) Click(context.Context, ports.Locator) error            { return nil }
func (s *permissiveSession) Clear(context.Context, ports.Locator) error            { return nil }
func (s *permissiveSession) SendKeys(context.Context, ports.Locator, string) error { return nil }

func (s *permissiveSession) ExecuteScript(context.Context, ports.Locator, string) error {
	return nil
}

func (s *permissiveSession) PressShortcut(context.Context, ports.Locator, ports.Shortcut) error {
	return nil
}

func (s *permissiveSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

type fakeLauncher struct {
	session *permissiveSession
	opened  int
}

func (l *fakeLauncher) Open(context.Context) (ports.BrowserSession, error) {
	l.opened++
	return l.session, nil
}

type scriptedStrategy struct {
	name  string
	texts []string
	fail  bool
}

func (s *scriptedStrategy) Name() string { return s.name }

func (s *scriptedStrategy) Attempt(_ context.Context, _ ports.BrowserSession, text string) (poster.State, error) {
	s.texts = append(s.texts, text)
	if s.fail {
		return poster.ComposeBoxFound, errors.New("submit button missing")
	}
	return poster.Confirmed, nil
}

type memLedger struct {
	published map[string]bool
	recorded  []domain.PublishedPost
}

func (l *memLedger) AlreadyPublished(_ context.Context, urls []string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, u := range urls {
		if l.published[u] {
			out[u] = true
		}
	}
	return out, nil
}

func (l *memLedger) RecordPublished(_ context.Context, post domain.PublishedPost) error {
	l.recorded = append(l.recorded, post)
	return nil
}

type memNotifier struct {
	digests []string
}

func (n *memNotifier) PublishDigest(_ context.Context, digest string) error {
	n.digests = append(n.digests, digest)
	return nil
}
