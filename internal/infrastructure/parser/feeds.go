package parser

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"NewsRelay/internal/ports"
	"NewsRelay/internal/site"
)

// FeedDiscoverer reads RSS/Atom feeds and returns their article links.
type FeedDiscoverer struct {
	fetcher *Fetcher
	profile site.Profile
	workers int
	logger  *slog.Logger
}

var _ ports.LinkDiscoverer = (*FeedDiscoverer)(nil)

// NewFeedDiscoverer builds a discoverer that reads at most workers feeds at once.
func NewFeedDiscoverer(fetcher *Fetcher, profile site.Profile, workers int, log *slog.Logger) *FeedDiscoverer {
	if workers <= 0 {
		workers = 4
	}
	return &FeedDiscoverer{fetcher: fetcher, profile: profile, workers: workers, logger: log}
}

// Discover parses each feed; unreadable feeds are logged and skipped.
func (f *FeedDiscoverer) Discover(ctx context.Context, feeds []string, limitPerSeed int) ([]string, error) {
	slots := make([][]string, len(feeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for i, feedURL := range feeds {
		g.Go(func() error {
			links, err := f.readFeed(gctx, feedURL)
			if err != nil {
				if f.logger != nil {
					f.logger.Warn("feed read failed", "feed", feedURL, "error", err)
				}
				return nil
			}
			slots[i] = capLinks(links, limitPerSeed)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return unionLinks(slots), nil
}

func (f *FeedDiscoverer) readFeed(ctx context.Context, feedURL string) ([]string, error) {
	body, err := f.fetcher.Get(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	links := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		link := stripTracking(item.Link)
		if !f.profile.IsValidArticleURL(link) {
			continue
		}
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}
	return links, nil
}

// stripTracking drops the query and fragment feeds append to article links.
func stripTracking(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
