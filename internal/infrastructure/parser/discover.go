package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly"

	"NewsRelay/internal/ports"
	"NewsRelay/internal/site"
)

const seedKey = "seed"

// PageDiscoverer crawls seed pages with colly and collects article links.
type PageDiscoverer struct {
	profile       site.Profile
	userAgent     string
	parallelism   int
	timeout       time.Duration
	respectRobots bool
	logger        *slog.Logger
}

var _ ports.LinkDiscoverer = (*PageDiscoverer)(nil)

// PageDiscovererOptions tune the underlying collector.
type PageDiscovererOptions struct {
	UserAgent     string
	Parallelism   int
	Timeout       time.Duration
	RespectRobots bool
}

// NewPageDiscoverer builds a discoverer bound to one site profile.
func NewPageDiscoverer(profile site.Profile, opts PageDiscovererOptions, log *slog.Logger) *PageDiscoverer {
	if opts.Parallelism <= 0 {
		opts.Parallelism = 4
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &PageDiscoverer{
		profile:       profile,
		userAgent:     opts.UserAgent,
		parallelism:   opts.Parallelism,
		timeout:       opts.Timeout,
		respectRobots: opts.RespectRobots,
		logger:        log,
	}
}

// Discover fetches every seed, keeps at most limitPerSeed valid links per seed
// and returns their union in seed order. Failed seeds are logged and skipped.
func (d *PageDiscoverer) Discover(ctx context.Context, seeds []string, limitPerSeed int) ([]string, error) {
	if len(seeds) == 0 {
		return nil, nil
	}

	collector := colly.NewCollector(colly.Async(true))
	if d.userAgent != "" {
		collector.UserAgent = d.userAgent
	}
	collector.IgnoreRobotsTxt = !d.respectRobots
	collector.SetRequestTimeout(d.timeout)
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: d.parallelism,
	}); err != nil {
		return nil, fmt.Errorf("configure collector: %w", err)
	}

	var mu sync.Mutex
	found := make(map[string][]string, len(seeds))

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	collector.OnHTML("html", func(e *colly.HTMLElement) {
		seed := e.Request.Ctx.Get(seedKey)
		links := d.collectLinks(e, limitPerSeed)

		mu.Lock()
		found[seed] = links
		mu.Unlock()

		d.debug("seed discovered", "seed", seed, "links", len(links))
	})

	collector.OnError(func(r *colly.Response, err error) {
		d.warn("seed fetch failed", "seed", r.Request.Ctx.Get(seedKey), "status", r.StatusCode, "error", err)
	})

	for _, seed := range seeds {
		reqCtx := colly.NewContext()
		reqCtx.Put(seedKey, seed)
		if err := collector.Request(http.MethodGet, seed, nil, reqCtx, nil); err != nil {
			d.warn("seed request rejected", "seed", seed, "error", err)
		}
	}
	collector.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	perSeed := make([][]string, 0, len(seeds))
	for _, seed := range seeds {
		perSeed = append(perSeed, found[seed])
	}
	return unionLinks(perSeed), nil
}

func (d *PageDiscoverer) collectLinks(e *colly.HTMLElement, limit int) []string {
	seen := map[string]struct{}{}
	var links []string

	for _, selector := range d.profile.LinkSelectors {
		e.ForEach(selector, func(_ int, el *colly.HTMLElement) {
			href := el.Attr("href")
			if href == "" {
				return
			}
			absolute := e.Request.AbsoluteURL(href)
			if !d.profile.IsValidArticleURL(absolute) {
				return
			}
			if _, ok := seen[absolute]; ok {
				return
			}
			seen[absolute] = struct{}{}
			links = append(links, absolute)
		})
	}

	return capLinks(links, limit)
}

func capLinks(links []string, limit int) []string {
	if limit > 0 && len(links) > limit {
		return links[:limit]
	}
	return links
}

// unionLinks flattens per-seed results, keeping the first occurrence of each URL.
func unionLinks(groups [][]string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, group := range groups {
		for _, link := range group {
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			out = append(out, link)
		}
	}
	return out
}

func (d *PageDiscoverer) debug(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}

func (d *PageDiscoverer) warn(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}
