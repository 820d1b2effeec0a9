package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

// StoreVersion tags the Article Store layout written by the harvester.
const StoreVersion = "3.0-IMPROVED"

// HarvesterDeps wires discovery, extraction, annotation and persistence.
type HarvesterDeps struct {
	Pages     ports.LinkDiscoverer
	Feeds     ports.LinkDiscoverer
	Extractor ports.ArticleExtractor
	Annotator *Annotator
	Store     ports.ArticleStoreWriter
	Archive   ports.ArticleArchive

	Categories      []domain.CategorySeed
	LimitPerSeed    int
	ExtractWorkers  int
	AnnotateWorkers int
	Method          string
	ModelName       string

	Logger   *slog.Logger
	Now      func() time.Time
	NewRunID func() string
}

// Harvester turns category seeds into an annotated Article Store.
type Harvester struct {
	pages     ports.LinkDiscoverer
	feeds     ports.LinkDiscoverer
	extractor ports.ArticleExtractor
	annotator *Annotator
	store     ports.ArticleStoreWriter
	archive   ports.ArticleArchive

	categories      []domain.CategorySeed
	limitPerSeed    int
	extractWorkers  int
	annotateWorkers int
	method          string
	modelName       string

	logger   *slog.Logger
	now      func() time.Time
	newRunID func() string
}

// NewHarvester applies the pool defaults (extraction 3, annotation 2).
func NewHarvester(deps HarvesterDeps) *Harvester {
	h := &Harvester{
		pages:           deps.Pages,
		feeds:           deps.Feeds,
		extractor:       deps.Extractor,
		annotator:       deps.Annotator,
		store:           deps.Store,
		archive:         deps.Archive,
		categories:      deps.Categories,
		limitPerSeed:    deps.LimitPerSeed,
		extractWorkers:  deps.ExtractWorkers,
		annotateWorkers: deps.AnnotateWorkers,
		method:          deps.Method,
		modelName:       deps.ModelName,
		logger:          deps.Logger,
		now:             deps.Now,
		newRunID:        deps.NewRunID,
	}
	if h.limitPerSeed <= 0 {
		h.limitPerSeed = 5
	}
	if h.extractWorkers <= 0 {
		h.extractWorkers = 3
	}
	if h.annotateWorkers <= 0 {
		h.annotateWorkers = 2
	}
	if h.annotator == nil {
		h.annotator = NewAnnotator(AnnotatorDeps{Logger: deps.Logger})
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.newRunID == nil {
		h.newRunID = uuid.NewString
	}
	return h
}

// Run performs one harvest. It returns domain.ErrNothingProduced when no
// category yielded an article; the previous store is then left untouched.
func (h *Harvester) Run(ctx context.Context) (HarvestReport, error) {
	report := HarvestReport{
		RunID:    h.newRunID(),
		Started:  h.now(),
		Failures: map[domain.Reason]int{},
	}
	h.info("harvest started", "run_id", report.RunID, "categories", len(h.categories))

	seen := map[string]struct{}{}
	var (
		categories domain.Categories
		all        []domain.Article
	)

	for _, seed := range h.categories {
		urls, err := h.discover(ctx, seed, seen)
		if err != nil {
			return report, err
		}
		report.Discovered += len(urls)
		if len(urls) == 0 {
			h.info("no articles found", "category", seed.Name)
			continue
		}
		h.info("urls discovered", "category", seed.Name, "urls", len(urls))

		extracted, err := h.extractAll(ctx, urls, report.Failures)
		if err != nil {
			return report, err
		}
		if len(extracted) == 0 {
			h.info("no articles extracted", "category", seed.Name)
			continue
		}

		annotated, err := h.annotateAll(ctx, extracted)
		if err != nil {
			return report, err
		}

		categories = append(categories, SummarizeCategory(seed.Name, annotated))
		all = append(all, annotated...)
		report.PerCategory = append(report.PerCategory, CategoryCount{Name: seed.Name, Articles: len(annotated)})
		h.info("category processed", "category", seed.Name, "articles", len(annotated))
	}

	report.Completed = h.now()
	report.Articles = len(all)
	report.Categories = len(categories)

	if len(all) == 0 {
		h.warn("harvest produced no articles", "run_id", report.RunID, "failures", report.Failures)
		return report, domain.ErrNothingProduced
	}

	store := domain.ArticleStore{
		CrawlMetadata: domain.CrawlMetadata{
			RunID:     report.RunID,
			Started:   report.Started,
			Completed: report.Completed,
			Method:    h.method,
			ModelUsed: h.modelName,
			Version:   StoreVersion,
			Success:   true,
			Failures:  report.Failures,
		},
		Categories:  categories,
		Summary:     SummarizeAll(all),
		AllArticles: all,
	}

	if h.store != nil {
		if err := h.store.SaveArticleStore(ctx, store); err != nil {
			return report, fmt.Errorf("save article store: %w", err)
		}
	}

	if h.archive != nil {
		if err := h.archive.Archive(ctx, all); err != nil {
			h.warn("archive failed", "articles", len(all), "error", err)
		}
	}

	h.info("harvest finished", "run_id", report.RunID, "articles", report.Articles, "categories", report.Categories)
	return report, nil
}

// discover returns the category's candidate URLs that no earlier category
// of this run has claimed.
func (h *Harvester) discover(ctx context.Context, seed domain.CategorySeed, seen map[string]struct{}) ([]string, error) {
	var candidates []string

	if h.pages != nil && len(seed.Pages) > 0 {
		links, err := h.pages.Discover(ctx, seed.Pages, h.limitPerSeed)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			h.warn("page discovery failed", "category", seed.Name, "error", err)
		}
		candidates = append(candidates, links...)
	}

	if h.feeds != nil && len(seed.Feeds) > 0 {
		links, err := h.feeds.Discover(ctx, seed.Feeds, h.limitPerSeed)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			h.warn("feed discovery failed", "category", seed.Name, "error", err)
		}
		candidates = append(candidates, links...)
	}

	urls := make([]string, 0, len(candidates))
	for _, u := range candidates {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	return urls, nil
}

func (h *Harvester) extractAll(ctx context.Context, urls []string, failures map[domain.Reason]int) ([]domain.Article, error) {
	slots := make([]domain.Article, len(urls))
	errs := make([]error, len(urls))

	var g errgroup.Group
	g.SetLimit(h.extractWorkers)
	for i, u := range urls {
		g.Go(func() error {
			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				return nil
			}
			slots[i], errs[i] = h.extractor.Extract(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	articles := make([]domain.Article, 0, len(urls))
	for i, err := range errs {
		if err != nil {
			reason := domain.ReasonOf(err)
			failures[reason]++
			h.warn("extraction failed", "url", urls[i], "reason", reason, "error", err)
			continue
		}
		articles = append(articles, slots[i])
	}
	return articles, nil
}

func (h *Harvester) annotateAll(ctx context.Context, articles []domain.Article) ([]domain.Article, error) {
	slots := make([]domain.Article, len(articles))

	var g errgroup.Group
	g.SetLimit(h.annotateWorkers)
	for i, article := range articles {
		g.Go(func() error {
			slots[i] = h.annotator.Annotate(ctx, article)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}

func (h *Harvester) info(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Info(msg, args...)
	}
}

func (h *Harvester) warn(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Warn(msg, args...)
	}
}
