package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/infrastructure/browser"
	"NewsRelay/internal/infrastructure/llm"
	"NewsRelay/internal/infrastructure/parser"
	"NewsRelay/internal/infrastructure/scheduler"
	"NewsRelay/internal/infrastructure/storage"
	"NewsRelay/internal/infrastructure/telegram"
	"NewsRelay/internal/logging"
	"NewsRelay/internal/ports"
	"NewsRelay/internal/poster"
	"NewsRelay/internal/site"
	"NewsRelay/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	profile site.Profile
	closers []func(context.Context) error
}

// New resolves the site profile and prepares lazy stage construction.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	profile, err := site.NewRegistry().Resolve(cfg.Site)
	if err != nil {
		return nil, err
	}

	return &Application{cfg: cfg, logger: baseLogger, profile: profile}, nil
}

// Harvest runs one harvest.
func (a *Application) Harvest(ctx context.Context) (usecase.HarvestReport, error) {
	h, err := a.harvester(ctx)
	if err != nil {
		return usecase.HarvestReport{}, err
	}
	return h.Run(ctx)
}

// Compose drafts posts from the article store.
func (a *Application) Compose(ctx context.Context) (usecase.ComposeReport, error) {
	c, err := a.composer()
	if err != nil {
		return usecase.ComposeReport{}, err
	}
	return c.Run(ctx)
}

// Publish submits the post queue.
func (a *Application) Publish(ctx context.Context) (usecase.PublishReport, error) {
	p, err := a.publisher(ctx)
	if err != nil {
		return usecase.PublishReport{}, err
	}
	return p.Run(ctx)
}

// RunAll chains the three stages once, or on schedule.interval until ctx ends.
func (a *Application) RunAll(ctx context.Context) error {
	pipeline, err := a.pipeline(ctx)
	if err != nil {
		return err
	}

	if a.cfg.Schedule.Interval <= 0 {
		_, err := pipeline.RunOnce(ctx)
		return err
	}

	driver := scheduler.NewIntervalScheduler(a.cfg.Schedule.Interval)
	jobs := usecase.NewScheduler(driver, pipeline, a.logger.With("component", "scheduler"))
	if err := jobs.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "interval", a.cfg.Schedule.Interval)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := jobs.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	return nil
}

// Close releases database and archive connections.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *Application) pipeline(ctx context.Context) (*usecase.Pipeline, error) {
	h, err := a.harvester(ctx)
	if err != nil {
		return nil, err
	}
	c, err := a.composer()
	if err != nil {
		return nil, err
	}
	p, err := a.publisher(ctx)
	if err != nil {
		return nil, err
	}

	return usecase.NewPipeline(usecase.PipelineDeps{
		Harvester: h,
		Composer:  c,
		Publisher: p,
		Notifier:  a.notifier(),
		Logger:    a.logger.With("component", "pipeline"),
	}), nil
}

func (a *Application) harvester(ctx context.Context) (*usecase.Harvester, error) {
	hc := a.cfg.Harvester

	model, err := llm.New(a.cfg.Annotator.Provider, a.cfg.Providers)
	if err != nil {
		return nil, fmt.Errorf("annotator: %w", err)
	}
	a.checkBackend(ctx, model)

	client := &http.Client{Timeout: hc.RequestTimeout}
	fetcher := parser.NewFetcher(client, hc.UserAgent, hc.RequestTimeout)

	var robots *parser.RobotsGate
	if hc.RespectRobots {
		robots = parser.NewRobotsGate(client, hc.UserAgent)
	}

	pages := parser.NewPageDiscoverer(a.profile, parser.PageDiscovererOptions{
		UserAgent:     hc.UserAgent,
		Parallelism:   hc.DiscoveryWorkers,
		Timeout:       hc.RequestTimeout,
		RespectRobots: hc.RespectRobots,
	}, a.logger.With("component", "discovery.pages"))
	feeds := parser.NewFeedDiscoverer(fetcher, a.profile, hc.DiscoveryWorkers, a.logger.With("component", "discovery.feeds"))

	extractor := parser.NewHTMLExtractor(fetcher, robots, a.profile, parser.ExtractorOptions{
		MinParagraphs:   hc.MinParagraphs,
		MinParagraphLen: hc.MinParagraphLen,
		MinContentLen:   hc.MinContentLen,
		MaxContentLen:   hc.MaxContentLen,
		Readability:     hc.Readability,
	})

	annotator := usecase.NewAnnotator(usecase.AnnotatorDeps{
		Model:      model,
		ModelName:  a.cfg.Annotator.Model,
		Options:    llm.Options(a.cfg.Annotator),
		ExcerptLen: hc.ExcerptLen,
		Logger:     a.logger.With("component", "annotator"),
	})

	var archive ports.ArticleArchive
	if a.cfg.Archive.MongoURI != "" {
		mongo, err := storage.NewMongoArchive(ctx, a.cfg.Archive.MongoURI, a.cfg.Archive.Database, a.cfg.Archive.Collection)
		if err != nil {
			a.logger.Warn("article archive unavailable", "error", err)
		} else {
			archive = mongo
			a.closers = append(a.closers, mongo.Close)
		}
	}

	return usecase.NewHarvester(usecase.HarvesterDeps{
		Pages:           pages,
		Feeds:           feeds,
		Extractor:       extractor,
		Annotator:       annotator,
		Store:           storage.NewArticleStoreFile(hc.Output, a.logger.With("component", "store")),
		Archive:         archive,
		Categories:      a.categories(),
		LimitPerSeed:    hc.LimitPerSeed,
		ExtractWorkers:  hc.ExtractWorkers,
		AnnotateWorkers: hc.AnnotateWorkers,
		Method:          "colly + goquery + " + a.cfg.Annotator.Provider,
		ModelName:       a.cfg.Annotator.Model,
		Logger:          a.logger.With("component", "harvester"),
	}), nil
}

func (a *Application) composer() (*usecase.Composer, error) {
	cc := a.cfg.Composer

	drafter, err := llm.New(cc.Drafter.Provider, a.cfg.Providers)
	if err != nil {
		return nil, fmt.Errorf("drafter: %w", err)
	}
	hashtagger, err := llm.New(cc.Hashtagger.Provider, a.cfg.Providers)
	if err != nil {
		return nil, fmt.Errorf("hashtagger: %w", err)
	}

	return usecase.NewComposer(usecase.ComposerDeps{
		Store:             storage.NewArticleStoreFile(cc.Input, a.logger.With("component", "store")),
		Queue:             storage.NewPostQueueFile(cc.Output),
		Drafter:           drafter,
		DrafterModel:      cc.Drafter.Model,
		DrafterOptions:    llm.Options(cc.Drafter),
		Hashtagger:        hashtagger,
		HashtaggerModel:   cc.Hashtagger.Model,
		HashtaggerOptions: llm.Options(cc.Hashtagger),
		MaxArticles:       cc.MaxArticles,
		Delay:             cc.Delay,
		CharLimit:         cc.CharLimit,
		TargetLength:      cc.TargetLength,
		MaxHashtags:       cc.MaxHashtags,
		Logger:            a.logger.With("component", "composer"),
	}), nil
}

func (a *Application) publisher(ctx context.Context) (*usecase.Publisher, error) {
	pc := a.cfg.Publisher
	if pc.Username == "" || pc.Password == "" {
		return nil, fmt.Errorf("publisher credentials missing: set PUBLISHER_USERNAME and PUBLISHER_PASSWORD")
	}

	var ledger ports.PostLedger
	if a.cfg.Ledger.DSN != "" {
		l, err := storage.OpenLedger(ctx, a.cfg.Ledger.Driver, a.cfg.Ledger.DSN)
		if err != nil {
			return nil, fmt.Errorf("ledger: %w", err)
		}
		ledger = l
		a.closers = append(a.closers, func(context.Context) error { return l.Close() })
	}

	timings := poster.DefaultTimings()
	timings.ElementTimeout = pc.ElementTimeout
	timings.StepPause = pc.StepPause
	timings.SettlePause = pc.SettlePause

	launcher := browser.NewLauncher(browser.Options{
		Headless:      pc.Headless,
		UserAgent:     pc.UserAgent,
		ActionTimeout: pc.ElementTimeout,
	}, a.logger.With("component", "browser"))

	return usecase.NewPublisher(usecase.PublisherDeps{
		Queue:    storage.NewPostQueueFile(pc.Input),
		Launcher: launcher,
		Ledger:   ledger,
		Settings: poster.Settings{
			Username:     pc.Username,
			Password:     pc.Password,
			LoginURL:     pc.LoginURL,
			HomeURL:      pc.HomeURL,
			LoginTimeout: pc.LoginTimeout,
			Timings:      timings,
		},
		Interval:  pc.Interval,
		MaxPosts:  pc.MaxPosts,
		CharLimit: pc.CharLimit,
		HoldOpen:  pc.HoldOpen,
		Logger:    a.logger.With("component", "publisher"),
	}), nil
}

func (a *Application) notifier() ports.Notifier {
	tg := a.cfg.Notifications.Telegram
	if tg.BotToken == "" || tg.ChatID == "" {
		return nil
	}
	return telegram.NewNotifier(tg.BaseURL, tg.BotToken, tg.ChatID)
}

// categories prefers configured seeds over the profile's built-in ones.
func (a *Application) categories() []domain.CategorySeed {
	if len(a.cfg.Harvester.Categories) == 0 {
		return a.profile.Seeds
	}
	seeds := make([]domain.CategorySeed, 0, len(a.cfg.Harvester.Categories))
	for _, c := range a.cfg.Harvester.Categories {
		seeds = append(seeds, domain.CategorySeed{Name: c.Name, Pages: c.Pages, Feeds: c.Feeds})
	}
	return seeds
}

// checkBackend logs a warning when a pingable backend is down; the harvest
// still runs and annotations fall back.
func (a *Application) checkBackend(ctx context.Context, model ports.LanguageModel) {
	pinger, ok := model.(interface{ Ping(context.Context) error })
	if !ok {
		return
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pinger.Ping(pingCtx); err != nil {
		a.logger.Warn("annotation backend not ready", "provider", a.cfg.Annotator.Provider, "error", err)
	}
}
