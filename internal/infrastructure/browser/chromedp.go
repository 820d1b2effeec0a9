package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"NewsRelay/internal/ports"
	"NewsRelay/pkg/logger"
)

const hideWebdriverScript = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined}); true`

var errElementMissing = errors.New("element not found")

// Options configure the Chrome instance.
type Options struct {
	Headless      bool
	UserAgent     string
	ActionTimeout time.Duration
}

// Launcher starts Chrome through chromedp.
type Launcher struct {
	opts   Options
	logger *slog.Logger
}

var _ ports.BrowserLauncher = (*Launcher)(nil)

// NewLauncher builds a launcher; ActionTimeout defaults to 10s.
func NewLauncher(opts Options, log *slog.Logger) *Launcher {
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 10 * time.Second
	}
	return &Launcher{opts: opts, logger: log}
}

func (l *Launcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("headless", l.opts.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-plugins", true),
	)
	if l.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(l.opts.UserAgent))
	}
	return opts
}

// Open launches a browser with one tab. The browser is torn down when ctx
// ends or when the session is closed, whichever comes first.
func (l *Launcher) Open(ctx context.Context) (ports.BrowserSession, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), l.allocatorOptions()...)

	var tabOpts []chromedp.ContextOption
	if l.logger != nil {
		tabOpts = append(tabOpts,
			chromedp.WithLogf(logger.Printf(l.logger, slog.LevelDebug)),
			chromedp.WithErrorf(logger.Printf(l.logger, slog.LevelWarn)),
		)
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, tabOpts...)

	s := &Session{
		ctx:           tabCtx,
		actionTimeout: l.opts.ActionTimeout,
	}
	s.cancel = func() {
		tabCancel()
		allocCancel()
	}
	s.stop = context.AfterFunc(ctx, s.cancel)

	// The first Run allocates the browser, so it must use the tab context itself.
	var ok bool
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(hideWebdriverScript, &ok)); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	if l.logger != nil {
		l.logger.Info("browser session started", "headless", l.opts.Headless)
	}
	return s, nil
}

// Session is one chromedp tab.
type Session struct {
	ctx           context.Context
	cancel        context.CancelFunc
	stop          func() bool
	actionTimeout time.Duration
}

var _ ports.BrowserSession = (*Session)(nil)

// Navigate loads url in the tab.
func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.runTimeout(ctx, 3*s.actionTimeout, chromedp.Navigate(url))
}

// Location returns the current URL of the tab.
func (s *Session) Location(ctx context.Context) (string, error) {
	var location string
	if err := s.runTimeout(ctx, s.actionTimeout, chromedp.Location(&location)); err != nil {
		return "", err
	}
	return location, nil
}

// WaitReady waits up to timeout for loc to become visible.
func (s *Session) WaitReady(ctx context.Context, loc ports.Locator, timeout time.Duration) error {
	return s.runTimeout(ctx, timeout, chromedp.WaitVisible(loc.Expr, queryOptions(loc)...))
}

// Click performs a native mouse click on loc.
func (s *Session) Click(ctx context.Context, loc ports.Locator) error {
	return s.runTimeout(ctx, s.actionTimeout, chromedp.Click(loc.Expr, queryOptions(loc)...))
}

// Clear empties an input element.
func (s *Session) Clear(ctx context.Context, loc ports.Locator) error {
	return s.runTimeout(ctx, s.actionTimeout, chromedp.Clear(loc.Expr, queryOptions(loc)...))
}

// SendKeys types text into loc.
func (s *Session) SendKeys(ctx context.Context, loc ports.Locator, text string) error {
	return s.runTimeout(ctx, s.actionTimeout, chromedp.SendKeys(loc.Expr, text, queryOptions(loc)...))
}

// ExecuteScript runs body with the located element bound to el.
func (s *Session) ExecuteScript(ctx context.Context, loc ports.Locator, body string) error {
	script, err := elementScript(loc, body)
	if err != nil {
		return err
	}

	var found bool
	if err := s.runTimeout(ctx, s.actionTimeout, chromedp.Evaluate(script, &found)); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", errElementMissing, loc)
	}
	return nil
}

// PressShortcut focuses loc and sends the key chord.
func (s *Session) PressShortcut(ctx context.Context, loc ports.Locator, shortcut ports.Shortcut) error {
	var keyOpts []chromedp.KeyOption
	if shortcut.Ctrl {
		keyOpts = append(keyOpts, chromedp.KeyModifiers(input.ModifierCtrl))
	}
	return s.runTimeout(ctx, s.actionTimeout,
		chromedp.Focus(loc.Expr, queryOptions(loc)...),
		chromedp.KeyEvent(keyName(shortcut.Key), keyOpts...),
	)
}

// Close shuts the browser down; it is safe to call more than once.
func (s *Session) Close() error {
	if s.stop != nil {
		s.stop()
	}
	var err error
	if s.ctx != nil {
		err = chromedp.Cancel(s.ctx)
	}
	if s.cancel != nil {
		s.cancel()
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Session) runTimeout(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	tab := s.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		tab, cancel = context.WithTimeout(tab, timeout)
		defer cancel()
	}
	return runBound(ctx, tab, actions...)
}

// runBound runs actions on tab while honouring cancellation of caller.
func runBound(caller, tab context.Context, actions ...chromedp.Action) error {
	if err := caller.Err(); err != nil {
		return err
	}
	opCtx, cancel := context.WithCancel(tab)
	defer cancel()
	stop := context.AfterFunc(caller, cancel)
	defer stop()
	return chromedp.Run(opCtx, actions...)
}

func queryOptions(loc ports.Locator) []chromedp.QueryOption {
	if loc.XPath {
		return []chromedp.QueryOption{chromedp.BySearch}
	}
	return []chromedp.QueryOption{chromedp.ByQuery}
}

func keyName(key string) string {
	switch key {
	case "Enter":
		return kb.Enter
	case "Tab":
		return kb.Tab
	case "Escape":
		return kb.Escape
	default:
		return key
	}
}

// elementScript wraps body in a function that receives the located element.
func elementScript(loc ports.Locator, body string) (string, error) {
	quoted, err := json.Marshal(loc.Expr)
	if err != nil {
		return "", fmt.Errorf("quote locator: %w", err)
	}

	lookup := fmt.Sprintf("document.querySelector(%s)", quoted)
	if loc.XPath {
		lookup = fmt.Sprintf("document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue", quoted)
	}
	return fmt.Sprintf("(function(el) { if (!el) { return false; } %s return true; })(%s)", body, lookup), nil
}
