package poster

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
	"NewsRelay/pkg/pause"
)

// Login flow locators.
var (
	usernameInput = ports.CSS(`input[autocomplete="username"]`)
	nextButton    = ports.XPath(`//span[text()="Next"]`)
	passwordInput = ports.CSS(`input[name="password"]`)
	loginButton   = ports.XPath(`//span[text()="Log in"]`)
	homeIndicator = ports.CSS(`[data-testid="primaryColumn"]`)
)

// Settings configure an authenticated posting session.
type Settings struct {
	Username     string
	Password     string
	LoginURL     string
	HomeURL      string
	LoginTimeout time.Duration
	Timings      Timings
}

// Poster drives one browser session: login once, then post through the ladder.
type Poster struct {
	session  ports.BrowserSession
	ladder   *Ladder
	settings Settings
	logger   *slog.Logger
}

// New builds a Poster using the default strategy ladder.
func New(session ports.BrowserSession, settings Settings, log *slog.Logger) *Poster {
	return NewWithLadder(session, NewLadder(log, DefaultStrategies(settings.Timings)...), settings, log)
}

// NewWithLadder builds a Poster around a custom ladder.
func NewWithLadder(session ports.BrowserSession, ladder *Ladder, settings Settings, log *slog.Logger) *Poster {
	if settings.LoginTimeout <= 0 {
		settings.LoginTimeout = 30 * time.Second
	}
	return &Poster{session: session, ladder: ladder, settings: settings, logger: log}
}

// Login authenticates the session. Every failure is domain.ReasonAuth.
func (p *Poster) Login(ctx context.Context) error {
	fail := func(step string, err error) error {
		return domain.Fail(domain.ReasonAuth, p.settings.Username, fmt.Errorf("%s: %w", step, err))
	}

	p.info("navigating to login page", "url", p.settings.LoginURL)
	if err := p.session.Navigate(ctx, p.settings.LoginURL); err != nil {
		return fail("open login page", err)
	}

	if err := p.fill(ctx, usernameInput, p.settings.Username); err != nil {
		return fail("enter username", err)
	}
	if err := p.press(ctx, nextButton); err != nil {
		return fail("advance to password", err)
	}
	if err := pause.Sleep(ctx, 2*p.settings.Timings.StepPause); err != nil {
		return fail("advance to password", err)
	}

	if err := p.fill(ctx, passwordInput, p.settings.Password); err != nil {
		return fail("enter password", err)
	}
	if err := p.press(ctx, loginButton); err != nil {
		return fail("submit credentials", err)
	}

	p.info("waiting for login to complete")
	if err := p.session.WaitReady(ctx, homeIndicator, p.settings.LoginTimeout); err != nil {
		return fail("wait for home timeline", err)
	}

	p.info("logged in")
	if err := pause.Sleep(ctx, p.settings.Timings.SettlePause); err != nil {
		return fail("settle after login", err)
	}
	return nil
}

// Post returns to the home page if needed and runs the strategy ladder.
func (p *Poster) Post(ctx context.Context, text string) (Outcome, error) {
	if err := p.ensureHome(ctx); err != nil {
		return Outcome{State: Failed}, err
	}
	return p.ladder.Post(ctx, p.session, text)
}

func (p *Poster) ensureHome(ctx context.Context) error {
	location, err := p.session.Location(ctx)
	if err == nil && strings.Contains(location, "home") {
		return nil
	}
	if err := p.session.Navigate(ctx, p.settings.HomeURL); err != nil {
		return fmt.Errorf("navigate home: %w", err)
	}
	return pause.Sleep(ctx, p.settings.Timings.SettlePause)
}

func (p *Poster) fill(ctx context.Context, loc ports.Locator, value string) error {
	if err := p.session.WaitReady(ctx, loc, p.settings.LoginTimeout); err != nil {
		return err
	}
	_ = p.session.Clear(ctx, loc)
	return p.session.SendKeys(ctx, loc, value)
}

func (p *Poster) press(ctx context.Context, loc ports.Locator) error {
	if err := p.session.WaitReady(ctx, loc, p.settings.Timings.ElementTimeout); err != nil {
		return err
	}
	return p.session.Click(ctx, loc)
}

func (p *Poster) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}
