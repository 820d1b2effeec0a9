package poster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"NewsRelay/internal/ports"
	"NewsRelay/pkg/pause"
)

const (
	scrollIntoViewScript = "el.scrollIntoView(true);"
	forcedClickScript    = "el.click();"
)

var (
	errNoComposeBox = errors.New("no compose box reachable")
	errNoSubmit     = errors.New("no submit control reachable")
)

// Timings bound the waits and pauses of every strategy.
type Timings struct {
	ElementTimeout time.Duration
	SubmitTimeout  time.Duration
	StepPause      time.Duration
	TypingPause    time.Duration
	SettlePause    time.Duration
}

// DefaultTimings mirrors the pauses the remote UI needs in practice.
func DefaultTimings() Timings {
	return Timings{
		ElementTimeout: 10 * time.Second,
		SubmitTimeout:  5 * time.Second,
		StepPause:      time.Second,
		TypingPause:    2 * time.Second,
		SettlePause:    3 * time.Second,
	}
}

// Strategy is one self-contained attempt: locate input, enter text, locate
// submit, submit. It reports the furthest state it reached.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, session ports.BrowserSession, text string) (State, error)
}

// SubmitMode selects how a SelectorStrategy submits the post.
type SubmitMode int

const (
	SubmitByClick SubmitMode = iota
	SubmitByShortcut
)

// SelectorStrategy is a Strategy described entirely by locator lists.
type SelectorStrategy struct {
	Label          string
	ComposeBoxes   []ports.Locator
	SubmitButtons  []ports.Locator
	Mode           SubmitMode
	Shortcut       ports.Shortcut
	ScrollIntoView bool
	Timings        Timings
}

var _ Strategy = (*SelectorStrategy)(nil)

// Name identifies the strategy in logs and in the ledger.
func (s *SelectorStrategy) Name() string {
	return s.Label
}

// Attempt walks the state machine until Confirmed or the first error.
func (s *SelectorStrategy) Attempt(ctx context.Context, session ports.BrowserSession, text string) (State, error) {
	box, err := s.firstReady(ctx, session, s.ComposeBoxes, s.Timings.ElementTimeout)
	if err != nil {
		return NotStarted, fmt.Errorf("%w: %v", errNoComposeBox, err)
	}

	if err := session.Click(ctx, box); err != nil {
		return ComposeBoxFound, fmt.Errorf("focus compose box: %w", err)
	}
	if err := pause.Sleep(ctx, s.Timings.StepPause); err != nil {
		return ComposeBoxFound, err
	}
	// contenteditable boxes cannot always be cleared; typing still works.
	_ = session.Clear(ctx, box)
	if err := session.SendKeys(ctx, box, text); err != nil {
		return ComposeBoxFound, fmt.Errorf("enter text: %w", err)
	}
	if err := pause.Sleep(ctx, s.Timings.TypingPause); err != nil {
		return TextEntered, err
	}

	if err := s.submit(ctx, session, box); err != nil {
		return TextEntered, err
	}

	if err := pause.Sleep(ctx, s.Timings.SettlePause); err != nil {
		return SubmitAttempted, err
	}
	return Confirmed, nil
}

func (s *SelectorStrategy) submit(ctx context.Context, session ports.BrowserSession, box ports.Locator) error {
	if s.Mode == SubmitByShortcut {
		if err := session.PressShortcut(ctx, box, s.Shortcut); err != nil {
			return fmt.Errorf("press shortcut: %w", err)
		}
		return nil
	}

	var lastErr error
	for _, button := range s.SubmitButtons {
		if err := session.WaitReady(ctx, button, s.Timings.SubmitTimeout); err != nil {
			lastErr = err
			continue
		}

		if s.ScrollIntoView {
			_ = session.ExecuteScript(ctx, button, scrollIntoViewScript)
			if err := pause.Sleep(ctx, s.Timings.StepPause); err != nil {
				return err
			}
		}

		if err := session.Click(ctx, button); err != nil {
			if err := session.ExecuteScript(ctx, button, forcedClickScript); err != nil {
				lastErr = fmt.Errorf("forced click on %s: %w", button, err)
				continue
			}
		}
		return nil
	}

	if lastErr == nil {
		return errNoSubmit
	}
	return fmt.Errorf("%w: %v", errNoSubmit, lastErr)
}

func (s *SelectorStrategy) firstReady(ctx context.Context, session ports.BrowserSession, locators []ports.Locator, timeout time.Duration) (ports.Locator, error) {
	var lastErr error
	for _, loc := range locators {
		if err := session.WaitReady(ctx, loc, timeout); err != nil {
			if ctx.Err() != nil {
				return ports.Locator{}, ctx.Err()
			}
			lastErr = err
			continue
		}
		return loc, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no candidates")
	}
	return ports.Locator{}, lastErr
}

// DefaultStrategies returns the three strategies tried for every post.
func DefaultStrategies(t Timings) []Strategy {
	composeTimeout := t
	composeTimeout.ElementTimeout = t.SubmitTimeout

	return []Strategy{
		&SelectorStrategy{
			Label:        "standard-compose",
			ComposeBoxes: []ports.Locator{ports.CSS(`[data-testid="tweetTextarea_0"]`)},
			SubmitButtons: []ports.Locator{
				ports.CSS(`[data-testid="tweetButtonInline"]`),
				ports.CSS(`[data-testid="tweetButton"]`),
				ports.CSS(`button[data-testid="tweetButtonInline"]`),
				ports.CSS(`button[data-testid="tweetButton"]`),
				ports.CSS(`[role="button"][data-testid="tweetButtonInline"]`),
				ports.CSS(`[role="button"][data-testid="tweetButton"]`),
			},
			ScrollIntoView: true,
			Timings:        t,
		},
		&SelectorStrategy{
			Label: "alternative-compose",
			ComposeBoxes: []ports.Locator{
				ports.CSS(`[placeholder="What is happening?!"]`),
				ports.CSS(`[placeholder="What's happening?"]`),
				ports.CSS(`[aria-label="Tweet text"]`),
				ports.CSS(`.public-DraftEditor-content`),
				ports.CSS(`[contenteditable="true"]`),
			},
			SubmitButtons: []ports.Locator{
				ports.CSS(`button[data-testid="tweetButtonInline"]`),
				ports.CSS(`button[data-testid="tweetButton"]`),
				ports.XPath(`//button[contains(text(), "Post")]`),
				ports.XPath(`//button[contains(text(), "Tweet")]`),
				ports.XPath(`//*[@role="button" and contains(text(), "Post")]`),
				ports.XPath(`//*[@role="button" and contains(text(), "Tweet")]`),
			},
			Timings: composeTimeout,
		},
		&SelectorStrategy{
			Label:        "keyboard-shortcut",
			ComposeBoxes: []ports.Locator{ports.CSS(`[data-testid="tweetTextarea_0"], [placeholder*="What"], [contenteditable="true"]`)},
			Mode:         SubmitByShortcut,
			Shortcut:     ports.Shortcut{Key: "Enter", Ctrl: true},
			Timings:      t,
		},
	}
}
