package poster

import (
	"context"
	"fmt"
	"log/slog"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

// AttemptResult records how far one strategy got.
type AttemptResult struct {
	Index    int
	Strategy string
	Reached  State
	Err      error
}

// Outcome is the result of one post across the whole ladder.
type Outcome struct {
	State State
	// StrategyIndex is the 1-based index of the confirming strategy, 0 if none.
	StrategyIndex int
	StrategyName  string
	Attempts      []AttemptResult
}

// Confirmed reports whether some strategy confirmed the post.
func (o Outcome) Confirmed() bool {
	return o.State == Confirmed
}

// Ladder tries strategies in order until one confirms.
type Ladder struct {
	strategies []Strategy
	logger     *slog.Logger
}

// NewLadder builds a ladder over strategies in the given order.
func NewLadder(log *slog.Logger, strategies ...Strategy) *Ladder {
	return &Ladder{strategies: strategies, logger: log}
}

// Post runs the ladder for text. When every strategy fails the outcome is
// Failed and the error carries domain.ReasonExhausted.
func (l *Ladder) Post(ctx context.Context, session ports.BrowserSession, text string) (Outcome, error) {
	outcome := Outcome{State: NotStarted}

	for i, strategy := range l.strategies {
		if err := ctx.Err(); err != nil {
			outcome.State = Failed
			return outcome, err
		}

		index := i + 1
		l.info("trying strategy", "index", index, "strategy", strategy.Name())

		reached, err := strategy.Attempt(ctx, session, text)
		outcome.Attempts = append(outcome.Attempts, AttemptResult{
			Index:    index,
			Strategy: strategy.Name(),
			Reached:  reached,
			Err:      err,
		})

		if err == nil && reached == Confirmed {
			outcome.State = Confirmed
			outcome.StrategyIndex = index
			outcome.StrategyName = strategy.Name()
			l.info("strategy confirmed post", "index", index, "strategy", strategy.Name())
			return outcome, nil
		}

		l.warn("strategy failed", "index", index, "strategy", strategy.Name(), "reached", reached.String(), "error", err)
	}

	outcome.State = Failed
	return outcome, domain.Fail(domain.ReasonExhausted, domain.Preview(text, 50), fmt.Errorf("%d strategies tried", len(l.strategies)))
}

func (l *Ladder) info(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Info(msg, args...)
	}
}

func (l *Ladder) warn(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Warn(msg, args...)
	}
}
