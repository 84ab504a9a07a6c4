package placement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spellbee/spellbee-server/internal/domain"
	"github.com/spellbee/spellbee-server/internal/progression"
)

// DefaultFeedbackDelay is how long the result of a round stays on screen.
const DefaultFeedbackDelay = 1500 * time.Millisecond

// WordSource supplies the next placement word at a tier, never one from exclude.
type WordSource interface {
	NextWord(ctx context.Context, tier progression.Tier, exclude []string) (*domain.Word, error)
}

// Answerer collects the player's spelling of a word. Returning "" counts as a
// timeout. Returning an error abandons the run.
type Answerer interface {
	Answer(ctx context.Context, word domain.Word) (string, error)
}

// AnswererFunc adapts a function to Answerer.
type AnswererFunc func(ctx context.Context, word domain.Word) (string, error)

// Answer calls f.
func (f AnswererFunc) Answer(ctx context.Context, word domain.Word) (string, error) {
	return f(ctx, word)
}

// Runner plays a full placement quiz against a word source.
type Runner struct {
	words         WordSource
	rounds        int
	feedbackDelay time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRounds overrides the quiz length.
func WithRounds(n int) RunnerOption {
	return func(r *Runner) { r.rounds = n }
}

// WithFeedbackDelay overrides the pause after each graded round.
func WithFeedbackDelay(d time.Duration) RunnerOption {
	return func(r *Runner) { r.feedbackDelay = d }
}

// WithClock overrides the clock used for the record timestamp.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a Runner.
func NewRunner(words WordSource, logger *slog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		words:         words,
		rounds:        progression.PlacementRounds,
		feedbackDelay: DefaultFeedbackDelay,
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run plays until the quiz completes. A word fetch failure ends the run early
// with Summary.Failed set. Cancelling ctx abandons the run and returns ctx.Err();
// nothing is summarized in that case.
func (r *Runner) Run(ctx context.Context, player Answerer) (Summary, error) {
	s, err := New(r.rounds).Start()
	if err != nil {
		return Summary{}, err
	}

	for !s.Done() {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}

		s, err = r.step(ctx, s, player)
		if err != nil {
			return Summary{}, err
		}
	}

	if s.Failed {
		r.logger.Warn("placement ended early",
			"played", s.Played,
			"rounds", s.Rounds,
			"error", s.Cause,
		)
	}

	return Summarize(s, r.now()), nil
}

// step runs one round from loading through feedback.
func (r *Runner) step(ctx context.Context, s State, player Answerer) (State, error) {
	word, err := r.words.NextWord(ctx, s.Tier, s.Used())
	if err != nil || word == nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return s, ctxErr
		}
		if err == nil {
			err = fmt.Errorf("no word available at tier %d", s.Tier)
		}
		return s.WordFailed(err)
	}

	if s, err = s.WordLoaded(*word); err != nil {
		return s, err
	}
	if s, err = s.Begin(); err != nil {
		return s, err
	}

	answer, err := player.Answer(ctx, *word)
	if err != nil {
		return s, fmt.Errorf("collect answer: %w", err)
	}

	if s, err = s.Submit(answer); err != nil {
		return s, err
	}
	if s, err = s.Grade(); err != nil {
		return s, err
	}

	r.logger.Debug("placement round graded",
		"round", s.Played,
		"correct", s.LastCorrect,
		"next_tier", int(s.Tier),
	)

	if err := r.wait(ctx); err != nil {
		return s, err
	}
	return s.Advance()
}

func (r *Runner) wait(ctx context.Context) error {
	if r.feedbackDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(r.feedbackDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
