package placement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spellbee/spellbee-server/internal/domain"
	"github.com/spellbee/spellbee-server/internal/progression"
)

type fakeWords struct {
	calls    int
	failAt   int // 1-based call that fails, 0 never
	tiers    []progression.Tier
	excludes [][]string
}

func (f *fakeWords) NextWord(_ context.Context, tier progression.Tier, exclude []string) (*domain.Word, error) {
	f.calls++
	f.tiers = append(f.tiers, tier)
	f.excludes = append(f.excludes, exclude)
	if f.failAt == f.calls {
		return nil, errors.New("word bank unavailable")
	}
	return &domain.Word{ID: fmt.Sprintf("word-%d", f.calls), Text: "bee", Tier: int(tier)}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func fixedClock() time.Time {
	return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}

func TestRunner_AllCorrect(t *testing.T) {
	words := &fakeWords{}
	r := NewRunner(words, discardLogger(), WithFeedbackDelay(0), WithClock(fixedClock))

	sum, err := r.Run(context.Background(), AnswererFunc(func(_ context.Context, w domain.Word) (string, error) {
		return w.Text, nil
	}))
	require.NoError(t, err)

	assert.False(t, sum.Failed)
	assert.Equal(t, 10, sum.Record.Rounds)
	assert.Equal(t, 7, sum.Record.DerivedTier)
	assert.Equal(t, 2000.0, sum.Record.Rating)
	assert.Equal(t, fixedClock(), sum.Record.CreatedAt)

	assert.Equal(t, progression.PlacementStartTier, words.tiers[0])
	assert.Equal(t, progression.MaxTier, words.tiers[9])
}

func TestRunner_ExcludesUsedWords(t *testing.T) {
	words := &fakeWords{}
	r := NewRunner(words, discardLogger(), WithFeedbackDelay(0), WithRounds(4))

	_, err := r.Run(context.Background(), AnswererFunc(func(context.Context, domain.Word) (string, error) {
		return "", nil
	}))
	require.NoError(t, err)

	require.Len(t, words.excludes, 4)
	assert.Empty(t, words.excludes[0])
	assert.Equal(t, []string{"word-1", "word-2", "word-3"}, words.excludes[3])
	for i, ex := range words.excludes {
		assert.False(t, slices.Contains(ex, fmt.Sprintf("word-%d", i+1)))
	}
}

func TestRunner_WordFetchFailureSummarizesPartial(t *testing.T) {
	words := &fakeWords{failAt: 4}
	r := NewRunner(words, discardLogger(), WithFeedbackDelay(0))

	sum, err := r.Run(context.Background(), AnswererFunc(func(_ context.Context, w domain.Word) (string, error) {
		return w.Text, nil
	}))
	require.NoError(t, err)

	assert.True(t, sum.Failed)
	assert.Equal(t, 3, sum.Record.Rounds)
	assert.Equal(t, 4, words.calls, "no retries after a failure")
}

func TestRunner_CancelDuringFeedback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner(&fakeWords{}, discardLogger(), WithFeedbackDelay(time.Hour))

	_, err := r.Run(ctx, AnswererFunc(func(_ context.Context, w domain.Word) (string, error) {
		cancel()
		return w.Text, nil
	}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_AnswererErrorAbandons(t *testing.T) {
	r := NewRunner(&fakeWords{}, discardLogger(), WithFeedbackDelay(0))

	_, err := r.Run(context.Background(), AnswererFunc(func(context.Context, domain.Word) (string, error) {
		return "", errors.New("microphone unplugged")
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "microphone unplugged")
}
