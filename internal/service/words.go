package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spellbee/spellbee-server/internal/domain"
	domainerrors "github.com/spellbee/spellbee-server/internal/errors"
	"github.com/spellbee/spellbee-server/internal/id"
	"github.com/spellbee/spellbee-server/internal/normalize"
	"github.com/spellbee/spellbee-server/internal/placement"
	"github.com/spellbee/spellbee-server/internal/progression"
	"github.com/spellbee/spellbee-server/internal/store"
)

// MaxExcludedWords bounds the exclude list of a next-word request.
const MaxExcludedWords = 50

var _ placement.WordSource = (*WordService)(nil)

// WordService serves the tiered word bank.
type WordService struct {
	store  store.Store
	logger *slog.Logger
}

// NewWordService creates a new word service.
func NewWordService(store store.Store, logger *slog.Logger) *WordService {
	return &WordService{store: store, logger: logger}
}

// NextWord returns a random word at tier that is not in exclude.
func (s *WordService) NextWord(ctx context.Context, tier progression.Tier, exclude []string) (_ *domain.Word, err error) {
	ctx, span := tracer.Start(ctx, "WordService.NextWord")
	defer func() { endSpan(span, err) }()

	if !tier.Valid() {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{"tier": "must be between 1 and 7"})
	}
	if len(exclude) > MaxExcludedWords {
		return nil, domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"exclude": fmt.Sprintf("at most %d words", MaxExcludedWords)})
	}

	w, err := s.store.RandomWord(ctx, int(tier), exclude)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("no words left at tier %d", tier)
	}
	if err != nil {
		return nil, fmt.Errorf("random word: %w", err)
	}
	return w, nil
}

// WordInput is one word to import.
type WordInput struct {
	Text string `json:"text" validate:"required,max=64"`
	Tier int    `json:"tier" validate:"gte=1,lte=7"`
}

// ImportWords validates and stores words. Ids derive from the normalized text,
// so importing a word again only updates its tier. Duplicates inside one batch
// keep the first occurrence.
func (s *WordService) ImportWords(ctx context.Context, inputs []WordInput) (_ int, err error) {
	ctx, span := tracer.Start(ctx, "WordService.ImportWords")
	defer func() { endSpan(span, err) }()

	seen := make(map[string]bool, len(inputs))
	words := make([]domain.Word, 0, len(inputs))
	for _, in := range inputs {
		if err := validate.Validate(in); err != nil {
			return 0, err
		}
		text := normalize.Answer(in.Text)
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		words = append(words, domain.Word{
			ID:   id.PrefixWord + "-" + text,
			Text: text,
			Tier: in.Tier,
		})
	}

	n, err := s.store.UpsertWords(ctx, words)
	if err != nil {
		return 0, fmt.Errorf("upsert words: %w", err)
	}
	s.logger.Info("words imported", "count", n)
	return n, nil
}
