package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/spellbee/spellbee-server/internal/domain"
	"github.com/spellbee/spellbee-server/internal/progression"
)

func (s *Server) registerWordRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "nextWord",
		Method:      http.MethodGet,
		Path:        "/api/v1/words/next",
		Summary:     "Next word",
		Description: "Returns a random word at the given tier, skipping excluded ids. Used by the placement quiz before an account exists.",
		Tags:        []string{"Words"},
	}, s.handleNextWord)
}

// NextWordInput contains the next-word query parameters.
type NextWordInput struct {
	Tier    int      `query:"tier" doc:"Tier 1..7"`
	Exclude []string `query:"exclude" doc:"Word ids already used in this session"`
}

// WordOutput wraps a word for Huma.
type WordOutput struct {
	Body *domain.Word
}

func (s *Server) handleNextWord(ctx context.Context, input *NextWordInput) (*WordOutput, error) {
	w, err := s.services.Word.NextWord(ctx, progression.Tier(input.Tier), input.Exclude)
	if err != nil {
		return nil, err
	}
	return &WordOutput{Body: w}, nil
}
