// Package placement implements the adaptive placement quiz played before an
// account exists.
//
// A quiz is a State value advanced by transition methods. Each method returns
// the next State and never mutates the receiver, so callers can keep or drop
// old values freely. Runner drives a State against real collaborators.
package placement

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/spellbee/spellbee-server/internal/domain"
	"github.com/spellbee/spellbee-server/internal/normalize"
	"github.com/spellbee/spellbee-server/internal/progression"
)

// Phase is a step of the quiz state machine.
type Phase string

// Phases in the order a round visits them.
const (
	PhaseIdle     Phase = "idle"
	PhaseLoading  Phase = "loading"
	PhaseReady    Phase = "ready"
	PhasePlaying  Phase = "playing"
	PhaseChecking Phase = "checking"
	PhaseFeedback Phase = "feedback"
	PhaseComplete Phase = "complete"
)

// ErrInvalidTransition is returned when a transition is not allowed from the current phase.
var ErrInvalidTransition = errors.New("invalid placement transition")

// State is one placement run. The zero value is not usable; call New.
type State struct {
	Phase   Phase
	Rounds  int // fixed quiz length
	Played  int // rounds graded so far
	Correct int

	// Tier is the adaptive difficulty for the next word. It only picks words
	// and plays no part in the final estimate.
	Tier progression.Tier

	Word        *domain.Word
	Answer      string
	LastCorrect bool

	// Failed is set when the quiz ended early because no word could be loaded.
	Failed bool
	Cause  error

	used []string
}

// New creates an idle quiz of the given length. Non-positive lengths use
// progression.PlacementRounds.
func New(rounds int) State {
	if rounds <= 0 {
		rounds = progression.PlacementRounds
	}
	return State{
		Phase:  PhaseIdle,
		Rounds: rounds,
		Tier:   progression.PlacementStartTier,
	}
}

// Used returns the word IDs already shown in this run.
func (s State) Used() []string {
	return slices.Clone(s.used)
}

// Done reports whether the run has reached the terminal phase.
func (s State) Done() bool {
	return s.Phase == PhaseComplete
}

func (s State) expect(want Phase, op string) error {
	if s.Phase != want {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, s.Phase)
	}
	return nil
}

// Start moves idle to loading.
func (s State) Start() (State, error) {
	if err := s.expect(PhaseIdle, "start"); err != nil {
		return s, err
	}
	s.Phase = PhaseLoading
	return s, nil
}

// WordLoaded records the fetched word and moves loading to ready.
func (s State) WordLoaded(w domain.Word) (State, error) {
	if err := s.expect(PhaseLoading, "word loaded"); err != nil {
		return s, err
	}
	s.Word = &w
	s.Answer = ""
	s.used = append(slices.Clone(s.used), w.ID)
	s.Phase = PhaseReady
	return s, nil
}

// WordFailed ends the run from loading with the error flag set.
func (s State) WordFailed(cause error) (State, error) {
	if err := s.expect(PhaseLoading, "word failed"); err != nil {
		return s, err
	}
	s.Word = nil
	s.Failed = true
	s.Cause = cause
	s.Phase = PhaseComplete
	return s, nil
}

// Begin moves ready to playing once the word has been presented.
func (s State) Begin() (State, error) {
	if err := s.expect(PhaseReady, "begin"); err != nil {
		return s, err
	}
	s.Phase = PhasePlaying
	return s, nil
}

// Submit records the player's answer. An empty answer stands for a timeout.
func (s State) Submit(answer string) (State, error) {
	if err := s.expect(PhasePlaying, "submit"); err != nil {
		return s, err
	}
	s.Answer = answer
	s.Phase = PhaseChecking
	return s, nil
}

// Grade checks the submitted answer, steps the adaptive tier and moves to feedback.
func (s State) Grade() (State, error) {
	if err := s.expect(PhaseChecking, "grade"); err != nil {
		return s, err
	}
	correct := s.Word != nil && normalize.Matches(s.Answer, s.Word.Text)

	s.Played++
	s.LastCorrect = correct
	if correct {
		s.Correct++
		s.Tier = progression.Clamp(int(s.Tier) + 1)
	} else {
		s.Tier = progression.Clamp(int(s.Tier) - 1)
	}
	s.Phase = PhaseFeedback
	return s, nil
}

// Advance leaves feedback for the next round, or completes when every round is played.
func (s State) Advance() (State, error) {
	if err := s.expect(PhaseFeedback, "advance"); err != nil {
		return s, err
	}
	s.Word = nil
	s.Answer = ""
	if s.Played >= s.Rounds {
		s.Phase = PhaseComplete
	} else {
		s.Phase = PhaseLoading
	}
	return s, nil
}

// Accuracy is correct answers over graded rounds, 0 when nothing was graded.
func (s State) Accuracy() float64 {
	if s.Played == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Played)
}

// Summary is the outcome of a run handed to profile completion.
type Summary struct {
	Record domain.PlacementRecord
	Failed bool
}

// Summarize derives the placement estimate from whole-run accuracy. It works on
// runs that ended early too, summarizing whatever was graded.
func Summarize(s State, now time.Time) Summary {
	acc := s.Accuracy()
	tier := progression.Clamp(1 + int(math.Round(acc*6)))
	return Summary{
		Record: domain.PlacementRecord{
			DerivedTier: int(tier),
			Rating:      progression.PlacementBaseRating + math.Round(acc*progression.PlacementRatingSpan),
			RD:          progression.PlacedRD,
			Accuracy:    acc,
			Rounds:      s.Played,
			CreatedAt:   now.UTC(),
		},
		Failed: s.Failed,
	}
}
