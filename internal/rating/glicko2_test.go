package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Worked example from Glickman's "Example of the Glicko-2 system".
func TestGlicko2_PaperExample(t *testing.T) {
	r := NewGlicko2(0.5)

	got := r.Rate(Estimate{Rating: 1500, RD: 200, Volatility: 0.06}, []Outcome{
		{OpponentRating: 1400, OpponentRD: 30, Score: 1},
		{OpponentRating: 1550, OpponentRD: 100, Score: 0},
		{OpponentRating: 1700, OpponentRD: 300, Score: 0},
	})

	assert.InDelta(t, 1464.06, got.Rating, 0.05)
	assert.InDelta(t, 151.52, got.RD, 0.05)
	assert.InDelta(t, 0.05999, got.Volatility, 0.0001)
}

func TestGlicko2_DirectionOfUpdate(t *testing.T) {
	r := NewGlicko2(0)
	start := Estimate{Rating: 1000, RD: 200, Volatility: 0.06}
	opp := Outcome{OpponentRating: 1000, OpponentRD: 80}

	win := opp
	win.Score = 1
	loss := opp
	loss.Score = 0

	up := r.Rate(start, []Outcome{win, win, win})
	down := r.Rate(start, []Outcome{loss, loss, loss})

	assert.Greater(t, up.Rating, start.Rating)
	assert.Less(t, down.Rating, start.Rating)
	assert.Less(t, up.RD, start.RD, "playing games increases confidence")
	assert.Less(t, down.RD, start.RD)
}

func TestGlicko2_NoGamesGrowsDeviation(t *testing.T) {
	r := NewGlicko2(DefaultTau)
	start := Estimate{Rating: 1200, RD: 50, Volatility: 0.06}

	got := r.Rate(start, nil)

	assert.Equal(t, start.Rating, got.Rating)
	assert.Greater(t, got.RD, start.RD)
	assert.Equal(t, start.Volatility, got.Volatility)
}

func TestClampRD(t *testing.T) {
	assert.Equal(t, 30.0, ClampRD(Estimate{RD: 5}, 30, 350).RD)
	assert.Equal(t, 350.0, ClampRD(Estimate{RD: 900}, 30, 350).RD)
	assert.Equal(t, 120.0, ClampRD(Estimate{RD: 120}, 30, 350).RD)
}
