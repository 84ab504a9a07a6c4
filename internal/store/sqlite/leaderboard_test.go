package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spellbee/spellbee-server/internal/domain"
	"github.com/spellbee/spellbee-server/internal/store"
)

func pageIDs(entries []store.LeaderboardEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.PlayerID
	}
	return ids
}

func TestLeaderboardPage_OrderAndTotals(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedPlayer(t, s, "acct-a", "alpha", 50)
	seedPlayer(t, s, "acct-b", "bravo", 50)
	seedPlayer(t, s, "acct-c", "charlie", 30)

	entries, total, err := s.LeaderboardPage(ctx, store.LeaderboardQuery{
		Track:      domain.TrackEndlessVoice,
		PageParams: store.PageParams{Page: 1, PageSize: 2},
	})
	if err != nil {
		t.Fatalf("LeaderboardPage: %v", err)
	}
	if total != 3 {
		t.Errorf("expected total 3, got %d", total)
	}
	if diff := cmp.Diff([]string{"acct-a", "acct-b"}, pageIDs(entries)); diff != "" {
		t.Errorf("page 1 mismatch (-want +got):\n%s", diff)
	}

	entries, _, err = s.LeaderboardPage(ctx, store.LeaderboardQuery{
		Track:      domain.TrackEndlessVoice,
		PageParams: store.PageParams{Page: 2, PageSize: 2},
	})
	if err != nil {
		t.Fatalf("LeaderboardPage: %v", err)
	}
	if diff := cmp.Diff([]string{"acct-c"}, pageIDs(entries)); diff != "" {
		t.Errorf("page 2 mismatch (-want +got):\n%s", diff)
	}
}

func TestLeaderboardPage_PastEndIsEmpty(t *testing.T) {
	s := newTestStore(t)
	seedPlayer(t, s, "acct-a", "alpha", 0)

	entries, total, err := s.LeaderboardPage(context.Background(), store.LeaderboardQuery{
		Track:      domain.TrackBlitzVoice,
		PageParams: store.PageParams{Page: 5, PageSize: 20},
	})
	if err != nil {
		t.Fatalf("LeaderboardPage: %v", err)
	}
	if total != 1 || entries == nil || len(entries) != 0 {
		t.Errorf("expected empty non-nil page with total 1, got %v total %d", entries, total)
	}
}

func TestLeaderboardPage_SearchIsLiteralSubstring(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedPlayer(t, s, "acct-a", "spelling_bee", 10)
	seedPlayer(t, s, "acct-b", "spellingxbee", 20)
	seedPlayer(t, s, "acct-c", "bumble", 30)

	entries, total, err := s.LeaderboardPage(ctx, store.LeaderboardQuery{
		Track:      domain.TrackEndlessVoice,
		SearchKey:  "g_b",
		PageParams: store.PageParams{Page: 1, PageSize: 20},
	})
	if err != nil {
		t.Fatalf("LeaderboardPage: %v", err)
	}
	if total != 1 {
		t.Errorf("underscore must match literally, got total %d", total)
	}
	if diff := cmp.Diff([]string{"acct-a"}, pageIDs(entries)); diff != "" {
		t.Errorf("search mismatch (-want +got):\n%s", diff)
	}

	_, total, err = s.LeaderboardPage(ctx, store.LeaderboardQuery{
		Track:      domain.TrackEndlessVoice,
		SearchKey:  "b",
		PageParams: store.PageParams{Page: 1, PageSize: 20},
	})
	if err != nil {
		t.Fatalf("LeaderboardPage: %v", err)
	}
	if total != 3 {
		t.Errorf("expected 3 matches for 'b', got %d", total)
	}
}

func TestLeaderboardPosition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedPlayer(t, s, "acct-a", "alpha", 500)
	seedPlayer(t, s, "acct-b", "bravo", 300)
	seedPlayer(t, s, "acct-c", "charlie", 300)
	seedPlayer(t, s, "acct-d", "delta", 100)

	tests := map[string]int{"acct-a": 1, "acct-b": 2, "acct-c": 2, "acct-d": 4}
	for id, want := range tests {
		pos, entry, err := s.LeaderboardPosition(ctx, domain.TrackBlitzKeyboard, id)
		if err != nil {
			t.Fatalf("LeaderboardPosition(%s): %v", id, err)
		}
		if pos != want {
			t.Errorf("%s: expected position %d, got %d", id, want, pos)
		}
		if entry.PlayerID != id {
			t.Errorf("%s: wrong entry %+v", id, entry)
		}
	}

	if _, _, err := s.LeaderboardPosition(ctx, domain.TrackBlitzKeyboard, "acct-none"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLeaderboard_SuspendedPlayersHidden(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedPlayer(t, s, "acct-a", "alpha", 900)
	seedPlayer(t, s, "acct-b", "bravo", 100)
	if _, err := s.db.Exec(`UPDATE players SET status = 'suspended' WHERE id = 'acct-a'`); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	n, err := s.CountTrackPlayers(ctx, domain.TrackEndlessVoice)
	if err != nil {
		t.Fatalf("CountTrackPlayers: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 active player, got %d", n)
	}

	pos, _, err := s.LeaderboardPosition(ctx, domain.TrackEndlessVoice, "acct-b")
	if err != nil {
		t.Fatalf("LeaderboardPosition: %v", err)
	}
	if pos != 1 {
		t.Errorf("suspended player must not count ahead, got position %d", pos)
	}
}

func TestLeaderboardStats_AggregatesFinishedGamesOnTrack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedPlayer(t, s, "acct-a", "alpha", 0)
	seedPlayer(t, s, "acct-b", "bravo", 700)
	seedPlayer(t, s, "acct-c", "charlie", 0)
	seedWords(t, s, domain.Word{ID: "word-1", Text: "cat", Tier: 1}, domain.Word{ID: "word-2", Text: "dog", Tier: 1})

	finish := func(gameID, playerID string, track domain.Track, rounds ...domain.Round) {
		t.Helper()
		seedGame(t, s, gameID, playerID, track)
		if err := s.FinalizeGame(ctx, finalizeParams(gameID, playerID, 5, rounds...)); err != nil {
			t.Fatalf("FinalizeGame(%s): %v", gameID, err)
		}
	}
	finish("game-1", "acct-a", domain.TrackEndlessVoice,
		domain.Round{Index: 0, WordID: "word-1", Answer: "cat", Correct: true},
		domain.Round{Index: 1, WordID: "word-2", Answer: "dgo"},
	)
	finish("game-2", "acct-a", domain.TrackEndlessVoice,
		domain.Round{Index: 0, WordID: "word-1", Answer: "cat", Correct: true},
		domain.Round{Index: 1, WordID: "word-2", Answer: "dog", Correct: true},
	)
	finish("game-3", "acct-a", domain.TrackBlitzVoice,
		domain.Round{Index: 0, WordID: "word-1", Answer: "cat", Correct: true},
	)
	finish("game-4", "acct-c", domain.TrackEndlessVoice,
		domain.Round{Index: 0, WordID: "word-1", Answer: "cat", Correct: true},
	)
	seedGame(t, s, "game-open", "acct-a", domain.TrackEndlessVoice)

	stats, err := s.LeaderboardStats(ctx, domain.TrackEndlessVoice, []string{"acct-a", "acct-b"})
	if err != nil {
		t.Fatalf("LeaderboardStats: %v", err)
	}

	want := map[string]domain.PlayerStats{
		"acct-a": {PlayerID: "acct-a", CorrectCount: 3, TotalRounds: 4, BestStreak: 2},
	}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}

	empty, err := s.LeaderboardStats(ctx, domain.TrackEndlessVoice, nil)
	if err != nil {
		t.Fatalf("LeaderboardStats(nil): %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no stats for no players, got %v", empty)
	}
}
