package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/spellbee/spellbee-server/internal/domain"
	"github.com/spellbee/spellbee-server/internal/store"
)

func TestCreatePlayer_SeedsSkillAndEveryTrack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	birth := 2012
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := s.CreateAccount(ctx, &domain.Account{ID: "acct-1", CreatedAt: now, LastSeenAt: now}); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	want := &domain.Player{
		ID:        "acct-1",
		Username:  "Buzzy",
		AvatarID:  4,
		BirthYear: &birth,
		Status:    domain.PlayerStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, created, err := s.CreatePlayer(ctx, store.CreatePlayerParams{
		Player:      want,
		UsernameKey: "buzzy",
		Skill:       domain.SkillEstimate{Rating: 1400, RD: 200, Volatility: 0.06},
		StartXP:     700,
	})
	if err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}
	if !created {
		t.Fatal("expected created=true")
	}

	got, err := s.GetPlayer(ctx, "acct-1")
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("player mismatch (-want +got):\n%s", diff)
	}

	sk, err := s.GetSkillEstimate(ctx, "acct-1")
	if err != nil {
		t.Fatalf("GetSkillEstimate: %v", err)
	}
	if sk.Rating != 1400 || sk.RD != 200 || sk.Volatility != 0.06 || sk.GamesRated != 0 {
		t.Errorf("unexpected skill estimate: %+v", sk)
	}

	progress, err := s.ListProgress(ctx, "acct-1")
	if err != nil {
		t.Fatalf("ListProgress: %v", err)
	}
	if len(progress) != len(domain.Tracks) {
		t.Fatalf("expected %d progress rows, got %d", len(domain.Tracks), len(progress))
	}
	for _, p := range progress {
		if p.XP != 700 {
			t.Errorf("track %s: expected xp 700, got %d", p.Track, p.XP)
		}
	}
}

func TestCreatePlayer_RetryDoesNotSeedTwice(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := seedPlayer(t, s, "acct-1", "buzzy", 300)

	// Second attempt with different seed values must be ignored.
	again, created, err := s.CreatePlayer(ctx, store.CreatePlayerParams{
		Player:      &domain.Player{ID: "acct-1", Username: "buzzy", Status: domain.PlayerStatusActive, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		UsernameKey: "buzzy",
		Skill:       domain.SkillEstimate{Rating: 2000, RD: 30, Volatility: 0.06},
		StartXP:     6000,
	})
	if err != nil {
		t.Fatalf("retry CreatePlayer: %v", err)
	}
	if created {
		t.Error("expected created=false on retry")
	}
	if again.ID != first.ID {
		t.Errorf("expected existing player, got %+v", again)
	}

	p, err := s.GetProgress(ctx, "acct-1", domain.TrackBlitzVoice)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if p.XP != 300 {
		t.Errorf("expected xp to stay 300, got %d", p.XP)
	}

	sk, err := s.GetSkillEstimate(ctx, "acct-1")
	if err != nil {
		t.Fatalf("GetSkillEstimate: %v", err)
	}
	if sk.Rating != 1000 {
		t.Errorf("expected rating to stay 1000, got %v", sk.Rating)
	}
}

func TestCreatePlayer_UsernameTaken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedPlayer(t, s, "acct-1", "buzzy", 0)

	now := time.Now()
	if err := s.CreateAccount(ctx, &domain.Account{ID: "acct-2", CreatedAt: now, LastSeenAt: now}); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	_, _, err := s.CreatePlayer(ctx, store.CreatePlayerParams{
		Player:      &domain.Player{ID: "acct-2", Username: "BUZZY", Status: domain.PlayerStatusActive, CreatedAt: now, UpdatedAt: now},
		UsernameKey: "buzzy",
		Skill:       domain.SkillEstimate{Rating: 1000, RD: 350, Volatility: 0.06},
	})
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	// Nothing was seeded for the rejected player.
	if _, err := s.GetSkillEstimate(ctx, "acct-2"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected no skill estimate, got %v", err)
	}

	taken, err := s.UsernameTaken(ctx, "buzzy", "acct-2")
	if err != nil {
		t.Fatalf("UsernameTaken: %v", err)
	}
	if !taken {
		t.Error("expected username to be taken")
	}

	taken, err = s.UsernameTaken(ctx, "buzzy", "acct-1")
	if err != nil {
		t.Fatalf("UsernameTaken: %v", err)
	}
	if taken {
		t.Error("own username should not count as taken")
	}
}

func TestGetPlayer_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetPlayer(context.Background(), "acct-none"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
