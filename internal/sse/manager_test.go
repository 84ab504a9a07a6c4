package sse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spellbee/spellbee-server/internal/domain"
	"github.com/spellbee/spellbee-server/internal/logger"
)

func startManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(logger.Discard().Logger)
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(cancel)
	return m
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case e := <-c.EventChan:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case e := <-c.EventChan:
		t.Fatalf("unexpected event %s", e.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManager_ConnectDisconnect(t *testing.T) {
	m := startManager(t)

	c, err := m.Connect(domain.TrackEndlessVoice)
	require.NoError(t, err)
	assert.Equal(t, 1, m.ClientCount())
	assert.Equal(t, domain.TrackEndlessVoice, c.Track)

	m.Disconnect(c.ID)
	assert.Equal(t, 0, m.ClientCount())

	_, open := <-c.Done
	assert.False(t, open)

	// Unknown ids are ignored.
	m.Disconnect(c.ID)
}

func TestManager_FiltersByTrack(t *testing.T) {
	m := startManager(t)

	voice, err := m.Connect(domain.TrackEndlessVoice)
	require.NoError(t, err)
	all, err := m.Connect("")
	require.NoError(t, err)

	m.PublishProgress(domain.ProgressUpdate{Track: domain.TrackBlitzKeyboard, PlayerID: "acct-1", XP: 20, Tier: 1, PreviousTier: 1})

	e := receive(t, all)
	assert.Equal(t, EventProgressUpdated, e.Type)
	assert.Equal(t, domain.TrackBlitzKeyboard, e.Track)
	assertNoEvent(t, voice)
}

func TestManager_PublishProgress_TierUp(t *testing.T) {
	m := startManager(t)

	c, err := m.Connect(domain.TrackEndlessKeyboard)
	require.NoError(t, err)

	m.PublishProgress(domain.ProgressUpdate{
		Track:        domain.TrackEndlessKeyboard,
		PlayerID:     "acct-1",
		Username:     "bee",
		XP:           310,
		XPEarned:     20,
		Tier:         3,
		PreviousTier: 2,
	})

	progress := receive(t, c)
	assert.Equal(t, EventProgressUpdated, progress.Type)
	assert.Equal(t, 310, progress.Data.(domain.ProgressUpdate).XP)

	reached := receive(t, c)
	require.Equal(t, EventTierReached, reached.Type)
	data := reached.Data.(TierReachedEventData)
	assert.Equal(t, 3, data.Tier)
	assert.Equal(t, "Apprentice", data.TierName)
	assert.Equal(t, "bee", data.Username)
}

func TestManager_NoTierEventWithoutTierUp(t *testing.T) {
	m := startManager(t)

	c, err := m.Connect("")
	require.NoError(t, err)

	m.PublishProgress(domain.ProgressUpdate{Track: domain.TrackEndlessVoice, XP: 50, Tier: 1, PreviousTier: 1})

	assert.Equal(t, EventProgressUpdated, receive(t, c).Type)
	assertNoEvent(t, c)
}

func TestManager_Heartbeat(t *testing.T) {
	m := NewManager(logger.Discard().Logger)
	m.heartbeatInterval = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(cancel)

	c, err := m.Connect(domain.TrackBlitzVoice)
	require.NoError(t, err)

	e := receive(t, c)
	assert.Equal(t, EventHeartbeat, e.Type)
	assert.IsType(t, HeartbeatEventData{}, e.Data)
}

func TestManager_Shutdown(t *testing.T) {
	m := NewManager(logger.Discard().Logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	c, err := m.Connect("")
	require.NoError(t, err)

	// Round-trip one event so the loop is known to be running.
	m.Emit(NewHeartbeatEvent())
	receive(t, c)

	shutdownCtx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	require.NoError(t, m.Shutdown(shutdownCtx))
	assert.Equal(t, 0, m.ClientCount())

	_, open := <-c.Done
	assert.False(t, open)

	// Emit after shutdown is a no-op and a second Shutdown returns cleanly.
	m.Emit(NewHeartbeatEvent())
	require.NoError(t, m.Shutdown(shutdownCtx))
}
