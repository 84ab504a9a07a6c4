// Package sse streams live leaderboard activity to connected clients as
// Server-Sent Events.
package sse

import (
	"time"

	"github.com/spellbee/spellbee-server/internal/domain"
	"github.com/spellbee/spellbee-server/internal/progression"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventProgressUpdated is sent whenever a finalized game changes a player's XP.
	EventProgressUpdated EventType = "progress.updated"
	// EventTierReached is sent when a player crosses into a higher tier.
	EventTierReached EventType = "tier.reached"
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// Track filters delivery to clients subscribed to that track. Empty means
	// every client.
	Track domain.Track `json:"-"`
}

// TierReachedEventData is the data payload for tier.reached events.
type TierReachedEventData struct {
	PlayerID string       `json:"playerId"`
	Username string       `json:"username"`
	Track    domain.Track `json:"track"`
	Tier     int          `json:"tier"`
	TierName string       `json:"tierName"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"serverTime"`
}

// NewProgressUpdatedEvent creates a progress.updated event.
func NewProgressUpdatedEvent(u domain.ProgressUpdate) Event {
	return Event{
		Type:      EventProgressUpdated,
		Data:      u,
		Track:     u.Track,
		Timestamp: time.Now(),
	}
}

// NewTierReachedEvent creates a tier.reached event.
func NewTierReachedEvent(u domain.ProgressUpdate) Event {
	return Event{
		Type: EventTierReached,
		Data: TierReachedEventData{
			PlayerID: u.PlayerID,
			Username: u.Username,
			Track:    u.Track,
			Tier:     u.Tier,
			TierName: progression.Tier(u.Tier).Name(),
		},
		Track:     u.Track,
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}
