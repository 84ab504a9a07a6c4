package domain

import "time"

// AvatarID selects one of the built-in avatars.
type AvatarID int

// Avatar bounds. Zero means "not chosen" and is replaced by DefaultAvatar.
const (
	MinAvatar     AvatarID = 1
	MaxAvatar     AvatarID = 8
	DefaultAvatar AvatarID = 1
)

// Valid returns true if the avatar is one of the built-in choices.
func (a AvatarID) Valid() bool {
	return a >= MinAvatar && a <= MaxAvatar
}

// Player is a completed profile. Players are never deleted; support tooling
// flips Status instead.
type Player struct {
	ID        string       `json:"id"`
	Username  string       `json:"username"`
	AvatarID  AvatarID     `json:"avatarId"`
	BirthYear *int         `json:"birthYear,omitempty"` // Privacy-sensitive, never exposed on leaderboards.
	Status    PlayerStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// PlayerStatus is the soft lifecycle state of a player.
type PlayerStatus string

const (
	// PlayerStatusActive is the normal state.
	PlayerStatusActive PlayerStatus = "active"
	// PlayerStatusSuspended hides the player from leaderboards.
	PlayerStatusSuspended PlayerStatus = "suspended"
)
