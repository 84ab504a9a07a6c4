package domain

import "time"

// Account is the authenticated identity behind a Player.
// It exists from the first session onward; the Player row is created later when
// the profile is completed, and shares the account's ID.
type Account struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}
