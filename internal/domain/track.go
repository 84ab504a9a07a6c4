package domain

import "strings"

// GameMode is the ruleset a game is played under.
type GameMode string

const (
	// ModeEndless keeps going until the player runs out of hearts.
	ModeEndless GameMode = "endless"
	// ModeBlitz scores as many words as possible inside a fixed time window.
	ModeBlitz GameMode = "blitz"
)

// Valid returns true if the mode is a recognized value.
func (m GameMode) Valid() bool {
	return m == ModeEndless || m == ModeBlitz
}

// InputMethod is how the player spells words.
type InputMethod string

const (
	// InputVoice spells letters out loud.
	InputVoice InputMethod = "voice"
	// InputKeyboard types the word.
	InputKeyboard InputMethod = "keyboard"
)

// Valid returns true if the input method is a recognized value.
func (i InputMethod) Valid() bool {
	return i == InputVoice || i == InputKeyboard
}

// Track is a (mode, input method) pair. Each track has its own XP ledger and leaderboard.
type Track string

// All tracks.
const (
	TrackEndlessVoice    Track = "endless_voice"
	TrackEndlessKeyboard Track = "endless_keyboard"
	TrackBlitzVoice      Track = "blitz_voice"
	TrackBlitzKeyboard   Track = "blitz_keyboard"
)

// Tracks lists every track in display order.
var Tracks = []Track{TrackEndlessVoice, TrackEndlessKeyboard, TrackBlitzVoice, TrackBlitzKeyboard}

// TrackFor builds the track for a mode and input method.
func TrackFor(mode GameMode, input InputMethod) Track {
	return Track(string(mode) + "_" + string(input))
}

// Valid returns true if the track is one of Tracks.
func (t Track) Valid() bool {
	switch t {
	case TrackEndlessVoice, TrackEndlessKeyboard, TrackBlitzVoice, TrackBlitzKeyboard:
		return true
	default:
		return false
	}
}

// Mode returns the game mode half of the track.
func (t Track) Mode() GameMode {
	mode, _, _ := strings.Cut(string(t), "_")
	return GameMode(mode)
}

// InputMethod returns the input method half of the track.
func (t Track) InputMethod() InputMethod {
	_, input, _ := strings.Cut(string(t), "_")
	return InputMethod(input)
}
