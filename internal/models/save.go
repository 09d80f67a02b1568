package models

import (
	"time"

	"github.com/myrjola/casefile/internal/framing"
	"github.com/myrjola/casefile/internal/game"
)

// Save is the persisted snapshot of one player's game session.
// Framing is nil until the player starts the timed variant.
type Save struct {
	GameID  string
	CaseID  string
	State   game.State
	Framing *framing.State
	Created time.Time
	Updated time.Time
}

// SaveSummary lists a save without decoding its state.
type SaveSummary struct {
	GameID  string
	CaseID  string
	Updated time.Time
}
