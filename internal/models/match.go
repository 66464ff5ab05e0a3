package models

import (
	"time"

	"github.com/google/uuid"
)

// PlayerResult is one player's standing when a match ends.
type PlayerResult struct {
	PlayerID  uuid.UUID `json:"player_id"`
	Name      string    `json:"name"`
	Seat      int       `json:"seat"`
	CardsLeft int       `json:"cards_left"`
	Won       bool      `json:"won"`
}

// MatchResult summarizes a finished or abandoned match.
type MatchResult struct {
	GameID   uuid.UUID      `json:"game_id"`
	ChatID   string         `json:"chat_id"`
	WinnerID uuid.UUID      `json:"winner_id"`
	Players  []PlayerResult `json:"players"`
	EndedAt  time.Time      `json:"ended_at"`
}

// Feedback is a free-text note left by a chat member.
type Feedback struct {
	ChatID    string    `json:"chat_id"`
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
