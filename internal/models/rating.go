package models

import "github.com/google/uuid"

// PlayerRating is a player's Glicko-2 standing within one chat. Rating and RD are on the
// familiar 1500-based scale.
type PlayerRating struct {
	ChatID   string    `json:"chat_id"`
	PlayerID uuid.UUID `json:"player_id"`
	Name     string    `json:"name"`
	Rating   int       `json:"rating"`
	RD       float64   `json:"rd"`
	Sigma    float64   `json:"sigma"`
	Games    int       `json:"games"`
	Wins     int       `json:"wins"`
}
