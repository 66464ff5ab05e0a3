// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// PlayerState is one seat as seen by the requesting player. Only the requester's own hand is revealed.
type PlayerState struct {
	PlayerID      uuid.UUID     `json:"player_id"`
	Name          string        `json:"name"`
	Seat          int           `json:"seat"`
	HandSize      int           `json:"hand_size"`
	Ready         bool          `json:"ready"`
	IsCurrentTurn bool          `json:"isCurrentTurn"`
	Hand          []models.Card `json:"hand,omitempty"`
}

// GameState is a point-in-time snapshot sent to clients on connect and after each command.
type GameState struct {
	GameID          uuid.UUID     `json:"game_id"`
	ChatID          string        `json:"chat_id"`
	GameOver        bool          `json:"gameOver"`
	WinnerID        uuid.UUID     `json:"winnerId,omitempty"`
	CurrentPlayerID uuid.UUID     `json:"currentPlayerId"`
	Direction       int           `json:"direction"`
	DrawPileSize    int           `json:"drawPileSize"`
	DiscardSize     int           `json:"discardSize"`
	DiscardTop      *models.Card  `json:"discardTop,omitempty"`
	PendingDrawTwo  int           `json:"pendingDrawTwo"`
	PendingDrawFour int           `json:"pendingDrawFour"`
	SkipPending     bool          `json:"skipPending"`
	WildPendingFrom *uuid.UUID    `json:"wildPendingFrom,omitempty"`
	UnoPendingOn    *uuid.UUID    `json:"unoPendingOn,omitempty"`
	SwapPendingFrom *uuid.UUID    `json:"swapPendingFrom,omitempty"`
	ReadyToPlay     bool          `json:"readyToPlay"`
	Players         []PlayerState `json:"players"`
	Rules           HouseRules    `json:"rules"`
}

func resolutionRef(r Resolution) *uuid.UUID {
	if id, open := r.Awaiting(); open {
		return &id
	}
	return nil
}

// Snapshot builds the state as seen by forPlayer. Pass uuid.Nil for a spectator view.
// Assumes lock is held by caller.
func (g *UnoGame) Snapshot(forPlayer uuid.UUID) GameState {
	st := GameState{
		GameID:          g.ID,
		ChatID:          g.ChatID,
		GameOver:        g.GameOver,
		WinnerID:        g.Winner,
		CurrentPlayerID: g.players[g.currentSeat].ID,
		Direction:       int(g.direction),
		DrawPileSize:    g.Deck.DrawPileSize(),
		DiscardSize:     g.Deck.DiscardPileSize(),
		PendingDrawTwo:  g.pendingDrawTwo,
		PendingDrawFour: g.pendingDrawFour,
		SkipPending:     g.skipPending,
		WildPendingFrom: resolutionRef(g.wildResolution),
		UnoPendingOn:    resolutionRef(g.unoWindow),
		SwapPendingFrom: resolutionRef(g.sevenSwap),
		ReadyToPlay:     g.ReadyToPlay(),
		Rules:           g.HouseRules,
	}
	if top, ok := g.Deck.Top(); ok {
		st.DiscardTop = &top
	}

	for _, p := range g.players {
		ps := PlayerState{
			PlayerID:      p.ID,
			Name:          p.Name,
			Seat:          p.Seat,
			HandSize:      p.HandSize(),
			Ready:         g.ready[p.ID],
			IsCurrentTurn: p.Seat == g.currentSeat,
		}
		if p.ID == forPlayer {
			ps.Hand = p.Hand()
		}
		st.Players = append(st.Players, ps)
	}
	return st
}
