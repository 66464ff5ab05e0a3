package game

import (
	"sync"

	"github.com/google/uuid"
)

// GameStore indexes running games by ID and by chat.
type GameStore struct {
	mu     sync.Mutex
	games  map[uuid.UUID]*UnoGame
	byChat map[string]uuid.UUID
}

func NewGameStore() *GameStore {
	return &GameStore{
		games:  make(map[uuid.UUID]*UnoGame),
		byChat: make(map[string]uuid.UUID),
	}
}

// AddGame registers g, replacing any game previously registered for the same chat.
func (s *GameStore) AddGame(g *UnoGame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.byChat[g.ChatID]; ok {
		delete(s.games, prev)
	}
	s.games[g.ID] = g
	s.byChat[g.ChatID] = g.ID
}

func (s *GameStore) GetGame(id uuid.UUID) (*UnoGame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, exists := s.games[id]
	return g, exists
}

func (s *GameStore) DeleteGame(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return
	}
	delete(s.games, id)
	if s.byChat[g.ChatID] == id {
		delete(s.byChat, g.ChatID)
	}
}

// GetGameByChatID returns the game running in a chat, or nil if none is found.
func (s *GameStore) GetGameByChatID(chatID string) *UnoGame {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byChat[chatID]
	if !ok {
		return nil
	}
	return s.games[id]
}

// Count returns the number of registered games.
func (s *GameStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.games)
}

// List returns the registered games in no particular order.
func (s *GameStore) List() []*UnoGame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*UnoGame, 0, len(s.games))
	for _, g := range s.games {
		out = append(out, g)
	}
	return out
}
