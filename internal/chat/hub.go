// internal/chat/hub.go
package chat

import (
	"context"
	"sync"

	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
)

// Hub manages one Session per chat, in memory only.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*Session

	messenger Messenger
	rules     game.HouseRules

	// Games indexes running games for the HTTP state endpoint.
	Games *game.GameStore
	// Historian, Recorder and NewDeck are optional and copied into sessions as they are created.
	Historian game.ActionPublisher
	Recorder  Recorder
	NewDeck   DeckFactory

	Log logrus.FieldLogger
}

// NewHub returns a hub that sends through m and starts games with rules.
func NewHub(m Messenger, rules game.HouseRules, logger logrus.FieldLogger) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Hub{
		sessions:  make(map[string]*Session),
		messenger: m,
		rules:     rules,
		Games:     game.NewGameStore(),
		Log:       logger,
	}
}

// Session returns the chat's session, creating it on first use.
func (h *Hub) Session(chatID string) *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[chatID]; ok {
		return s
	}
	s := &Session{
		ChatID:    chatID,
		messenger: h.messenger,
		rules:     h.rules,
		games:     h.Games,
		historian: h.Historian,
		recorder:  h.Recorder,
		newDeck:   h.NewDeck,
		log:       h.Log.WithField("chat", chatID),
	}
	h.sessions[chatID] = s
	return s
}

// GetSession retrieves a session if it exists.
func (h *Hub) GetSession(chatID string) (*Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[chatID]
	return s, ok
}

// DeleteSession forgets a chat. A running game is ended first.
func (h *Hub) DeleteSession(chatID string) {
	h.mu.Lock()
	s, ok := h.sessions[chatID]
	delete(h.sessions, chatID)
	h.mu.Unlock()
	if !ok {
		return
	}
	if g := s.Game(); g != nil {
		g.Mu.Lock()
		g.EndGame(g.Winner)
		g.Mu.Unlock()
	}
}

// Handle routes text from sender to the chat's session.
func (h *Hub) Handle(ctx context.Context, chatID string, sender models.Sender, text string) (bool, error) {
	return h.Session(chatID).Handle(ctx, sender, text)
}

// Count returns the number of known chats.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}
