// internal/handlers/chat_server.go
package handlers

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/chat"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/sirupsen/logrus"
)

// ErrPlayerOffline is returned when a private message has no connection to go to.
var ErrPlayerOffline = errors.New("player has no open connection")

// ChatConnection is one websocket client sitting in a chat.
type ChatConnection struct {
	PlayerID uuid.UUID
	ChatID   string
	Name     string
	Cancel   context.CancelFunc
	OutChan  chan map[string]interface{}
	logger   logrus.FieldLogger
}

// Write pushes a message onto the connection's OutChan non-blockingly. Logs if dropped.
func (conn *ChatConnection) Write(msg map[string]interface{}) {
	select {
	case conn.OutChan <- msg:
	default:
		msgType, _ := msg["type"].(string)
		conn.logger.Warnf("OutChan for player %s full. Dropped message type '%s'.", conn.PlayerID, msgType)
	}
}

// WriteError is a convenience to send an error object.
func (conn *ChatConnection) WriteError(code, msg string) {
	conn.Write(map[string]interface{}{
		"type":    "error",
		"code":    code,
		"message": msg,
	})
}

// ChatServer tracks open connections per chat and per player, and delivers the hub's
// outbound messages to them.
type ChatServer struct {
	mu      sync.Mutex
	chats   map[string]map[uuid.UUID]*ChatConnection
	players map[uuid.UUID]*ChatConnection

	Hub    *chat.Hub
	Logger *logrus.Logger
}

// NewChatServer creates the server and its hub; games start with rules.
func NewChatServer(rules game.HouseRules, logger *logrus.Logger) *ChatServer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	cs := &ChatServer{
		chats:   make(map[string]map[uuid.UUID]*ChatConnection),
		players: make(map[uuid.UUID]*ChatConnection),
		Logger:  logger,
	}
	cs.Hub = chat.NewHub(cs, rules, logger)
	return cs
}

// NewConnection builds a connection bound to this server's logger.
func (cs *ChatServer) NewConnection(chatID string, playerID uuid.UUID, name string, cancel context.CancelFunc) *ChatConnection {
	return &ChatConnection{
		PlayerID: playerID,
		ChatID:   chatID,
		Name:     name,
		Cancel:   cancel,
		OutChan:  make(chan map[string]interface{}, 64),
		logger:   cs.Logger.WithFields(logrus.Fields{"chat": chatID, "player": playerID}),
	}
}

// Register adds conn, replacing and cancelling an older connection of the same player.
func (cs *ChatServer) Register(conn *ChatConnection) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if old, ok := cs.players[conn.PlayerID]; ok && old != conn {
		cs.removeLocked(old)
		if old.Cancel != nil {
			old.Cancel()
		}
	}
	members, ok := cs.chats[conn.ChatID]
	if !ok {
		members = make(map[uuid.UUID]*ChatConnection)
		cs.chats[conn.ChatID] = members
	}
	members[conn.PlayerID] = conn
	cs.players[conn.PlayerID] = conn
}

// Unregister removes conn if it is still the player's current connection.
func (cs *ChatServer) Unregister(conn *ChatConnection) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cur, ok := cs.players[conn.PlayerID]; !ok || cur != conn {
		return
	}
	cs.removeLocked(conn)
}

func (cs *ChatServer) removeLocked(conn *ChatConnection) {
	delete(cs.players, conn.PlayerID)
	if members, ok := cs.chats[conn.ChatID]; ok {
		if members[conn.PlayerID] == conn {
			delete(members, conn.PlayerID)
		}
		if len(members) == 0 {
			delete(cs.chats, conn.ChatID)
		}
	}
}

// IsCurrent reports whether conn is still the player's registered connection.
func (cs *ChatServer) IsCurrent(conn *ChatConnection) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.players[conn.PlayerID] == conn
}

// SendToChat broadcasts text to every connection in the chat.
func (cs *ChatServer) SendToChat(chatID, text string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for _, conn := range cs.chats[chatID] {
		conn.Write(map[string]interface{}{
			"type":    "chat",
			"chat_id": chatID,
			"text":    text,
		})
	}
	return nil
}

// SendToPlayer delivers text to the player's connection.
func (cs *ChatServer) SendToPlayer(playerID uuid.UUID, text string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	conn, ok := cs.players[playerID]
	if !ok {
		return ErrPlayerOffline
	}
	conn.Write(map[string]interface{}{
		"type": "private",
		"text": text,
	})
	return nil
}

// ConnectionCount returns the number of open connections in a chat.
func (cs *ChatServer) ConnectionCount(chatID string) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.chats[chatID])
}
