// internal/handlers/chat_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/chat"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/middleware"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
)

// ChatSubprotocol is the websocket subprotocol clients must request.
const ChatSubprotocol = "uno-chat"

// ChatMessage is an inbound websocket frame.
//
//	{"type":"command","text":"/play 3"}
//	{"type":"sync"}
type ChatMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ChatWSHandler upgrades /chat/ws/{chat_id}?player_id=&name= to a websocket and feeds the
// client's commands into the chat's session. A missing player_id gets a fresh one, which is
// returned in the welcome message for reconnects.
func ChatWSHandler(logger *logrus.Logger, cs *ChatServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chatID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/chat/ws/"), "/")
		if chatID == "" || strings.Contains(chatID, "/") {
			http.Error(w, "missing chat_id in path (/chat/ws/{chat_id})", http.StatusBadRequest)
			return
		}

		playerID := uuid.Nil
		if raw := r.URL.Query().Get("player_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				http.Error(w, "invalid player_id", http.StatusBadRequest)
				return
			}
			playerID = id
		}
		if playerID == uuid.Nil {
			playerID, _ = uuid.NewRandom()
		}
		name := strings.TrimSpace(r.URL.Query().Get("name"))
		if name == "" {
			name = "Player-" + playerID.String()[:4]
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{ChatSubprotocol},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != ChatSubprotocol {
			c.Close(BadSubprotocolError, "client must speak the "+ChatSubprotocol+" subprotocol")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		conn := cs.NewConnection(chatID, playerID, name, cancel)
		cs.Register(conn)

		conn.Write(map[string]interface{}{
			"type":      "welcome",
			"chat_id":   chatID,
			"player_id": playerID.String(),
			"name":      name,
		})

		go writePump(ctx, c, conn, logger)
		err = readPump(ctx, c, cs, conn, logger)

		cs.Unregister(conn)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)
	}
}

// readPump feeds inbound frames to the hub until the connection closes.
func readPump(ctx context.Context, c *websocket.Conn, cs *ChatServer, conn *ChatConnection, logger *logrus.Logger) error {
	sender := models.Sender{ID: conn.PlayerID, Name: conn.Name}
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			logger.Warnf("Chat %s: Received non-text message type %d from player %v. Ignoring.", conn.ChatID, typ, conn.PlayerID)
			continue
		}
		if !cs.IsCurrent(conn) {
			// A newer connection for this player took over.
			c.Close(ReplacedError, "replaced by a newer connection")
			return nil
		}

		var packet ChatMessage
		if err := json.Unmarshal(msg, &packet); err != nil {
			conn.WriteError("invalid_json", "Invalid JSON format")
			continue
		}

		switch packet.Type {
		case "command":
			known, err := cs.Hub.Handle(ctx, conn.ChatID, sender, packet.Text)
			if !known {
				conn.WriteError("unknown_command", "Unknown command. Type /help for the list.")
				continue
			}
			if err != nil {
				conn.WriteError(chat.ErrorCode(err), err.Error())
			}
		case "sync":
			conn.Write(map[string]interface{}{
				"type":  "state",
				"state": snapshotFor(cs.Hub, conn.ChatID, conn.PlayerID),
			})
		default:
			logger.Warnf("Chat %s: Unknown message type '%s' from player %v", conn.ChatID, packet.Type, conn.PlayerID)
			conn.WriteError("unknown_type", "Unknown message type: "+packet.Type)
		}
	}
}

// snapshotFor returns the running game's state as seen by playerID, or nil.
func snapshotFor(hub *chat.Hub, chatID string, playerID uuid.UUID) *game.GameState {
	s, ok := hub.GetSession(chatID)
	if !ok {
		return nil
	}
	g := s.Game()
	if g == nil {
		return nil
	}
	g.Mu.Lock()
	defer g.Mu.Unlock()
	st := g.Snapshot(playerID)
	return &st
}

// writePump drains OutChan to the socket and keeps the connection alive with pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *ChatConnection, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-conn.OutChan:
			data, err := json.Marshal(msg)
			if err != nil {
				logger.Warnf("Chat: Failed to marshal outgoing msg for player %v: %v", conn.PlayerID, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("Chat: Failed to write to websocket for player %v: %v", conn.PlayerID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("Chat: Failed to send ping to player %v: %v. Assuming disconnect.", conn.PlayerID, err)
				return
			}
		}
	}
}
