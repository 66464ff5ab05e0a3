// internal/handlers/api_server.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
)

// GameStateHandler serves GET /games/{game_id}/state?player_id=...
// Only the requesting player's hand is included; without player_id the view is a spectator's.
func GameStateHandler(cs *ChatServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		rest := strings.TrimPrefix(r.URL.Path, "/games/")
		parts := strings.Split(strings.Trim(rest, "/"), "/")
		if len(parts) != 2 || parts[1] != "state" {
			http.Error(w, "expected /games/{game_id}/state", http.StatusNotFound)
			return
		}
		gameID, err := uuid.Parse(parts[0])
		if err != nil {
			http.Error(w, "invalid game_id", http.StatusBadRequest)
			return
		}
		viewer := uuid.Nil
		if raw := r.URL.Query().Get("player_id"); raw != "" {
			if viewer, err = uuid.Parse(raw); err != nil {
				http.Error(w, "invalid player_id", http.StatusBadRequest)
				return
			}
		}

		g, ok := cs.Hub.Games.GetGame(gameID)
		if !ok {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		g.Mu.Lock()
		data := game.StateToBytes(g.Snapshot(viewer))
		g.Mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}

// ListGamesHandler serves GET /games with the ID and chat of every running game.
func ListGamesHandler(cs *ChatServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		type entry struct {
			GameID uuid.UUID `json:"game_id"`
			ChatID string    `json:"chat_id"`
		}
		out := []entry{}
		for _, g := range cs.Hub.Games.List() {
			out = append(out, entry{GameID: g.ID, ChatID: g.ChatID})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}
}

// HealthHandler reports liveness.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
