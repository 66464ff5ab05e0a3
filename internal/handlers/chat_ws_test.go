// internal/handlers/chat_ws_test.go
package handlers

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*ChatServer, *httptest.Server) {
	t.Helper()
	cs := NewChatServer(game.DefaultHouseRules(), quietLogger())
	cs.Hub.NewDeck = func(n int) *game.Deck {
		return game.NewDeck(n, rand.New(rand.NewSource(7)))
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/ws/", ChatWSHandler(cs.Logger, cs))
	mux.HandleFunc("/games/", GameStateHandler(cs))
	mux.HandleFunc("/games", ListGamesHandler(cs))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return cs, srv
}

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, srv *httptest.Server, chatID string, playerID uuid.UUID, name string) *wsClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws/" + chatID + "?player_id=" + playerID.String() + "&name=" + name
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{Subprotocols: []string{ChatSubprotocol}})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(websocket.StatusNormalClosure, "") })
	return &wsClient{t: t, conn: c}
}

func (c *wsClient) send(msg ChatMessage) {
	data, err := json.Marshal(msg)
	require.NoError(c.t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(c.t, c.conn.Write(ctx, websocket.MessageText, data))
}

func (c *wsClient) command(text string) {
	c.send(ChatMessage{Type: "command", Text: text})
}

// await reads until a frame satisfies match.
func (c *wsClient) await(match func(map[string]interface{}) bool) map[string]interface{} {
	c.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	for {
		_, data, err := c.conn.Read(ctx)
		require.NoError(c.t, err)
		var msg map[string]interface{}
		require.NoError(c.t, json.Unmarshal(data, &msg))
		if match(msg) {
			return msg
		}
	}
}

func ofType(typ string) func(map[string]interface{}) bool {
	return func(m map[string]interface{}) bool { return m["type"] == typ }
}

func chatText(text string) func(map[string]interface{}) bool {
	return func(m map[string]interface{}) bool { return m["type"] == "chat" && m["text"] == text }
}

func TestChatWSFullFlow(t *testing.T) {
	cs, srv := newTestServer(t)
	aliceID, bobID := uuid.New(), uuid.New()

	alice := dial(t, srv, "room", aliceID, "Alice")
	welcome := alice.await(ofType("welcome"))
	assert.Equal(t, aliceID.String(), welcome["player_id"])
	bob := dial(t, srv, "room", bobID, "Bob")
	bob.await(ofType("welcome"))

	alice.command("/newgame")
	alice.await(chatText("A new game has been created! Type /join [nickname] to join, then /startgame once everyone is in."))
	alice.command("/join")
	alice.await(chatText("Current player count: 1"))
	bob.command("/join")
	bob.await(chatText("Current player count: 2"))
	alice.command("/startgame")

	state := alice.await(func(m map[string]interface{}) bool {
		text, _ := m["text"].(string)
		return m["type"] == "chat" && strings.HasPrefix(text, "Current Turn: Alice")
	})
	assert.Contains(t, state["text"], "Topmost Card: ")
	hand := bob.await(func(m map[string]interface{}) bool {
		text, _ := m["text"].(string)
		return m["type"] == "private" && strings.HasPrefix(text, "Your current hand:")
	})
	assert.Contains(t, hand["text"], "(6) ")

	// Out-of-turn play is announced to the chat and reported to the sender.
	bob.command("/play 0")
	errMsg := bob.await(ofType("error"))
	assert.Equal(t, "not_your_turn", errMsg["code"])

	bob.command("/dance")
	errMsg = bob.await(ofType("error"))
	assert.Equal(t, "unknown_command", errMsg["code"])

	alice.send(ChatMessage{Type: "sync"})
	synced := alice.await(ofType("state"))
	st, ok := synced["state"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, aliceID.String(), st["currentPlayerId"])
	players, ok := st["players"].([]interface{})
	require.True(t, ok)
	require.Len(t, players, 2)
	for _, raw := range players {
		p := raw.(map[string]interface{})
		if p["player_id"] == aliceID.String() {
			assert.Len(t, p["hand"], 7)
		} else {
			assert.Nil(t, p["hand"], "other hands stay hidden")
		}
	}

	g := cs.Hub.Session("room").Game()
	require.NotNil(t, g)

	resp, err := http.Get(srv.URL + "/games/" + g.ID.String() + "/state?player_id=" + bobID.String())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var httpState game.GameState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&httpState))
	assert.Equal(t, g.ID, httpState.GameID)
	assert.Equal(t, "room", httpState.ChatID)

	list, err := http.Get(srv.URL + "/games")
	require.NoError(t, err)
	defer list.Body.Close()
	var games []map[string]interface{}
	require.NoError(t, json.NewDecoder(list.Body).Decode(&games))
	require.Len(t, games, 1)
	assert.Equal(t, g.ID.String(), games[0]["game_id"])
}

func TestChatWSRejectsBadRequests(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/chat/ws/room?player_id=not-a-uuid")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/games/" + uuid.New().String() + "/state")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/games/nope/state")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatWSAssignsPlayerID(t *testing.T) {
	_, srv := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws/room"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{Subprotocols: []string{ChatSubprotocol}})
	require.NoError(t, err)
	defer c.Close(websocket.StatusNormalClosure, "")

	client := &wsClient{t: t, conn: c}
	welcome := client.await(ofType("welcome"))
	id, err := uuid.Parse(welcome["player_id"].(string))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.True(t, strings.HasPrefix(welcome["name"].(string), "Player-"))
}
