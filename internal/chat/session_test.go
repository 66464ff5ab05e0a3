// internal/chat/session_test.go
package chat

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChat = "chat-1"

// recordingMessenger collects outbound messages instead of delivering them.
type recordingMessenger struct {
	mu          sync.Mutex
	chat        []string
	private     map[uuid.UUID][]string
	unreachable map[uuid.UUID]bool
}

func newRecordingMessenger() *recordingMessenger {
	return &recordingMessenger{
		private:     make(map[uuid.UUID][]string),
		unreachable: make(map[uuid.UUID]bool),
	}
}

func (m *recordingMessenger) SendToChat(chatID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chat = append(m.chat, text)
	return nil
}

func (m *recordingMessenger) SendToPlayer(playerID uuid.UUID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unreachable[playerID] {
		return errors.New("blocked")
	}
	m.private[playerID] = append(m.private[playerID], text)
	return nil
}

func (m *recordingMessenger) lastChat() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.chat) == 0 {
		return ""
	}
	return m.chat[len(m.chat)-1]
}

func (m *recordingMessenger) chatContains(text string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.chat {
		if strings.Contains(c, text) {
			return true
		}
	}
	return false
}

func (m *recordingMessenger) lastPrivate(id uuid.UUID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.private[id]
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

func (m *recordingMessenger) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chat = nil
	m.private = make(map[uuid.UUID][]string)
}

type fakeRecorder struct {
	mu       sync.Mutex
	matches  []models.MatchResult
	feedback []models.Feedback
	board    []models.PlayerRating
}

func (r *fakeRecorder) RecordMatch(ctx context.Context, result models.MatchResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches = append(r.matches, result)
	return nil
}

func (r *fakeRecorder) StoreFeedback(ctx context.Context, fb models.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedback = append(r.feedback, fb)
	return nil
}

func (r *fakeRecorder) Leaderboard(ctx context.Context, chatID string, limit int) ([]models.PlayerRating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.board, nil
}

func (r *fakeRecorder) matchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matches)
}

// stackedDeck deals Alice reds 1-7 and Bob cards that never match them, turns up R5,
// and leaves yellow zeros to draw.
func stackedDeck(int) *game.Deck {
	var order []models.Card
	for v := 1; v <= 7; v++ {
		order = append(order, models.NewCard(v, models.Red))
	}
	for i := 0; i < 7; i++ {
		order = append(order, models.NewCard(8+i%2, models.Green))
	}
	order = append(order, models.NewCard(5, models.Red))
	for i := 0; i < 20; i++ {
		order = append(order, models.NewCard(0, models.Yellow))
	}
	return game.NewDeckFromCards(order, rand.New(rand.NewSource(1)))
}

type fixture struct {
	hub      *Hub
	msgr     *recordingMessenger
	recorder *fakeRecorder
	alice    models.Sender
	bob      models.Sender
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	f := &fixture{
		msgr:     newRecordingMessenger(),
		recorder: &fakeRecorder{},
		alice:    models.Sender{ID: uuid.New(), Name: "Alice"},
		bob:      models.Sender{ID: uuid.New(), Name: "Bob"},
	}
	f.hub = NewHub(f.msgr, game.DefaultHouseRules(), logger)
	f.hub.Recorder = f.recorder
	f.hub.NewDeck = stackedDeck
	return f
}

func (f *fixture) send(t *testing.T, from models.Sender, text string) error {
	t.Helper()
	known, err := f.hub.Handle(context.Background(), testChat, from, text)
	require.True(t, known, "command %q should be recognized", text)
	return err
}

// started runs newgame, both joins and startgame.
func (f *fixture) started(t *testing.T) {
	t.Helper()
	require.NoError(t, f.send(t, f.alice, "/newgame"))
	require.NoError(t, f.send(t, f.alice, "/join"))
	require.NoError(t, f.send(t, f.bob, "/join"))
	require.NoError(t, f.send(t, f.alice, "/startgame"))
}

func TestLobbyFlow(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.send(t, f.alice, "/join"))
	assert.Equal(t, textJoinNotPending, f.msgr.lastChat())

	require.NoError(t, f.send(t, f.alice, "/newgame"))
	assert.Equal(t, textNewGame, f.msgr.lastChat())
	require.NoError(t, f.send(t, f.bob, "/newgame"))
	assert.Equal(t, textGamePending, f.msgr.lastChat())

	require.NoError(t, f.send(t, f.alice, "/join"))
	assert.Equal(t, "Current player count: 1", f.msgr.lastChat())
	assert.True(t, f.msgr.chatContains("Joined with nickname Alice!"))

	require.NoError(t, f.send(t, f.alice, "/startgame"))
	assert.Equal(t, "You need at least 2 players to start a game.", f.msgr.lastChat())

	require.NoError(t, f.send(t, f.bob, "/join@UnoBot Bobby"))
	assert.Equal(t, "Current player count: 2", f.msgr.lastChat())

	require.NoError(t, f.send(t, f.alice, "/list"))
	assert.Equal(t, "List of players:\n\nAlice\nBobby\n", f.msgr.lastChat())

	require.NoError(t, f.send(t, f.bob, "/unjoin"))
	assert.Equal(t, textLeft, f.msgr.lastChat())
	require.NoError(t, f.send(t, f.bob, "/leave"))
	assert.Equal(t, textNotInGame, f.msgr.lastChat())

	pending, joined := f.hub.Session(testChat).Pending()
	assert.True(t, pending)
	require.Len(t, joined, 1)
	assert.Equal(t, f.alice.ID, joined[0].ID)
}

func TestValidNickname(t *testing.T) {
	alice := uuid.New()
	joined := []models.Participant{{ID: alice, Name: "Alice"}}

	assert.False(t, ValidNickname("ab", uuid.New(), nil), "too short")
	assert.False(t, ValidNickname("abcdefghijklmnop", uuid.New(), nil), "too long")
	assert.False(t, ValidNickname("12345", uuid.New(), nil), "numeric")
	assert.False(t, ValidNickname("1.5e3", uuid.New(), nil), "numeric")
	assert.False(t, ValidNickname("ALICE", uuid.New(), joined), "taken by someone else")
	assert.True(t, ValidNickname("alice", alice, joined), "re-joining under your own name")
	assert.True(t, ValidNickname("Zoë", uuid.New(), joined))
}

func TestStartGameDealsAndRenders(t *testing.T) {
	f := newFixture(t)
	f.started(t)

	assert.True(t, f.msgr.chatContains(textGameStarted))
	assert.True(t, f.msgr.chatContains("Alice has been added to the game."))
	assert.True(t, f.msgr.chatContains("Everything has been set up."))
	assert.Equal(t, "Current Turn: Alice\nTopmost Card: R5", f.msgr.lastChat())
	assert.True(t, strings.HasPrefix(f.msgr.lastPrivate(f.alice.ID), "Your current hand:"))
	assert.Contains(t, f.msgr.lastPrivate(f.alice.ID), "(0) R1")

	g := f.hub.Session(testChat).Game()
	require.NotNil(t, g)
	stored, ok := f.hub.Games.GetGame(g.ID)
	require.True(t, ok)
	assert.Same(t, g, stored)

	pending, _ := f.hub.Session(testChat).Pending()
	assert.False(t, pending)

	require.NoError(t, f.send(t, f.alice, "/newgame"))
	assert.Equal(t, textGameOngoing, f.msgr.lastChat())
}

func TestStartGameNeedsPrivateChannel(t *testing.T) {
	f := newFixture(t)
	f.msgr.unreachable[f.bob.ID] = true

	require.NoError(t, f.send(t, f.alice, "/newgame"))
	require.NoError(t, f.send(t, f.alice, "/join"))
	require.NoError(t, f.send(t, f.bob, "/join"))
	require.NoError(t, f.send(t, f.alice, "/startgame"))

	assert.Equal(t, textStartFailure, f.msgr.lastChat())
	assert.Nil(t, f.hub.Session(testChat).Game())
	pending, _ := f.hub.Session(testChat).Pending()
	assert.True(t, pending, "the lobby stays open")
}

func TestPlayAdvancesTurnAndRejectsOutOfTurn(t *testing.T) {
	f := newFixture(t)
	f.started(t)

	err := f.send(t, f.bob, "/play 0")
	require.ErrorIs(t, err, game.ErrNotYourTurn)
	assert.Equal(t, "It is not currently your turn!", f.msgr.lastChat())
	assert.Equal(t, "not_your_turn", ErrorCode(err))

	require.NoError(t, f.send(t, f.alice, "/p 0"))
	assert.Equal(t, "Current Turn: Bob\nTopmost Card: R1", f.msgr.lastChat())

	require.NoError(t, f.send(t, f.bob, "/play two"))
	assert.Equal(t, textPlayUsage, f.msgr.lastChat())

	err = f.send(t, f.bob, "/play 0")
	require.ErrorIs(t, err, game.ErrInvalidPlay)
	assert.Equal(t, "This is not a valid card.", f.msgr.lastChat())

	require.NoError(t, f.send(t, f.bob, "/d"))
	assert.Equal(t, "Current Turn: Alice\nTopmost Card: R1", f.msgr.lastChat())
	assert.Contains(t, f.msgr.lastPrivate(f.bob.ID), "Y0")
}

// playDownToOne has Alice play until one card remains, with Bob drawing in between.
func playDownToOne(t *testing.T, f *fixture) {
	t.Helper()
	for i := 0; i < 6; i++ {
		require.NoError(t, f.send(t, f.alice, "/play 0"))
		if i < 5 {
			require.NoError(t, f.send(t, f.bob, "/draw"))
		}
	}
}

func TestUnoCaughtThenWin(t *testing.T) {
	f := newFixture(t)
	f.started(t)
	playDownToOne(t, f)

	assert.Equal(t, "Alice has Uno! Type /uno to call it!", f.msgr.lastChat())

	err := f.send(t, f.bob, "/draw")
	require.ErrorIs(t, err, game.ErrNotYourTurn, "the turn has not moved on yet")
	err = f.send(t, f.alice, "/play 0")
	require.ErrorIs(t, err, game.ErrActionBlocked)

	require.NoError(t, f.send(t, f.bob, "/uno"))
	assert.True(t, f.msgr.chatContains("Alice didn't call Uno first! They've drawn a card."))
	assert.Equal(t, "Current Turn: Bob\nTopmost Card: R6", f.msgr.lastChat())

	g := f.hub.Session(testChat).Game()
	require.NotNil(t, g)
	g.Mu.Lock()
	hand, err := g.HandCards(f.alice.ID)
	g.Mu.Unlock()
	require.NoError(t, err)
	assert.Len(t, hand, 2)
}

func TestUnoSelfCallThenWinRecordsMatch(t *testing.T) {
	f := newFixture(t)
	f.started(t)
	playDownToOne(t, f)

	require.NoError(t, f.send(t, f.alice, "/uno"))
	assert.True(t, f.msgr.chatContains("Alice called Uno first!"))

	require.NoError(t, f.send(t, f.bob, "/draw"))
	require.NoError(t, f.send(t, f.alice, "/play 0"))

	assert.True(t, f.msgr.chatContains("Alice has won!"))
	assert.Equal(t, textGameEnded, f.msgr.lastChat())
	assert.Nil(t, f.hub.Session(testChat).Game())
	assert.Equal(t, 0, f.hub.Games.Count())

	require.Eventually(t, func() bool { return f.recorder.matchCount() == 1 }, time.Second, 5*time.Millisecond)
	f.recorder.mu.Lock()
	result := f.recorder.matches[0]
	f.recorder.mu.Unlock()
	assert.Equal(t, f.alice.ID, result.WinnerID)
	assert.Equal(t, testChat, result.ChatID)

	require.NoError(t, f.send(t, f.alice, "/state"))
	assert.Equal(t, textNoGame, f.msgr.lastChat())
}

func TestEndGameCommand(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.send(t, f.alice, "/endgame"))
	assert.Equal(t, textNoGame, f.msgr.lastChat())

	require.NoError(t, f.send(t, f.alice, "/newgame"))
	require.NoError(t, f.send(t, f.alice, "/endgame"))
	assert.Equal(t, textGameEnded, f.msgr.lastChat())
	pending, _ := f.hub.Session(testChat).Pending()
	assert.False(t, pending)

	f.started(t)
	require.NoError(t, f.send(t, f.bob, "/endgame"))
	assert.Equal(t, textGameEnded, f.msgr.lastChat())
	assert.Nil(t, f.hub.Session(testChat).Game())
	require.Eventually(t, func() bool { return f.recorder.matchCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestHandAndStateCommands(t *testing.T) {
	f := newFixture(t)
	stranger := models.Sender{ID: uuid.New(), Name: "Carol"}

	require.NoError(t, f.send(t, f.alice, "/hand"))
	assert.Equal(t, textNoGame, f.msgr.lastPrivate(f.alice.ID))

	f.started(t)
	f.msgr.reset()

	require.NoError(t, f.send(t, f.bob, "/hand"))
	assert.True(t, strings.HasPrefix(f.msgr.lastPrivate(f.bob.ID), "Your current hand:\n\n(0) G8"))
	require.NoError(t, f.send(t, stranger, "/hand"))
	assert.Equal(t, textNotInGame, f.msgr.lastPrivate(stranger.ID))

	require.NoError(t, f.send(t, stranger, "/state"))
	assert.Equal(t, "Current Turn: Alice\nTopmost Card: R5", f.msgr.lastChat())

	require.NoError(t, f.send(t, stranger, "/listplayers"))
	assert.Equal(t, "List of players:\n\nAlice (7 cards) [*]\nBob (7 cards)\n", f.msgr.lastChat())
}

func TestWildWithoutPendingIsRejected(t *testing.T) {
	f := newFixture(t)
	f.started(t)

	err := f.send(t, f.alice, "/wild red")
	require.ErrorIs(t, err, game.ErrNothingToResolve)
	assert.Equal(t, "An uncolored Wild card is not on top of the played pile.", f.msgr.lastChat())

	err = f.send(t, f.alice, "/seven Bob")
	require.ErrorIs(t, err, game.ErrNothingToResolve)
}

func TestFeedbackAndStaticCommands(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.send(t, f.alice, "/feedback"))
	assert.Equal(t, textFeedbackUsage, f.msgr.lastChat())

	require.NoError(t, f.send(t, f.alice, "/feedback more colors please"))
	assert.Equal(t, textFeedbackThanks, f.msgr.lastChat())
	require.Len(t, f.recorder.feedback, 1)
	assert.Equal(t, "more colors please", f.recorder.feedback[0].Text)
	assert.Equal(t, f.alice.ID, f.recorder.feedback[0].UserID)

	require.NoError(t, f.send(t, f.alice, "/help"))
	assert.Equal(t, textHelp, f.msgr.lastChat())
	require.NoError(t, f.send(t, f.alice, "/rules"))
	assert.Equal(t, textRules, f.msgr.lastChat())
	require.NoError(t, f.send(t, f.alice, "/start"))
	assert.Equal(t, textStart, f.msgr.lastChat())

	known, err := f.hub.Handle(context.Background(), testChat, f.alice, "hello everyone")
	assert.False(t, known)
	assert.NoError(t, err)
}

func TestLeaderboard(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.send(t, f.alice, "/leaderboard"))
	assert.Equal(t, textNoRatedGames, f.msgr.lastChat())

	f.recorder.board = []models.PlayerRating{
		{Name: "Alice", Rating: 1662, Games: 3, Wins: 2},
		{Name: "Bob", Rating: 1338, Games: 3, Wins: 1},
	}
	require.NoError(t, f.send(t, f.bob, "/top"))
	assert.Equal(t, "Leaderboard:\n\n1. Alice 1662 (3 games, 2 wins)\n2. Bob 1338 (3 games, 1 wins)\n", f.msgr.lastChat())

	f.hub.Recorder = nil
	_, err := f.hub.Handle(context.Background(), "elsewhere", f.alice, "/leaderboard")
	require.NoError(t, err)
	assert.Equal(t, textNoRatings, f.msgr.lastChat())
}

func TestReadyGating(t *testing.T) {
	f := newFixture(t)
	rules := game.DefaultHouseRules()
	rules.RequireReady = true
	f.hub.rules = rules
	f.started(t)

	err := f.send(t, f.alice, "/play 0")
	require.ErrorIs(t, err, game.ErrNotReady)

	require.NoError(t, f.send(t, f.alice, "/ready"))
	assert.Equal(t, "Alice is ready.", f.msgr.lastChat())
	require.NoError(t, f.send(t, f.bob, "/ready"))
	assert.True(t, f.msgr.chatContains("Everyone is ready. Let's play!"))

	require.NoError(t, f.send(t, f.alice, "/play 0"))
	assert.Equal(t, "Current Turn: Bob\nTopmost Card: R1", f.msgr.lastChat())

	require.NoError(t, f.send(t, f.bob, "/unready"))
	assert.Equal(t, "Bob is no longer ready.", f.msgr.lastChat())
	err = f.send(t, f.bob, "/draw")
	require.ErrorIs(t, err, game.ErrNotReady)
}

func TestHubSessions(t *testing.T) {
	f := newFixture(t)
	a := f.hub.Session("a")
	assert.Same(t, a, f.hub.Session("a"))
	f.hub.Session("b")
	assert.Equal(t, 2, f.hub.Count())

	_, ok := f.hub.GetSession("c")
	assert.False(t, ok)

	f.hub.DeleteSession("a")
	_, ok = f.hub.GetSession("a")
	assert.False(t, ok)
	assert.Equal(t, 1, f.hub.Count())
}
