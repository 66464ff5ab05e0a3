// internal/chat/session.go
package chat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
)

// Messenger delivers outbound text. Implementations must not block for long and must not
// call back into the session.
type Messenger interface {
	SendToChat(chatID, text string) error
	SendToPlayer(playerID uuid.UUID, text string) error
}

// Recorder persists finished matches and feedback, and reads back the chat's ratings.
type Recorder interface {
	RecordMatch(ctx context.Context, result models.MatchResult) error
	StoreFeedback(ctx context.Context, fb models.Feedback) error
	Leaderboard(ctx context.Context, chatID string, limit int) ([]models.PlayerRating, error)
}

// DeckFactory builds the deck for a new game. Nil means a freshly shuffled deck.
type DeckFactory func(playerCount int) *game.Deck

const (
	minNicknameLen = 3
	maxNicknameLen = 15

	leaderboardSize = 10
)

// Session is the state of one chat: a pending lobby, or a running game.
//
// Lock order is Session.mu, then UnoGame.Mu. Callbacks fired by the game under its own lock
// (announcements, the turn timer, game end) never take Session.mu.
type Session struct {
	ChatID string

	mu      sync.Mutex
	pending bool
	joined  []models.Participant
	game    *game.UnoGame

	messenger Messenger
	rules     game.HouseRules
	games     *game.GameStore
	historian game.ActionPublisher
	recorder  Recorder
	newDeck   DeckFactory
	log       logrus.FieldLogger
}

// Handle parses text and runs it for sender. It reports whether text was a known command,
// and returns the game's error for a rejected action (already announced in the chat).
func (s *Session) Handle(ctx context.Context, sender models.Sender, text string) (bool, error) {
	cmd, ok := ParseCommand(text)
	if !ok {
		return false, nil
	}
	return true, s.Dispatch(ctx, sender, cmd)
}

// Dispatch runs a parsed command.
func (s *Session) Dispatch(ctx context.Context, sender models.Sender, cmd models.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"cmd": cmd.Name, "sender": sender.ID}).Debug("Handling command.")

	switch cmd.Name {
	case CmdStart:
		s.say(textStart)
	case CmdHelp:
		s.say(textHelp)
	case CmdRules:
		s.say(textRules)
	case CmdFeedback:
		s.feedback(ctx, sender, cmd.Args)
	case CmdLeaderboard:
		s.leaderboard(ctx)
	case CmdNewGame:
		s.newGame()
	case CmdJoin:
		s.join(sender, cmd.Args)
	case CmdLeave:
		s.leave(sender)
	case CmdListPlayers:
		s.listPlayers()
	case CmdStartGame:
		return s.startGame(sender)
	case CmdEndGame:
		s.endGame()
	case CmdHand:
		s.hand(sender)
	case CmdState:
		s.state()
	case CmdDraw:
		return s.draw(sender)
	case CmdPlay:
		return s.play(sender, cmd.Args)
	case CmdWild:
		return s.wild(sender, cmd.Args)
	case CmdUno:
		return s.uno(sender)
	case CmdSeven:
		return s.seven(sender, cmd.Args)
	case CmdReady:
		return s.ready(sender, true)
	case CmdUnready:
		return s.ready(sender, false)
	default:
		s.log.Warnf("Unhandled command %q.", cmd.Name)
	}
	return nil
}

// activeGame returns the running game, dropping a game that has ended.
// Assumes s.mu is held.
func (s *Session) activeGame() *game.UnoGame {
	if s.game == nil {
		return nil
	}
	s.game.Mu.Lock()
	over := s.game.GameOver
	s.game.Mu.Unlock()
	if over {
		s.game = nil
	}
	return s.game
}

// Game returns the running game, if any.
func (s *Session) Game() *game.UnoGame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeGame()
}

// Pending reports whether a game is waiting for players, and who has joined.
func (s *Session) Pending() (bool, []models.Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Participant, len(s.joined))
	copy(out, s.joined)
	return s.pending, out
}

func (s *Session) say(text string) {
	if err := s.messenger.SendToChat(s.ChatID, text); err != nil {
		s.log.WithError(err).Warn("Failed to send chat message.")
	}
}

func (s *Session) sayf(format string, args ...interface{}) {
	s.say(fmt.Sprintf(format, args...))
}

func (s *Session) whisper(playerID uuid.UUID, text string) error {
	err := s.messenger.SendToPlayer(playerID, text)
	if err != nil {
		s.log.WithError(err).Warnf("Failed to message player %s privately.", playerID)
	}
	return err
}

func (s *Session) feedback(ctx context.Context, sender models.Sender, args []string) {
	if len(args) == 0 {
		s.say(textFeedbackUsage)
		return
	}
	fb := models.Feedback{
		ChatID:    s.ChatID,
		UserID:    sender.ID,
		UserName:  sender.Name,
		Text:      strings.Join(args, " "),
		CreatedAt: time.Now(),
	}
	if s.recorder == nil {
		s.log.WithFields(logrus.Fields{"user": sender.Name, "feedback": fb.Text}).Info("Feedback received.")
	} else if err := s.recorder.StoreFeedback(ctx, fb); err != nil {
		s.log.WithError(err).Error("Failed to store feedback.")
	}
	s.say(textFeedbackThanks)
}

func (s *Session) leaderboard(ctx context.Context) {
	if s.recorder == nil {
		s.say(textNoRatings)
		return
	}
	board, err := s.recorder.Leaderboard(ctx, s.ChatID, leaderboardSize)
	if err != nil {
		s.log.WithError(err).Error("Failed to load the leaderboard.")
		s.say(textSomethingWrong)
		return
	}
	if len(board) == 0 {
		s.say(textNoRatedGames)
		return
	}
	var b strings.Builder
	b.WriteString("Leaderboard:\n\n")
	for i, r := range board {
		fmt.Fprintf(&b, "%d. %s %d (%d games, %d wins)\n", i+1, r.Name, r.Rating, r.Games, r.Wins)
	}
	s.say(b.String())
}

func (s *Session) newGame() {
	switch {
	case s.activeGame() != nil:
		s.say(textGameOngoing)
	case s.pending:
		s.say(textGamePending)
	default:
		s.pending = true
		s.joined = nil
		s.say(textNewGame)
	}
}

// ValidNickname applies the nickname rules for a joining player: 3 to 15 characters,
// not a number, and not taken by someone else (case-insensitively). A player may
// re-join under their own name.
func ValidNickname(name string, playerID uuid.UUID, joined []models.Participant) bool {
	n := utf8.RuneCountInString(name)
	if n < minNicknameLen || n > maxNicknameLen {
		return false
	}
	for _, p := range joined {
		if p.ID == playerID && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	for _, p := range joined {
		if strings.EqualFold(p.Name, name) {
			return false
		}
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(name), 64); err == nil {
		return false
	}
	return true
}

func (s *Session) join(sender models.Sender, args []string) {
	if !s.pending {
		s.say(textJoinNotPending)
		return
	}
	nickname := strings.Join(args, " ")
	if nickname == "" {
		nickname = sender.Name
	}
	if !ValidNickname(nickname, sender.ID, s.joined) {
		s.say(textInvalidNickname)
		return
	}

	replaced := false
	for i := range s.joined {
		if s.joined[i].ID == sender.ID {
			s.joined[i].Name = nickname
			replaced = true
		}
	}
	if !replaced {
		s.joined = append(s.joined, models.Participant{ID: sender.ID, Name: nickname})
	}
	s.sayf(textJoined, nickname)
	s.sayf(textPlayerCount, len(s.joined))
}

func (s *Session) leave(sender models.Sender) {
	if !s.pending {
		s.say(textLeaveNotPending)
		return
	}
	for i, p := range s.joined {
		if p.ID == sender.ID {
			s.joined = append(s.joined[:i], s.joined[i+1:]...)
			s.say(textLeft)
			return
		}
	}
	s.say(textNotInGame)
}

func (s *Session) listPlayers() {
	if g := s.activeGame(); g != nil {
		g.Mu.Lock()
		text := g.ListPlayers()
		g.Mu.Unlock()
		s.say(text)
		return
	}
	if !s.pending {
		s.say(textNoGame)
		return
	}
	var b strings.Builder
	b.WriteString("List of players:\n\n")
	for _, p := range s.joined {
		b.WriteString(p.Name)
		b.WriteString("\n")
	}
	s.say(b.String())
}

func (s *Session) startGame(sender models.Sender) error {
	if !s.pending {
		s.say(textStartNotPending)
		return nil
	}
	minPlayers := s.rules.MinPlayers
	if minPlayers < 2 {
		minPlayers = 2
	}
	if len(s.joined) < minPlayers {
		s.sayf(textStartMinPlayers, minPlayers)
		return nil
	}

	// Every player must be reachable privately to receive their hand.
	for _, p := range s.joined {
		if err := s.whisper(p.ID, textTryingToStart); err != nil {
			s.say(textStartFailure)
			return nil
		}
	}

	participants := make([]models.Participant, len(s.joined))
	copy(participants, s.joined)

	var (
		g   *game.UnoGame
		err error
	)
	if s.newDeck != nil {
		g, err = game.NewGameWithDeck(s.ChatID, participants, s.newDeck(len(participants)), s.announce, s.rules)
	} else {
		g, err = game.NewGame(s.ChatID, participants, s.announce, s.rules)
	}
	if err != nil {
		s.log.WithError(err).Error("Failed to create game.")
		s.say(textSomethingWrong)
		return err
	}
	s.pending = false
	s.joined = nil
	s.attach(g)

	g.Mu.Lock()
	defer g.Mu.Unlock()
	s.say(textGameStarted)
	if err := g.PlayInitialCard(); err != nil {
		s.log.WithError(err).Error("Failed to play the starting card.")
		g.EndGame(uuid.Nil)
		s.game = nil
		s.say(textSomethingWrong)
		return err
	}
	s.log.WithField("game", g.ID).Infof("%s started a game with %d players.", sender.Name, len(participants))
	s.render(g)
	return nil
}

// attach wires a new game to the session's collaborators.
// Assumes s.mu is held.
func (s *Session) attach(g *game.UnoGame) {
	g.Log = s.log.WithField("game", g.ID)
	if s.historian != nil {
		g.Historian = s.historian
	}
	g.OnGameEnd = s.onGameEnd(g.ID)
	g.OnTurnTimeout = func(uuid.UUID) {
		// Runs from the timer with only g.Mu held.
		s.render(g)
	}
	s.game = g
	if s.games != nil {
		s.games.AddGame(g)
	}
}

// onGameEnd runs with the game lock held, possibly from the timer, so it must not take s.mu.
// The session notices the ended game lazily.
func (s *Session) onGameEnd(gameID uuid.UUID) game.OnGameEndFunc {
	return func(result models.MatchResult) {
		if s.games != nil {
			s.games.DeleteGame(gameID)
		}
		if s.recorder == nil {
			return
		}
		go func(rec Recorder, res models.MatchResult, log logrus.FieldLogger) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := rec.RecordMatch(ctx, res); err != nil {
				log.WithError(err).Error("Failed to record match result.")
			}
		}(s.recorder, result, s.log)
	}
}

func (s *Session) announce(text string) {
	s.say(text)
}

func (s *Session) endGame() {
	if s.pending {
		s.pending = false
		s.joined = nil
		s.say(textGameEnded)
		return
	}
	g := s.activeGame()
	if g == nil {
		s.say(textNoGame)
		return
	}
	g.Mu.Lock()
	g.EndGame(uuid.Nil)
	g.Mu.Unlock()
	s.game = nil
	s.say(textGameEnded)
}

func (s *Session) hand(sender models.Sender) {
	g := s.activeGame()
	if g == nil {
		_ = s.whisper(sender.ID, textNoGame)
		return
	}
	g.Mu.Lock()
	text, err := g.HandTextOf(sender.ID)
	g.Mu.Unlock()
	if err != nil {
		_ = s.whisper(sender.ID, textNotInGame)
		return
	}
	_ = s.whisper(sender.ID, text)
}

func (s *Session) state() {
	g := s.activeGame()
	if g == nil {
		s.say(textNoGame)
		return
	}
	g.Mu.Lock()
	text := g.CurrentStateSummary()
	g.Mu.Unlock()
	s.say(text)
}

// withGame locks the running game for fn, or posts the no-game reply.
func (s *Session) withGame(fn func(g *game.UnoGame) error) error {
	g := s.activeGame()
	if g == nil {
		s.say(textNoGame)
		return nil
	}
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return fn(g)
}

func (s *Session) draw(sender models.Sender) error {
	return s.withGame(func(g *game.UnoGame) error {
		if err := g.DrawAndContinue(sender.ID); err != nil {
			return err
		}
		g.FinishTurn()
		s.render(g)
		return nil
	})
}

func (s *Session) play(sender models.Sender, args []string) error {
	if len(args) != 1 {
		s.say(textPlayUsage)
		return nil
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		s.say(textPlayUsage)
		return nil
	}
	return s.withGame(func(g *game.UnoGame) error {
		if err := g.PlayCard(sender.ID, idx); err != nil {
			return err
		}
		if id, open := g.UnoPendingOn(); open {
			s.sayf(textHasUno, g.NameOf(id))
		}
		s.resume(g)
		return nil
	})
}

func (s *Session) wild(sender models.Sender, args []string) error {
	col, _ := models.ParseColor(strings.Join(args, " "))
	return s.withGame(func(g *game.UnoGame) error {
		if err := g.SetWildColor(sender.ID, col); err != nil {
			return err
		}
		s.resume(g)
		return nil
	})
}

func (s *Session) uno(sender models.Sender) error {
	return s.withGame(func(g *game.UnoGame) error {
		offender, _ := g.UnoPendingOn()
		outcome, err := g.CheckUnoCaller(sender.ID)
		if err != nil {
			return err
		}
		switch outcome {
		case game.UnoNothingToDo:
			return nil
		case game.UnoCaught:
			s.sayf(textUnoCaught, g.NameOf(offender))
		case game.UnoSelfCalled:
			s.sayf(textUnoCalled, g.NameOf(sender.ID))
		}
		s.resume(g)
		return nil
	})
}

func (s *Session) seven(sender models.Sender, args []string) error {
	name := strings.Join(args, " ")
	if name == "" {
		s.say(textSevenUsage)
		return nil
	}
	return s.withGame(func(g *game.UnoGame) error {
		target, _ := g.PlayerByName(name)
		if err := g.PlaySeven(sender.ID, target); err != nil {
			return err
		}
		if id, open := g.UnoPendingOn(); open {
			s.sayf(textHasUno, g.NameOf(id))
		}
		s.resume(g)
		return nil
	})
}

func (s *Session) ready(sender models.Sender, ready bool) error {
	return s.withGame(func(g *game.UnoGame) error {
		everyone, err := g.SetReady(sender.ID, ready)
		if err != nil {
			return err
		}
		if ready {
			s.sayf(textReady, g.NameOf(sender.ID))
		} else {
			s.sayf(textUnready, g.NameOf(sender.ID))
		}
		if everyone && ready {
			s.render(g)
		}
		return nil
	})
}

// resume ends the game on a win, otherwise finishes the turn once nothing is left to
// resolve. While a resolution is open, the player it waits on is prompted.
// Assumes s.mu and g.Mu are held.
func (s *Session) resume(g *game.UnoGame) {
	if winner, ok := g.CheckForWin(); ok {
		g.EndGame(winner)
		s.game = nil
		s.say(textGameEnded)
		return
	}
	if g.AnyResolutionOpen() {
		if id, open := g.WildPendingOn(); open {
			s.sayf(textChooseColor, g.NameOf(id))
		}
		if id, open := g.SwapPendingOn(); open {
			s.sayf(textChooseSwap, g.NameOf(id))
		}
		s.sendHands(g)
		return
	}
	g.FinishTurn()
	s.render(g)
}

// render posts the state to the chat and every hand privately. A finished game gets the
// closing message instead.
// Assumes g.Mu is held.
func (s *Session) render(g *game.UnoGame) {
	if g.GameOver {
		s.say(textGameEnded)
		return
	}
	s.say(g.CurrentStateSummary())
	s.sendHands(g)
}

// sendHands messages each player their own hand.
// Assumes g.Mu is held.
func (s *Session) sendHands(g *game.UnoGame) {
	for _, p := range g.Seats() {
		text, err := g.HandTextOf(p.ID)
		if err != nil {
			continue
		}
		_ = s.whisper(p.ID, text)
	}
}

// ErrorCode maps a game error to a short machine-readable code for clients.
func ErrorCode(err error) string {
	codes := []struct {
		kind error
		code string
	}{
		{game.ErrNotYourTurn, "not_your_turn"},
		{game.ErrInvalidCardIndex, "invalid_card_index"},
		{game.ErrInvalidPlay, "invalid_play"},
		{game.ErrActionBlocked, "action_blocked"},
		{game.ErrPlayerNotFound, "player_not_found"},
		{game.ErrInvalidColorChoice, "invalid_color"},
		{game.ErrNothingToResolve, "nothing_to_resolve"},
		{game.ErrInvalidTarget, "invalid_target"},
		{game.ErrNotReady, "not_ready"},
		{game.ErrGameOver, "game_over"},
		{game.ErrNotEnoughPlayers, "not_enough_players"},
		{game.ErrDuplicatePlayer, "duplicate_player"},
		{game.ErrAlreadyStarted, "already_started"},
		{game.ErrDeckExhausted, "deck_exhausted"},
	}
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.kind) {
			return c.code
		}
	}
	return "internal"
}
