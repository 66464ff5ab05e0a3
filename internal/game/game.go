// internal/game/game.go
package game

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
)

// HandSize is the number of cards dealt to each player.
const HandSize = 7

// Announcer posts a message to the chat hosting the game.
type Announcer func(text string)

// OnGameEndFunc is invoked once when a game ends, with the lock held.
type OnGameEndFunc func(result models.MatchResult)

// ActionPublisher ships game action records to the historian.
type ActionPublisher interface {
	PublishGameAction(ctx context.Context, record cache.GameActionRecord) error
}

// Direction is +1 for forward play and -1 once reversed.
type Direction int

const (
	Forward  Direction = 1
	Reversed Direction = -1
)

func (d Direction) String() string {
	if d == Reversed {
		return "reversed"
	}
	return "forward"
}

// Action types recorded through the historian.
const (
	ActionGameCreated    = "game_created"
	ActionStartingCard   = "starting_card"
	ActionCardPlayed     = "card_played"
	ActionCardDrawn      = "card_drawn"
	ActionTurnAdvanced   = "turn_advanced"
	ActionPenaltyApplied = "penalty_applied"
	ActionWildColorSet   = "wild_color_set"
	ActionUnoCalled      = "uno_called"
	ActionHandsRotated   = "hands_rotated"
	ActionHandsSwapped   = "hands_swapped"
	ActionPlayerReady    = "player_ready"
	ActionTurnTimeout    = "turn_timeout"
	ActionGameEnd        = "game_end"
)

// UnoGame holds the entire state for a single match in memory.
// Methods assume Mu is held by the caller unless noted otherwise.
type UnoGame struct {
	ID     uuid.UUID
	ChatID string

	HouseRules HouseRules

	players    []*models.Player // indexed by seat
	byID       map[uuid.UUID]*models.Player
	Deck       *Deck
	totalCards int

	currentSeat     int
	direction       Direction
	pendingDrawTwo  int
	pendingDrawFour int
	skipPending     bool

	wildResolution Resolution
	unoWindow      Resolution
	sevenSwap      Resolution

	ready map[uuid.UUID]bool

	// TurnID increments on every seat change; the turn timer uses it to detect stale firings.
	TurnID       int
	TurnDuration time.Duration
	turnTimer    *time.Timer
	actionIndex  int

	GameOver bool
	Winner   uuid.UUID

	Mu sync.Mutex

	announce Announcer
	rng      *rand.Rand

	Log       logrus.FieldLogger
	Historian ActionPublisher

	// OnGameEnd is invoked at game end to record results, etc.
	OnGameEnd OnGameEndFunc

	// OnTurnTimeout runs after the hot potato timer forced a turn, so the host can re-render.
	OnTurnTimeout func(playerID uuid.UUID)
}

// NewGame shuffles a deck sized for the participants and deals each of them a hand.
func NewGame(chatID string, participants []models.Participant, announce Announcer, rules HouseRules) (*UnoGame, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return NewGameWithDeck(chatID, participants, NewDeck(len(participants), rng), announce, rules)
}

// NewGameWithDeck deals from the given deck. Seats follow the order of participants.
func NewGameWithDeck(chatID string, participants []models.Participant, deck *Deck, announce Announcer, rules HouseRules) (*UnoGame, error) {
	minPlayers := rules.MinPlayers
	if minPlayers < 2 {
		minPlayers = 2
	}
	if len(participants) < minPlayers {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrNotEnoughPlayers, minPlayers, len(participants))
	}

	rng := deck.rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	id, _ := uuid.NewRandom()
	g := &UnoGame{
		ID:           id,
		ChatID:       chatID,
		HouseRules:   rules,
		byID:         make(map[uuid.UUID]*models.Player, len(participants)),
		Deck:         deck,
		direction:    Forward,
		ready:        make(map[uuid.UUID]bool, len(participants)),
		TurnDuration: rules.TurnDuration(),
		announce:     announce,
		rng:          rng,
		Log:          logrus.WithFields(logrus.Fields{"game": id, "chat": chatID}),
	}

	for seat, part := range participants {
		if _, dup := g.byID[part.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlayer, part.ID)
		}
		hand, err := deck.DrawN(HandSize)
		if err != nil {
			return nil, fmt.Errorf("dealing to %s: %w", part.Name, err)
		}
		p := models.NewPlayer(part.ID, seat, part.Name, hand)
		g.players = append(g.players, p)
		g.byID[p.ID] = p
		g.announcef("%s has been added to the game.", part.Name)
	}
	g.totalCards = g.CardsInCirculation()
	g.announcef("Everything has been set up.")

	names := make([]string, len(g.players))
	for i, p := range g.players {
		names[i] = p.Name
	}
	g.logAction(uuid.Nil, ActionGameCreated, map[string]interface{}{
		"players":       names,
		"advancedRules": rules.AdvancedRules,
		"deckSize":      g.totalCards,
	})
	g.Log.Infof("Game created with %d players.", len(g.players))
	return g, nil
}

// PlayInitialCard turns up the starting card, cycling action and wild cards back under
// the draw pile until a numeral comes up.
func (g *UnoGame) PlayInitialCard() error {
	if _, ok := g.Deck.Top(); ok {
		return g.reject(ErrAlreadyStarted, "The starting card has already been played.")
	}
	limit := g.Deck.DrawPileSize()
	for attempt := 0; ; attempt++ {
		c, err := g.Deck.DrawCard()
		if err != nil {
			g.Log.WithError(err).Error("Invariant violation: no card available for the starting card.")
			return err
		}
		if c.IsNumeral() {
			g.Deck.PlayCard(c)
			g.logAction(uuid.Nil, ActionStartingCard, map[string]interface{}{"card": c})
			break
		}
		g.Deck.ReturnCardToBottom(c)
		if attempt >= limit {
			return fmt.Errorf("%w: no numeral card for the starting card", ErrDeckExhausted)
		}
	}
	g.scheduleTurnTimer()
	return nil
}

// checkActor runs the validation shared by play and draw, in order:
// membership, game over, readiness, turn, open resolutions.
func (g *UnoGame) checkActor(playerID uuid.UUID, verb string) (*models.Player, error) {
	p, ok := g.byID[playerID]
	if !ok {
		return nil, g.reject(ErrPlayerNotFound, "You don't seem to exist!")
	}
	if g.GameOver {
		return nil, g.reject(ErrGameOver, "The game is already over.")
	}
	if !g.ReadyToPlay() {
		return nil, g.reject(ErrNotReady, "Not everyone is ready yet.")
	}
	if p.Seat != g.currentSeat {
		return nil, g.reject(ErrNotYourTurn, "It is not currently your turn!")
	}
	if id, open := g.wildResolution.Awaiting(); open {
		return nil, g.reject(ErrActionBlocked, fmt.Sprintf("You cannot %s a card; waiting for %s to set the wild color.", verb, g.nameOf(id)))
	}
	if id, open := g.sevenSwap.Awaiting(); open {
		return nil, g.reject(ErrActionBlocked, fmt.Sprintf("You cannot %s a card; waiting for %s to choose who to swap hands with.", verb, g.nameOf(id)))
	}
	if g.unoWindow.IsOpen() {
		return nil, g.reject(ErrActionBlocked, fmt.Sprintf("You cannot %s a card; Uno is pending.", verb))
	}
	return p, nil
}

// PlayCard plays the card at cardIndex from the player's hand. On any rejection the hand
// is left exactly as it was. The turn is not advanced.
func (g *UnoGame) PlayCard(playerID uuid.UUID, cardIndex int) error {
	p, err := g.checkActor(playerID, "play")
	if err != nil {
		return err
	}

	card, err := p.RemoveCardAt(cardIndex)
	if err != nil {
		return g.reject(err, "You cannot remove the card with this ID.")
	}
	if !g.Deck.IsValidPlay(card) {
		p.InsertCardAt(card, cardIndex)
		return g.reject(ErrInvalidPlay, "This is not a valid card.")
	}

	g.Deck.PlayCard(card)
	g.logAction(p.ID, ActionCardPlayed, map[string]interface{}{
		"card":     card,
		"index":    cardIndex,
		"handSize": p.HandSize(),
	})
	rotates := g.HouseRules.AdvancedRules && card.Value() == 0 && p.HandSize() > 0
	g.applyCardEffects(p, card)
	g.openUnoWindow(p, rotates)
	return nil
}

// openUnoWindow opens the call-out window for whoever the play left holding one card.
// After a rotation that is the actor or the seat that received the actor's hand. A pending
// seven swap changes hand sizes, so the window is evaluated once it resolves.
func (g *UnoGame) openUnoWindow(p *models.Player, rotated bool) {
	if g.sevenSwap.IsOpen() {
		return
	}
	if p.HandSize() == 1 {
		g.unoWindow = awaiting(p.ID)
		return
	}
	if rotated {
		if next := g.players[g.seatAfter(p.Seat, 1)]; next.HandSize() == 1 {
			g.unoWindow = awaiting(next.ID)
		}
	}
}

// applyCardEffects runs the side effects of a freshly played card in fixed order:
// hand rotation, seven swap, wild color, skip, reverse, draw two, draw four.
func (g *UnoGame) applyCardEffects(p *models.Player, card models.Card) {
	if g.HouseRules.AdvancedRules && p.HandSize() > 0 {
		switch card.Value() {
		case 0:
			g.rotateHands()
		case 7:
			g.sevenSwap = awaiting(p.ID)
		}
	}
	if card.IsWild() {
		g.wildResolution = awaiting(p.ID)
	}
	switch card.Value() {
	case models.Skip:
		g.skipPending = true
	case models.Reverse:
		g.direction = -g.direction
	case models.DrawTwo:
		g.pendingDrawTwo++
	case models.WildDrawFour:
		g.pendingDrawFour++
	}
}

// AdvanceTurn moves the turn step seats in the current direction.
//
// Pending draw penalties are checked on both sides of the move. Before leaving, the current
// player absorbs a penalty they failed to stack on. After arriving, a player who holds no
// card to stack with absorbs it at once and loses the turn.
func (g *UnoGame) AdvanceTurn(step int) {
	if g.GameOver {
		return
	}

	leaving := g.players[g.currentSeat]
	top, _ := g.Deck.Top()
	if g.pendingDrawTwo > 0 && top.Value() != models.DrawTwo {
		g.absorbPenalty(leaving, models.DrawTwo)
	}
	if g.pendingDrawFour > 0 && top.Value() != models.WildDrawFour {
		g.absorbPenalty(leaving, models.WildDrawFour)
	}

	g.currentSeat = g.seatAfter(g.currentSeat, step)

	arrived := g.players[g.currentSeat]
	absorbed := false
	if g.pendingDrawTwo > 0 && !arrived.HasValue(models.DrawTwo) {
		g.absorbPenalty(arrived, models.DrawTwo)
		absorbed = true
	}
	if g.pendingDrawFour > 0 && !arrived.HasValue(models.WildDrawFour) {
		g.absorbPenalty(arrived, models.WildDrawFour)
		absorbed = true
	}
	if absorbed {
		g.currentSeat = g.seatAfter(g.currentSeat, 1)
	}

	g.TurnID++
	current := g.players[g.currentSeat]
	g.Log.Debugf("Turn %d: seat %d (%s), direction %s.", g.TurnID, current.Seat, current.Name, g.direction)
	g.logAction(current.ID, ActionTurnAdvanced, map[string]interface{}{
		"turn":      g.TurnID,
		"seat":      current.Seat,
		"direction": int(g.direction),
	})
	g.scheduleTurnTimer()
}

// FinishTurn advances one seat and, if a skip is pending, advances past the skipped player.
func (g *UnoGame) FinishTurn() {
	g.AdvanceTurn(1)
	if g.skipPending && !g.GameOver {
		g.announcef("The next player has been skipped!")
		g.AdvanceTurn(1)
		g.skipPending = false
	}
}

func (g *UnoGame) seatAfter(seat, step int) int {
	n := len(g.players)
	next := (seat + step*int(g.direction)) % n
	if next < 0 {
		next += n
	}
	return next
}

// absorbPenalty makes p draw the whole stacked penalty of the given kind and resets it.
func (g *UnoGame) absorbPenalty(p *models.Player, kind int) {
	var count, per int
	switch kind {
	case models.DrawTwo:
		count, per = g.pendingDrawTwo, 2
		g.pendingDrawTwo = 0
	case models.WildDrawFour:
		count, per = g.pendingDrawFour, 4
		g.pendingDrawFour = 0
	default:
		return
	}
	if count == 0 {
		return
	}

	cards, err := g.Deck.DrawN(count * per)
	p.AddCards(cards...)
	if err != nil {
		g.Log.WithError(err).Errorf("Invariant violation: %s could only draw %d of %d penalty cards.", p.Name, len(cards), count*per)
	}
	g.announcef("%s draws %d cards!", p.Name, len(cards))
	g.logAction(p.ID, ActionPenaltyApplied, map[string]interface{}{
		"kind":  kind,
		"stack": count,
		"drawn": len(cards),
	})
}

// DrawAndContinue draws for the current player. A pending draw penalty is absorbed instead
// of the normal draw. Under advanced rules the player keeps drawing until a playable card
// turns up. The turn is not advanced.
func (g *UnoGame) DrawAndContinue(playerID uuid.UUID) error {
	p, err := g.checkActor(playerID, "draw")
	if err != nil {
		return err
	}

	if g.pendingDrawTwo > 0 || g.pendingDrawFour > 0 {
		g.absorbPenalty(p, models.DrawTwo)
		g.absorbPenalty(p, models.WildDrawFour)
		return nil
	}

	drawn := 0
	for {
		c, err := g.Deck.DrawCard()
		if err != nil {
			g.Log.WithError(err).Error("Invariant violation: draw with no cards in circulation.")
			if drawn == 0 {
				return g.reject(err, "There are no cards left to draw.")
			}
			break
		}
		p.AddCard(c)
		drawn++
		if !g.HouseRules.AdvancedRules || g.Deck.IsValidPlay(c) {
			break
		}
	}

	if drawn > 1 {
		g.announcef("%s drew %d cards.", p.Name, drawn)
	}
	g.logAction(p.ID, ActionCardDrawn, map[string]interface{}{
		"count":    drawn,
		"handSize": p.HandSize(),
	})
	return nil
}

// CheckForWin reports a player with an empty hand. No win is reported while a wild color
// is still unresolved.
func (g *UnoGame) CheckForWin() (uuid.UUID, bool) {
	if g.wildResolution.IsOpen() {
		return uuid.Nil, false
	}
	for _, p := range g.players {
		if p.HandSize() == 0 {
			return p.ID, true
		}
	}
	return uuid.Nil, false
}

// EndGame stops the timer, announces the winner if there is one, and calls OnGameEnd.
// winner may be uuid.Nil for a game ended without a winner.
func (g *UnoGame) EndGame(winner uuid.UUID) {
	if g.GameOver {
		g.Log.Debug("EndGame called, but game is already over.")
		return
	}
	g.GameOver = true
	g.Winner = winner
	g.stopTurnTimer()

	if p, ok := g.byID[winner]; ok {
		g.announcef("%s has won!", p.Name)
	}

	result := g.Result()
	g.logAction(uuid.Nil, ActionGameEnd, map[string]interface{}{
		"winner":  winner,
		"players": result.Players,
	})
	g.Log.WithField("winner", winner).Info("Game ended.")

	if g.OnGameEnd != nil {
		g.OnGameEnd(result)
	}
}

// Result summarizes the standings.
func (g *UnoGame) Result() models.MatchResult {
	res := models.MatchResult{
		GameID:   g.ID,
		ChatID:   g.ChatID,
		WinnerID: g.Winner,
		EndedAt:  time.Now(),
	}
	for _, p := range g.players {
		res.Players = append(res.Players, models.PlayerResult{
			PlayerID:  p.ID,
			Name:      p.Name,
			Seat:      p.Seat,
			CardsLeft: p.HandSize(),
			Won:       p.ID == g.Winner && g.Winner != uuid.Nil,
		})
	}
	return res
}

// CurrentStateSummary names whose turn it is and the top of the discard pile.
func (g *UnoGame) CurrentStateSummary() string {
	text := "Current Turn: " + g.players[g.currentSeat].Name + "\n"
	if top, ok := g.Deck.Top(); ok {
		return text + "Topmost Card: " + top.String()
	}
	return text + "Topmost Card: None"
}

// ListPlayers lists seats in order, marking the current player.
func (g *UnoGame) ListPlayers() string {
	var b strings.Builder
	b.WriteString("List of players:\n\n")
	for _, p := range g.players {
		b.WriteString(fmt.Sprintf("%s (%d cards)", p.Name, p.HandSize()))
		if p.Seat == g.currentSeat {
			b.WriteString(" [*]")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// HandOf returns the numbered hand listing for a player.
func (g *UnoGame) HandOf(playerID uuid.UUID) ([]string, error) {
	p, ok := g.byID[playerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	return p.FormattedHand(), nil
}

// HandTextOf returns the private hand message for a player.
func (g *UnoGame) HandTextOf(playerID uuid.UUID) (string, error) {
	p, ok := g.byID[playerID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	return p.FormattedHandText(), nil
}

// HandCards returns a copy of a player's hand.
func (g *UnoGame) HandCards(playerID uuid.UUID) ([]models.Card, error) {
	p, ok := g.byID[playerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	return p.Hand(), nil
}

func (g *UnoGame) IsWildPending() bool { return g.wildResolution.IsOpen() }
func (g *UnoGame) IsUnoPending() bool { return g.unoWindow.IsOpen() }
func (g *UnoGame) IsSevenPending() bool { return g.sevenSwap.IsOpen() }
func (g *UnoGame) IsSkipPending() bool { return g.skipPending }

// ClearSkipPending is called by the host once it has moved past the skipped player.
func (g *UnoGame) ClearSkipPending() { g.skipPending = false }

// AnyResolutionOpen reports whether the turn is waiting on a wild color, a seven swap or an Uno call.
func (g *UnoGame) AnyResolutionOpen() bool {
	return g.wildResolution.IsOpen() || g.sevenSwap.IsOpen() || g.unoWindow.IsOpen()
}

func (g *UnoGame) WildPendingOn() (uuid.UUID, bool) { return g.wildResolution.Awaiting() }
func (g *UnoGame) UnoPendingOn() (uuid.UUID, bool) { return g.unoWindow.Awaiting() }
func (g *UnoGame) SwapPendingOn() (uuid.UUID, bool) { return g.sevenSwap.Awaiting() }

// NameOf returns a seated player's display name.
func (g *UnoGame) NameOf(id uuid.UUID) string { return g.nameOf(id) }

func (g *UnoGame) CurrentSeat() int { return g.currentSeat }
func (g *UnoGame) Direction() Direction { return g.direction }
func (g *UnoGame) PendingDrawTwo() int { return g.pendingDrawTwo }
func (g *UnoGame) PendingDrawFour() int { return g.pendingDrawFour }
func (g *UnoGame) CurrentPlayerID() uuid.UUID { return g.players[g.currentSeat].ID }

// Seats returns the participants in seat order.
func (g *UnoGame) Seats() []models.Participant {
	out := make([]models.Participant, len(g.players))
	for i, p := range g.players {
		out[i] = models.Participant{ID: p.ID, Name: p.Name}
	}
	return out
}

// HasPlayer reports whether id is seated in this game.
func (g *UnoGame) HasPlayer(id uuid.UUID) bool {
	_, ok := g.byID[id]
	return ok
}

// PlayerByName finds a seated player by display name, case-insensitively.
func (g *UnoGame) PlayerByName(name string) (uuid.UUID, bool) {
	for _, p := range g.players {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p.ID, true
		}
	}
	return uuid.Nil, false
}

// CardsInCirculation counts every card in the piles and hands.
func (g *UnoGame) CardsInCirculation() int {
	n := g.Deck.DrawPileSize() + g.Deck.DiscardPileSize()
	for _, p := range g.players {
		n += p.HandSize()
	}
	return n
}

// TotalCards is the number of cards the game was created with.
func (g *UnoGame) TotalCards() int { return g.totalCards }

func (g *UnoGame) nameOf(id uuid.UUID) string {
	if p, ok := g.byID[id]; ok {
		return p.Name
	}
	return "someone"
}

func (g *UnoGame) announcef(format string, args ...interface{}) {
	if g.announce == nil {
		return
	}
	g.announce(fmt.Sprintf(format, args...))
}

// reject announces a validation failure and returns it wrapped with the announced text.
func (g *UnoGame) reject(kind error, text string) error {
	g.Log.WithError(kind).Debug("Action rejected.")
	g.announcef("%s", text)
	return fmt.Errorf("%w: %s", kind, text)
}

// logAction sends the action details to the historian service via Redis.
func (g *UnoGame) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if g.Historian == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.GameActionRecord{
		GameID:        g.ID,
		ChatID:        g.ChatID,
		ActionIndex:   g.actionIndex,
		ActorUserID:   actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func(h ActionPublisher, rec cache.GameActionRecord, log logrus.FieldLogger) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.PublishGameAction(ctx, rec); err != nil {
			log.WithError(err).Warnf("Failed to publish game action %d (%s).", rec.ActionIndex, rec.ActionType)
		}
	}(g.Historian, record, g.Log)
}
