// internal/game/special_actions.go
package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// Resolution is either closed or awaiting a specific player. The zero value is closed.
type Resolution struct {
	playerID uuid.UUID
	open     bool
}

func awaiting(playerID uuid.UUID) Resolution {
	return Resolution{playerID: playerID, open: true}
}

// Awaiting returns the player the resolution waits on.
func (r Resolution) Awaiting() (uuid.UUID, bool) {
	return r.playerID, r.open
}

func (r Resolution) IsOpen() bool { return r.open }

// Is reports whether the resolution is open and waiting on id.
func (r Resolution) Is(id uuid.UUID) bool {
	return r.open && r.playerID == id
}

// UnoOutcome is the result of an Uno call.
type UnoOutcome int

const (
	UnoNothingToDo UnoOutcome = iota // no window was open
	UnoSelfCalled                    // the player with one card called it; no penalty
	UnoCaught                        // someone else called it first; the offender drew a card
)

func (o UnoOutcome) String() string {
	switch o {
	case UnoSelfCalled:
		return "self_called"
	case UnoCaught:
		return "caught"
	}
	return "nothing_to_do"
}

// SetWildColor resolves the open wild with the chosen color.
func (g *UnoGame) SetWildColor(playerID uuid.UUID, col models.Color) error {
	p, ok := g.byID[playerID]
	if !ok {
		return g.reject(ErrPlayerNotFound, "You don't seem to exist!")
	}
	awaitingID, open := g.wildResolution.Awaiting()
	if !open {
		return g.reject(ErrNothingToResolve, "An uncolored Wild card is not on top of the played pile.")
	}
	if awaitingID != p.ID {
		return g.reject(ErrNotYourTurn, fmt.Sprintf("You cannot set the wild color. Waiting for %s to set it.", g.nameOf(awaitingID)))
	}
	if !col.Valid() {
		return g.reject(ErrInvalidColorChoice, "That is not a valid color. Choose R, G, B, or Y.")
	}
	if err := g.Deck.SetWildColor(col); err != nil {
		g.Log.WithError(err).Error("Wild resolution open without a wild on top.")
		return err
	}
	g.wildResolution = Resolution{}
	g.logAction(p.ID, ActionWildColorSet, map[string]interface{}{"color": col.String()})
	g.announcef("%s chose %s.", p.Name, col.Name())
	return nil
}

// CheckUnoCaller closes the open Uno window. A caller other than the player with one card
// catches them, and that player draws one penalty card.
func (g *UnoGame) CheckUnoCaller(callerID uuid.UUID) (UnoOutcome, error) {
	if _, ok := g.byID[callerID]; !ok {
		return UnoNothingToDo, g.reject(ErrPlayerNotFound, "You are not in the game!")
	}
	offenderID, open := g.unoWindow.Awaiting()
	if !open {
		return UnoNothingToDo, nil
	}
	g.unoWindow = Resolution{}

	if callerID == offenderID {
		g.logAction(callerID, ActionUnoCalled, map[string]interface{}{"outcome": UnoSelfCalled.String()})
		return UnoSelfCalled, nil
	}

	offender := g.byID[offenderID]
	c, err := g.Deck.DrawCard()
	if err != nil {
		g.Log.WithError(err).Error("Invariant violation: no card for the Uno penalty.")
	} else {
		offender.AddCard(c)
	}
	g.logAction(callerID, ActionUnoCalled, map[string]interface{}{
		"outcome":  UnoCaught.String(),
		"offender": offenderID,
	})
	return UnoCaught, nil
}

// PlaySeven swaps the resolving player's hand with the target's.
func (g *UnoGame) PlaySeven(playerID, targetID uuid.UUID) error {
	p, ok := g.byID[playerID]
	if !ok {
		return g.reject(ErrPlayerNotFound, "You don't seem to exist!")
	}
	awaitingID, open := g.sevenSwap.Awaiting()
	if !open {
		return g.reject(ErrNothingToResolve, "There is no hand swap to resolve.")
	}
	if awaitingID != p.ID {
		return g.reject(ErrNotYourTurn, fmt.Sprintf("You cannot swap hands. Waiting for %s to choose.", g.nameOf(awaitingID)))
	}
	if targetID == p.ID {
		return g.reject(ErrInvalidTarget, "You cannot swap hands with yourself.")
	}
	target, ok := g.byID[targetID]
	if !ok {
		return g.reject(ErrPlayerNotFound, "That player is not in the game.")
	}

	mine := p.ExchangeHand(nil)
	p.ExchangeHand(target.ExchangeHand(mine))
	g.sevenSwap = Resolution{}

	g.logAction(p.ID, ActionHandsSwapped, map[string]interface{}{"target": target.ID})
	g.announcef("%s swapped hands with %s.", p.Name, target.Name)
	g.openUnoWindowAfterSwap(p, target)
	return nil
}

// skipSevenSwap closes an open swap without exchanging hands.
func (g *UnoGame) skipSevenSwap() {
	id, open := g.sevenSwap.Awaiting()
	if !open {
		return
	}
	g.sevenSwap = Resolution{}
	if p, ok := g.byID[id]; ok {
		g.openUnoWindowAfterSwap(p, nil)
	}
}

func (g *UnoGame) openUnoWindowAfterSwap(p, target *models.Player) {
	switch {
	case p.HandSize() == 1:
		g.unoWindow = awaiting(p.ID)
	case target != nil && target.HandSize() == 1:
		g.unoWindow = awaiting(target.ID)
	}
}

// rotateHands passes every hand one seat along the current direction.
func (g *UnoGame) rotateHands() {
	n := len(g.players)
	hands := make([][]models.Card, n)
	for seat, p := range g.players {
		hands[seat] = p.ExchangeHand(nil)
	}
	for seat, hand := range hands {
		g.players[g.seatAfter(seat, 1)].ExchangeHand(hand)
	}
	g.logAction(uuid.Nil, ActionHandsRotated, map[string]interface{}{"direction": int(g.direction)})
	g.announcef("All hands have been passed to the next player.")
}

// SetReady records a player's ready flag. Returns whether every player is now ready.
func (g *UnoGame) SetReady(playerID uuid.UUID, ready bool) (bool, error) {
	if _, ok := g.byID[playerID]; !ok {
		return false, g.reject(ErrPlayerNotFound, "You are not in the game!")
	}
	wasReady := g.ReadyToPlay()
	g.ready[playerID] = ready
	nowReady := g.ReadyToPlay()
	g.logAction(playerID, ActionPlayerReady, map[string]interface{}{"ready": ready})

	if nowReady && !wasReady {
		g.announcef("Everyone is ready. Let's play!")
		g.scheduleTurnTimer()
	}
	if !nowReady {
		g.stopTurnTimer()
	}
	return nowReady, nil
}

// ReadyToPlay reports whether draws and plays are allowed. Always true unless the
// RequireReady rule is on.
func (g *UnoGame) ReadyToPlay() bool {
	if !g.HouseRules.RequireReady {
		return true
	}
	for _, p := range g.players {
		if !g.ready[p.ID] {
			return false
		}
	}
	return true
}

// IsReady reports a single player's ready flag.
func (g *UnoGame) IsReady(playerID uuid.UUID) bool {
	return g.ready[playerID]
}
