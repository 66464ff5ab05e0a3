// internal/game/timer.go
package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// scheduleTurnTimer replaces the hot potato timer for the current turn. No-op unless
// TurnDuration > 0, the starting card is down and everyone is ready.
// Assumes lock is held.
func (g *UnoGame) scheduleTurnTimer() {
	g.stopTurnTimer()
	if g.TurnDuration <= 0 || g.GameOver || !g.ReadyToPlay() {
		return
	}
	if _, started := g.Deck.Top(); !started {
		return
	}

	playerID := g.players[g.currentSeat].ID
	turnID := g.TurnID
	g.turnTimer = time.AfterFunc(g.TurnDuration, func() {
		g.Mu.Lock()
		defer g.Mu.Unlock()

		// A stale timer must not act on a later turn or a finished game.
		if g.GameOver || g.TurnID != turnID || g.players[g.currentSeat].ID != playerID {
			g.Log.Debugf("Stale turn timer for turn %d ignored (current turn %d).", turnID, g.TurnID)
			return
		}
		g.handleTimeout(playerID)
	})
}

// stopTurnTimer cancels the pending timer, if any.
// Assumes lock is held.
func (g *UnoGame) stopTurnTimer() {
	if g.turnTimer != nil {
		g.turnTimer.Stop()
		g.turnTimer = nil
	}
}

// handleTimeout forces the current player's turn.
// Open resolutions are closed with defaults: a random wild color, no hand swap, and an
// Uno window closed without penalty. Otherwise the player draws a card.
// Assumes lock is held.
func (g *UnoGame) handleTimeout(playerID uuid.UUID) {
	p := g.byID[playerID]
	g.Log.Infof("Player %s timed out on turn %d.", p.Name, g.TurnID)
	g.announcef("%s ran out of time!", p.Name)

	resolved := false
	if g.wildResolution.Is(playerID) {
		col := models.Colors[g.rng.Intn(len(models.Colors))]
		if err := g.SetWildColor(playerID, col); err != nil {
			g.Log.WithError(err).Warn("Timeout could not resolve the wild color.")
		}
		resolved = true
	}
	if g.sevenSwap.Is(playerID) {
		g.skipSevenSwap()
		resolved = true
	}
	if g.unoWindow.IsOpen() {
		g.unoWindow = Resolution{}
		resolved = true
	}
	if !resolved {
		g.forceDraw(p)
	}
	g.logAction(playerID, ActionTurnTimeout, map[string]interface{}{
		"turn":     g.TurnID,
		"resolved": resolved,
	})

	if winner, ok := g.CheckForWin(); ok {
		g.EndGame(winner)
	} else if !g.AnyResolutionOpen() {
		g.FinishTurn()
	}

	if g.OnTurnTimeout != nil {
		g.OnTurnTimeout(playerID)
	}
}

// forceDraw gives p the cards a normal draw would, without the turn checks.
func (g *UnoGame) forceDraw(p *models.Player) {
	if g.pendingDrawTwo > 0 || g.pendingDrawFour > 0 {
		g.absorbPenalty(p, models.DrawTwo)
		g.absorbPenalty(p, models.WildDrawFour)
		return
	}
	c, err := g.Deck.DrawCard()
	if err != nil {
		g.Log.WithError(err).Error("Invariant violation: no card for a timed out draw.")
		return
	}
	p.AddCard(c)
	g.logAction(p.ID, ActionCardDrawn, map[string]interface{}{"count": 1, "handSize": p.HandSize(), "forced": true})
}

// TimerArmed reports whether a turn timer is pending.
func (g *UnoGame) TimerArmed() bool {
	return g.turnTimer != nil
}

// ResetTurnTimer is exported for hosts that change the turn duration mid-game.
// Assumes lock is held by caller.
func (g *UnoGame) ResetTurnTimer(d time.Duration) {
	g.TurnDuration = d
	g.scheduleTurnTimer()
}
