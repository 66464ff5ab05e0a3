// internal/game/deck.go
package game

import (
	"fmt"
	"math/rand"

	"github.com/jason-s-yu/uno/internal/models"
)

// ExtraSetThreshold is the player count above which each further player adds one full set.
const ExtraSetThreshold = 10

// FullSetSize is the number of cards in one standard set.
const FullSetSize = 100

// Deck holds the draw pile and the discard pile. Both are stacks; the top is the last element.
type Deck struct {
	drawPile    []models.Card
	discardPile []models.Card
	rng         *rand.Rand

	// Reshuffles counts how many times the discard pile was recycled.
	Reshuffles int
}

// NewDeck builds one full set plus one extra set per player beyond ExtraSetThreshold,
// then shuffles it.
func NewDeck(playerCount int, rng *rand.Rand) *Deck {
	sets := 1
	if playerCount > ExtraSetThreshold {
		sets += playerCount - ExtraSetThreshold
	}
	cards := make([]models.Card, 0, sets*FullSetSize)
	for i := 0; i < sets; i++ {
		cards = append(cards, fullSet()...)
	}
	d := &Deck{drawPile: cards, rng: rng}
	d.shuffle(d.drawPile)
	return d
}

// NewDeckFromCards builds an unshuffled deck that deals drawOrder front to back.
func NewDeckFromCards(drawOrder []models.Card, rng *rand.Rand) *Deck {
	pile := make([]models.Card, len(drawOrder))
	for i, c := range drawOrder {
		pile[len(drawOrder)-1-i] = c
	}
	return &Deck{drawPile: pile, rng: rng}
}

func fullSet() []models.Card {
	cards := make([]models.Card, 0, FullSetSize)
	for _, col := range models.Colors {
		for v := 0; v <= 9; v++ {
			cards = append(cards, models.NewCard(v, col), models.NewCard(v, col))
		}
		for v := models.Skip; v <= models.DrawTwo; v++ {
			cards = append(cards, models.NewCard(v, col))
		}
	}
	for i := 0; i < 4; i++ {
		cards = append(cards, models.NewWildCard(models.Wild), models.NewWildCard(models.WildDrawFour))
	}
	return cards
}

func (d *Deck) shuffle(cards []models.Card) {
	shuffle := rand.Shuffle
	if d.rng != nil {
		shuffle = d.rng.Shuffle
	}
	shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
}

// reshuffle moves every discard except the top back into the draw pile.
// Wilds lose their assigned color on the way back.
func (d *Deck) reshuffle() {
	if len(d.discardPile) < 2 {
		return
	}
	top := d.discardPile[len(d.discardPile)-1]
	recycled := d.discardPile[:len(d.discardPile)-1]
	for _, c := range recycled {
		d.drawPile = append(d.drawPile, c.Uncolored())
	}
	d.discardPile = []models.Card{top}
	d.shuffle(d.drawPile)
	d.Reshuffles++
}

// DrawCard pops the top of the draw pile, reshuffling the discards first if it is empty.
func (d *Deck) DrawCard() (models.Card, error) {
	if len(d.drawPile) == 0 {
		d.reshuffle()
	}
	if len(d.drawPile) == 0 {
		return models.Card{}, fmt.Errorf("%w: draw pile empty, %d card(s) on the discard pile", ErrDeckExhausted, len(d.discardPile))
	}
	c := d.drawPile[len(d.drawPile)-1]
	d.drawPile = d.drawPile[:len(d.drawPile)-1]
	return c, nil
}

// DrawN draws n cards one at a time. On exhaustion it returns the cards drawn so far
// together with the error; the caller owns those cards either way.
func (d *Deck) DrawN(n int) ([]models.Card, error) {
	cards := make([]models.Card, 0, n)
	for i := 0; i < n; i++ {
		c, err := d.DrawCard()
		if err != nil {
			return cards, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// PlayCard pushes c onto the discard pile. Validity is checked by the caller.
func (d *Deck) PlayCard(c models.Card) {
	d.discardPile = append(d.discardPile, c)
}

// Top returns the top discard, if any.
func (d *Deck) Top() (models.Card, bool) {
	if len(d.discardPile) == 0 {
		return models.Card{}, false
	}
	return d.discardPile[len(d.discardPile)-1], true
}

// IsValidPlay reports whether c may go on the current top card.
func (d *Deck) IsValidPlay(c models.Card) bool {
	top, ok := d.Top()
	if !ok || c.IsWild() {
		return true
	}
	if top.Color() != models.ColorNone && c.Color() == top.Color() {
		return true
	}
	return c.Value() == top.Value()
}

// ReturnCardToBottom puts c under the draw pile. Used while picking the starting card.
func (d *Deck) ReturnCardToBottom(c models.Card) {
	d.drawPile = append([]models.Card{c}, d.drawPile...)
}

// SetWildColor colors the wild on top of the discard pile.
func (d *Deck) SetWildColor(col models.Color) error {
	if !col.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidColorChoice, col)
	}
	top, ok := d.Top()
	if !ok || !top.IsWild() || top.Color() != models.ColorNone {
		return fmt.Errorf("%w: no uncolored wild on top of the discard pile", ErrNothingToResolve)
	}
	d.discardPile[len(d.discardPile)-1].AssignColor(col)
	return nil
}

func (d *Deck) DrawPileSize() int { return len(d.drawPile) }
func (d *Deck) DiscardPileSize() int { return len(d.discardPile) }
