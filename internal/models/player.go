package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidCardIndex is returned when a hand index does not name a card.
var ErrInvalidCardIndex = errors.New("invalid card index")

// Participant is a joined chat member before seats are assigned.
type Participant struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Player is a seated participant. The hand is owned by the Player and only leaves it as a copy.
type Player struct {
	ID   uuid.UUID `json:"id"`
	Seat int       `json:"seat"`
	Name string    `json:"name"`

	hand []Card
}

func NewPlayer(id uuid.UUID, seat int, name string, hand []Card) *Player {
	p := &Player{ID: id, Seat: seat, Name: name}
	p.hand = append(p.hand, hand...)
	return p
}

// RemoveCardAt takes the card at index i out of the hand. The hand is untouched on error.
func (p *Player) RemoveCardAt(i int) (Card, error) {
	if i < 0 || i >= len(p.hand) {
		return Card{}, fmt.Errorf("%w: %d (hand has %d cards)", ErrInvalidCardIndex, i, len(p.hand))
	}
	c := p.hand[i]
	p.hand = append(p.hand[:i], p.hand[i+1:]...)
	return c, nil
}

// InsertCardAt puts c back at index i, clamped to the hand bounds.
func (p *Player) InsertCardAt(c Card, i int) {
	if i < 0 {
		i = 0
	}
	if i > len(p.hand) {
		i = len(p.hand)
	}
	p.hand = append(p.hand, Card{})
	copy(p.hand[i+1:], p.hand[i:])
	p.hand[i] = c
}

func (p *Player) AddCard(c Card) {
	p.hand = append(p.hand, c)
}

func (p *Player) AddCards(cards ...Card) {
	p.hand = append(p.hand, cards...)
}

func (p *Player) HandSize() int {
	return len(p.hand)
}

// Hand returns a copy of the hand.
func (p *Player) Hand() []Card {
	out := make([]Card, len(p.hand))
	copy(out, p.hand)
	return out
}

// HasValue reports whether any card in hand has the given value.
func (p *Player) HasValue(value int) bool {
	for _, c := range p.hand {
		if c.Value() == value {
			return true
		}
	}
	return false
}

// ExchangeHand replaces the hand with cards and returns the previous hand.
func (p *Player) ExchangeHand(cards []Card) []Card {
	old := p.hand
	p.hand = cards
	return old
}

// FormattedHand lists the hand as "(i) card" lines; i is the index accepted by RemoveCardAt.
func (p *Player) FormattedHand() []string {
	lines := make([]string, len(p.hand))
	for i, c := range p.hand {
		lines[i] = fmt.Sprintf("(%d) %s", i, c)
	}
	return lines
}

// FormattedHandText is the private hand message sent to the owner.
func (p *Player) FormattedHandText() string {
	var b strings.Builder
	b.WriteString("Your current hand:\n\n")
	for _, line := range p.FormattedHand() {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
