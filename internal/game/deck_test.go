package game

import (
	"math/rand"
	"testing"

	"github.com/jason-s-yu/uno/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeck_FullSetComposition(t *testing.T) {
	d := NewDeck(4, rand.New(rand.NewSource(7)))
	require.Equal(t, FullSetSize, d.DrawPileSize())
	assert.Equal(t, 0, d.DiscardPileSize())

	counts := make(map[string]int)
	for d.DrawPileSize() > 0 {
		c, err := d.DrawCard()
		require.NoError(t, err)
		counts[c.String()]++
	}
	assert.Equal(t, 2, counts["R0"])
	assert.Equal(t, 2, counts["B9"])
	assert.Equal(t, 1, counts["G Skip"])
	assert.Equal(t, 1, counts["Y Reverse"])
	assert.Equal(t, 1, counts["R Draw Two"])
	assert.Equal(t, 4, counts["Wild"])
	assert.Equal(t, 4, counts["Wild Draw Four"])
}

func TestNewDeck_ExtraSets(t *testing.T) {
	assert.Equal(t, FullSetSize, NewDeck(2, nil).DrawPileSize())
	assert.Equal(t, FullSetSize, NewDeck(ExtraSetThreshold, nil).DrawPileSize())
	assert.Equal(t, 2*FullSetSize, NewDeck(ExtraSetThreshold+1, nil).DrawPileSize())
	assert.Equal(t, 3*FullSetSize, NewDeck(ExtraSetThreshold+2, nil).DrawPileSize())
}

func TestDeck_DrawOrder(t *testing.T) {
	d := NewDeckFromCards([]models.Card{card(1, models.Red), card(2, models.Red)}, nil)
	first, err := d.DrawCard()
	require.NoError(t, err)
	assert.Equal(t, "R1", first.String())

	d.ReturnCardToBottom(card(3, models.Red))
	second, _ := d.DrawCard()
	third, _ := d.DrawCard()
	assert.Equal(t, "R2", second.String())
	assert.Equal(t, "R3", third.String())
}

func TestDeck_ReshuffleKeepsTopAndUncolorsWilds(t *testing.T) {
	d := NewDeckFromCards(nil, rand.New(rand.NewSource(3)))
	w := wild(models.Wild)
	w.AssignColor(models.Green)
	d.PlayCard(w)
	d.PlayCard(card(4, models.Green))
	d.PlayCard(card(4, models.Blue))

	c, err := d.DrawCard()
	require.NoError(t, err)
	assert.Equal(t, 1, d.Reshuffles)
	assert.Equal(t, 1, d.DiscardPileSize())
	top, _ := d.Top()
	assert.Equal(t, "B4", top.String())

	drawn := []models.Card{c}
	next, err := d.DrawCard()
	require.NoError(t, err)
	drawn = append(drawn, next)
	assert.ElementsMatch(t, []string{"Wild", "G4"}, []string{drawn[0].String(), drawn[1].String()})
	for _, c := range drawn {
		if c.IsWild() {
			assert.Equal(t, models.ColorNone, c.Color())
		}
	}
}

func TestDeck_Exhausted(t *testing.T) {
	d := NewDeckFromCards([]models.Card{card(1, models.Red)}, nil)
	d.PlayCard(card(5, models.Red))

	cards, err := d.DrawN(3)
	assert.ErrorIs(t, err, ErrDeckExhausted)
	assert.Len(t, cards, 1, "cards drawn before exhaustion are returned")
	assert.Equal(t, 0, d.Reshuffles)
}

func TestDeck_SetWildColor(t *testing.T) {
	d := NewDeckFromCards(nil, nil)
	d.PlayCard(card(5, models.Red))
	assert.ErrorIs(t, d.SetWildColor(models.Blue), ErrNothingToResolve)

	d.PlayCard(wild(models.WildDrawFour))
	assert.ErrorIs(t, d.SetWildColor(models.ColorNone), ErrInvalidColorChoice)
	require.NoError(t, d.SetWildColor(models.Blue))
	top, _ := d.Top()
	assert.Equal(t, "B Wild Draw Four", top.String())
	assert.ErrorIs(t, d.SetWildColor(models.Red), ErrNothingToResolve)
}

func TestPlayInitialCard_CyclesActionCards(t *testing.T) {
	order := append(dealt(), dealt()...)
	order = append(order, wild(models.Wild), card(models.Skip, models.Red), card(6, models.Green), card(1, models.Yellow))
	g, err := NewGameWithDeck("chat-1", []models.Participant{alice, bob}, NewDeckFromCards(order, nil), nil, DefaultHouseRules())
	require.NoError(t, err)
	g.Log = quietLogger()

	require.NoError(t, g.PlayInitialCard())
	top, _ := g.Deck.Top()
	assert.Equal(t, "G6", top.String())
	assert.Equal(t, 3, g.Deck.DrawPileSize())
	assert.Equal(t, g.TotalCards(), g.CardsInCirculation())
}
