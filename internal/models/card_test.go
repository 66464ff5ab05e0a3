package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardString(t *testing.T) {
	cases := []struct {
		card Card
		want string
	}{
		{NewCard(5, Red), "R5"},
		{NewCard(0, Blue), "B0"},
		{NewCard(Skip, Green), "G Skip"},
		{NewCard(Reverse, Yellow), "Y Reverse"},
		{NewCard(DrawTwo, Red), "R Draw Two"},
		{NewWildCard(Wild), "Wild"},
		{NewWildCard(WildDrawFour), "Wild Draw Four"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.card.String())
	}
}

func TestParseColor(t *testing.T) {
	for in, want := range map[string]Color{"r": Red, "RED": Red, " y ": Yellow, "Green": Green, "b": Blue} {
		got, ok := ParseColor(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseColor("purple")
	assert.False(t, ok)
	assert.Equal(t, "None", ColorNone.Name())
	assert.False(t, ColorNone.Valid())
}

func TestNewCard_PanicsOnMalformed(t *testing.T) {
	assert.Panics(t, func() { NewCard(15, Red) })
	assert.Panics(t, func() { NewCard(Wild, Red) })
	assert.Panics(t, func() { NewCard(3, ColorNone) })
	assert.Panics(t, func() { NewWildCard(3) })
}

func TestAssignColor(t *testing.T) {
	w := NewWildCard(Wild)
	w.AssignColor(Blue)
	assert.Equal(t, Blue, w.Color())
	assert.Equal(t, "B Wild", w.String())
	assert.Panics(t, func() { w.AssignColor(Red) })
	assert.Equal(t, ColorNone, w.Uncolored().Color())

	plain := NewCard(4, Red)
	assert.Panics(t, func() { plain.AssignColor(Blue) })
	assert.Equal(t, plain, plain.Uncolored())

	fresh := NewWildCard(WildDrawFour)
	assert.Panics(t, func() { fresh.AssignColor(ColorNone) })
}

func TestCardKinds(t *testing.T) {
	assert.True(t, NewCard(9, Red).IsNumeral())
	assert.False(t, NewCard(Skip, Red).IsNumeral())
	assert.True(t, NewWildCard(Wild).IsWild())
	assert.False(t, NewCard(DrawTwo, Red).IsWild())
	assert.Contains(t, NewCard(3, Green).Paint(), "G3")
}

func TestCardMarshalJSON(t *testing.T) {
	data, err := json.Marshal(NewCard(Skip, Yellow))
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":10,"color":"Y","text":"Y Skip"}`, string(data))

	data, err = json.Marshal(NewWildCard(Wild))
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":13,"text":"Wild"}`, string(data))
}
