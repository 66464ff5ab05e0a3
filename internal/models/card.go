// internal/models/card.go
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Color is one of the four card colors. ColorNone marks a wild that has not been resolved yet.
type Color int

const (
	ColorNone Color = iota
	Red
	Yellow
	Green
	Blue
)

// Colors lists the four playable colors in display order.
var Colors = []Color{Red, Yellow, Green, Blue}

// Special card values. 0-9 are plain numerals.
const (
	Skip         = 10
	Reverse      = 11
	DrawTwo      = 12
	Wild         = 13
	WildDrawFour = 14

	MaxCardValue = WildDrawFour
)

// Valid reports whether c is one of the four playable colors.
func (c Color) Valid() bool {
	return c >= Red && c <= Blue
}

// String returns the single-letter code used in chat ("R", "Y", "G", "B").
func (c Color) String() string {
	switch c {
	case Red:
		return "R"
	case Yellow:
		return "Y"
	case Green:
		return "G"
	case Blue:
		return "B"
	}
	return ""
}

// Name returns the full color name.
func (c Color) Name() string {
	switch c {
	case Red:
		return "Red"
	case Yellow:
		return "Yellow"
	case Green:
		return "Green"
	case Blue:
		return "Blue"
	}
	return "None"
}

// ParseColor accepts a single-letter code or a full color name, case-insensitively.
func ParseColor(s string) (Color, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "r", "red":
		return Red, true
	case "y", "yellow":
		return Yellow, true
	case "g", "green":
		return Green, true
	case "b", "blue":
		return Blue, true
	}
	return ColorNone, false
}

var painters = map[Color]*color.Color{
	Red:       color.New(color.FgHiRed, color.Bold),
	Yellow:    color.New(color.FgHiYellow, color.Bold),
	Green:     color.New(color.FgHiGreen, color.Bold),
	Blue:      color.New(color.FgHiCyan, color.Bold),
	ColorNone: color.New(color.FgHiWhite, color.Bold),
}

// Card is a face value plus a color. Cards are values; the only mutation is the
// one-time color assignment on a wild.
type Card struct {
	value int
	color Color
}

// NewCard builds a colored card. Panics on a malformed card.
func NewCard(value int, c Color) Card {
	if value < 0 || value > MaxCardValue {
		panic(fmt.Sprintf("card value %d out of range", value))
	}
	if value >= Wild {
		panic(fmt.Sprintf("card value %d is wild; use NewWildCard", value))
	}
	if !c.Valid() {
		panic(fmt.Sprintf("card value %d needs a color", value))
	}
	return Card{value: value, color: c}
}

// NewWildCard builds a colorless Wild or WildDrawFour.
func NewWildCard(value int) Card {
	if value != Wild && value != WildDrawFour {
		panic(fmt.Sprintf("card value %d is not wild", value))
	}
	return Card{value: value}
}

func (c Card) Value() int   { return c.value }
func (c Card) Color() Color { return c.color }

// IsWild reports whether the card is a Wild or WildDrawFour.
func (c Card) IsWild() bool {
	return c.value == Wild || c.value == WildDrawFour
}

// IsNumeral reports whether the card is a plain 0-9.
func (c Card) IsNumeral() bool {
	return c.value < Skip
}

// AssignColor colors a wild. It may only be called once per card, with a playable color.
func (c *Card) AssignColor(col Color) {
	if !c.IsWild() {
		panic("AssignColor called on a non-wild card")
	}
	if c.color != ColorNone {
		panic("wild card already has a color")
	}
	if !col.Valid() {
		panic(fmt.Sprintf("invalid wild color %d", col))
	}
	c.color = col
}

// Uncolored returns the card as it was before any wild color was assigned.
func (c Card) Uncolored() Card {
	if c.IsWild() {
		return Card{value: c.value}
	}
	return c
}

func (c Card) face() string {
	switch c.value {
	case Skip:
		return "Skip"
	case Reverse:
		return "Reverse"
	case DrawTwo:
		return "Draw Two"
	case Wild:
		return "Wild"
	case WildDrawFour:
		return "Wild Draw Four"
	}
	return strconv.Itoa(c.value)
}

// String renders the card the way players type and read it: "R5", "G Skip", "Wild", "B Wild Draw Four".
func (c Card) String() string {
	if c.IsNumeral() {
		return c.color.String() + c.face()
	}
	if c.color == ColorNone {
		return c.face()
	}
	return c.color.String() + " " + c.face()
}

// Paint renders the card with terminal colors.
func (c Card) Paint() string {
	return painters[c.color].Sprint(c.String())
}

// MarshalJSON exposes the card to state snapshots and the action historian.
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Value int    `json:"value"`
		Color string `json:"color,omitempty"`
		Text  string `json:"text"`
	}{c.value, c.color.String(), c.String()})
}
