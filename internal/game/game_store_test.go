package game

import (
	"testing"

	"github.com/jason-s-yu/uno/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestGameStore(t *testing.T) {
	s := NewGameStore()
	first, _ := newTable(t, DefaultHouseRules(), []models.Participant{alice, bob})
	s.AddGame(first)

	got, ok := s.GetGame(first.ID)
	assert.True(t, ok)
	assert.Same(t, first, got)
	assert.Same(t, first, s.GetGameByChatID("chat-1"))

	second, _ := newTable(t, DefaultHouseRules(), []models.Participant{alice, bob})
	s.AddGame(second)
	assert.Equal(t, 1, s.Count(), "a chat holds one game at a time")
	_, ok = s.GetGame(first.ID)
	assert.False(t, ok)
	assert.Same(t, second, s.GetGameByChatID("chat-1"))
	assert.Len(t, s.List(), 1)

	s.DeleteGame(first.ID)
	assert.Same(t, second, s.GetGameByChatID("chat-1"))
	s.DeleteGame(second.ID)
	assert.Nil(t, s.GetGameByChatID("chat-1"))
	assert.Equal(t, 0, s.Count())
}
