// internal/chat/commands_test.go
package chat

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jason-s-yu/uno/internal/game"
	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in   string
		name string
		args []string
		ok   bool
	}{
		{"/play 3", CmdPlay, []string{"3"}, true},
		{"/p 3", CmdPlay, []string{"3"}, true},
		{"  /D  ", CmdDraw, []string{}, true},
		{"/join@UnoBot Big Al", CmdJoin, []string{"Big", "Al"}, true},
		{"w blue", CmdWild, []string{"blue"}, true},
		{"/unjoin", CmdLeave, []string{}, true},
		{"/list", CmdListPlayers, []string{}, true},
		{"/swap Bob", CmdSeven, []string{"Bob"}, true},
		{"/top", CmdLeaderboard, []string{}, true},
		{"/dance", "dance", []string{}, false},
		{"", "", nil, false},
	}
	for _, tc := range cases {
		cmd, ok := ParseCommand(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.name, cmd.Name, tc.in)
		if tc.args != nil {
			assert.Equal(t, tc.args, cmd.Args, tc.in)
		}
	}
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "", ErrorCode(nil))
	assert.Equal(t, "invalid_play", ErrorCode(fmt.Errorf("%w: This is not a valid card.", game.ErrInvalidPlay)))
	assert.Equal(t, "deck_exhausted", ErrorCode(game.ErrDeckExhausted))
	assert.Equal(t, "internal", ErrorCode(errors.New("boom")))
}
