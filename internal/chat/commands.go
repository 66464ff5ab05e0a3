// internal/chat/commands.go
package chat

import (
	"strings"

	"github.com/jason-s-yu/uno/internal/models"
)

// Canonical command names.
const (
	CmdStart       = "start"
	CmdRules       = "rules"
	CmdHelp        = "help"
	CmdFeedback    = "feedback"
	CmdNewGame     = "newgame"
	CmdJoin        = "join"
	CmdLeave       = "leave"
	CmdListPlayers = "listplayers"
	CmdStartGame   = "startgame"
	CmdEndGame     = "endgame"
	CmdDraw        = "draw"
	CmdPlay        = "play"
	CmdWild        = "wild"
	CmdUno         = "uno"
	CmdSeven       = "seven"
	CmdReady       = "ready"
	CmdUnready     = "unready"
	CmdHand        = "hand"
	CmdState       = "state"
	CmdLeaderboard = "leaderboard"
)

var aliases = map[string]string{
	"start":       CmdStart,
	"rules":       CmdRules,
	"help":        CmdHelp,
	"feedback":    CmdFeedback,
	"newgame":     CmdNewGame,
	"join":        CmdJoin,
	"leave":       CmdLeave,
	"unjoin":      CmdLeave,
	"listplayers": CmdListPlayers,
	"list":        CmdListPlayers,
	"startgame":   CmdStartGame,
	"endgame":     CmdEndGame,
	"draw":        CmdDraw,
	"d":           CmdDraw,
	"play":        CmdPlay,
	"p":           CmdPlay,
	"wild":        CmdWild,
	"w":           CmdWild,
	"uno":         CmdUno,
	"seven":       CmdSeven,
	"swap":        CmdSeven,
	"ready":       CmdReady,
	"unready":     CmdUnready,
	"hand":        CmdHand,
	"state":       CmdState,
	"leaderboard": CmdLeaderboard,
	"top":         CmdLeaderboard,
}

// ParseCommand reads "/name@bot arg1 arg2". The leading slash and the bot suffix are
// optional. Returns false for empty input or an unknown command.
func ParseCommand(text string) (models.Command, bool) {
	raw := strings.TrimSpace(text)
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return models.Command{Raw: raw}, false
	}

	head := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(head, '@'); at >= 0 {
		head = head[:at]
	}
	cmd := models.Command{
		Name: strings.ToLower(head),
		Args: fields[1:],
		Raw:  raw,
	}
	name, ok := aliases[cmd.Name]
	if !ok {
		return cmd, false
	}
	cmd.Name = name
	return cmd, true
}
