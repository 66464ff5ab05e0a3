// cmd/unocli/main.go
//
// unocli runs a hot-seat game in the terminal. Every line is sent to a single local chat as the
// current speaker; "@name" switches speakers.
//
//	unocli Alice Bob Carol
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/chat"
	"github.com/jason-s-yu/uno/internal/config"
	"github.com/jason-s-yu/uno/internal/models"
	_ "github.com/joho/godotenv/autoload"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	log "github.com/sirupsen/logrus"
)

const chatID = "console"

// console prints everything the game says; whispers are tagged with the recipient.
type console struct {
	mu    sync.Mutex
	names map[uuid.UUID]string
}

func (c *console) SendToChat(_ string, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	pterm.Info.Println(text)
	return nil
}

func (c *console) SendToPlayer(playerID uuid.UUID, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, ok := c.names[playerID]
	if !ok {
		return fmt.Errorf("no player %s at this table", playerID)
	}
	pterm.Description.Printfln("(to %s) %s", name, text)
	return nil
}

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := cfg.NewLogger()
	// Log lines would interleave with the table.
	if logger.GetLevel() > log.WarnLevel {
		logger.SetLevel(log.WarnLevel)
	}

	if len(os.Args) < 2 {
		pterm.Error.Println("usage: unocli NAME [NAME...]")
		os.Exit(2)
	}

	players := make([]models.Sender, 0, len(os.Args)-1)
	out := &console{names: make(map[uuid.UUID]string)}
	for _, name := range os.Args[1:] {
		p := models.Sender{ID: uuid.New(), Name: name}
		players = append(players, p)
		out.names[p.ID] = name
	}

	pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("U", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("N", pterm.FgYellow.ToStyle()),
		putils.LettersFromStringWithStyle("O", pterm.FgGreen.ToStyle()),
	).Render()
	pterm.DefaultSection.Println("Hot seat")
	pterm.Println("Type commands as the current speaker, e.g. /newgame, /join, /startgame, /play 2.")
	pterm.Println("Switch speakers with @name. Ctrl-D quits.")

	hub := chat.NewHub(out, cfg.Rules, logger)
	ctx := context.Background()
	speaker := players[0]

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(color.New(color.Bold).Sprintf("%s> ", speaker.Name))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "@") {
			next, ok := findPlayer(players, strings.TrimPrefix(line, "@"))
			if !ok {
				pterm.Warning.Printfln("No player named %q.", strings.TrimPrefix(line, "@"))
				continue
			}
			speaker = next
			showHand(hub, speaker)
			continue
		}

		known, err := hub.Handle(ctx, chatID, speaker, line)
		switch {
		case !known:
			pterm.Warning.Println("Unknown command. Type /help for the list.")
		case err != nil:
			pterm.Error.Printfln("[%s] %v", chat.ErrorCode(err), err)
		default:
			showHand(hub, speaker)
		}
	}
	hub.DeleteSession(chatID)
}

func findPlayer(players []models.Sender, name string) (models.Sender, bool) {
	for _, p := range players {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return models.Sender{}, false
}

// showHand prints the speaker's hand in card colors when they are seated in a running game.
func showHand(hub *chat.Hub, speaker models.Sender) {
	s, ok := hub.GetSession(chatID)
	if !ok {
		return
	}
	g := s.Game()
	if g == nil {
		return
	}
	g.Mu.Lock()
	cards, err := g.HandCards(speaker.ID)
	turn := g.CurrentPlayerID() == speaker.ID
	g.Mu.Unlock()
	if err != nil {
		return
	}

	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = fmt.Sprintf("%d:%s", i, c.Paint())
	}
	label := speaker.Name + "'s hand"
	if turn {
		label += " (your turn)"
	}
	pterm.DefaultBox.WithTitle(label).Println(strings.Join(parts, "  "))
}
