package game

import (
	"errors"

	"github.com/jason-s-yu/uno/internal/models"
)

// Rejections returned by UnoGame actions. A rejected action leaves the game untouched.
var (
	ErrNotYourTurn        = errors.New("not your turn")
	ErrInvalidCardIndex   = models.ErrInvalidCardIndex
	ErrInvalidPlay        = errors.New("card does not match the top of the discard pile")
	ErrActionBlocked      = errors.New("a resolution is pending")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrInvalidColorChoice = errors.New("invalid color choice")
	ErrNothingToResolve   = errors.New("nothing to resolve")
	ErrInvalidTarget      = errors.New("invalid swap target")
	ErrNotReady           = errors.New("not all players are ready")
	ErrGameOver           = errors.New("game is over")
	ErrNotEnoughPlayers   = errors.New("not enough players")
	ErrDuplicatePlayer    = errors.New("duplicate player")
	ErrAlreadyStarted     = errors.New("starting card already played")

	// ErrDeckExhausted means no card exists outside the hands. It should be unreachable.
	ErrDeckExhausted = errors.New("deck exhausted")
)
