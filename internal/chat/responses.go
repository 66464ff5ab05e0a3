// internal/chat/responses.go
package chat

// Fixed replies posted by the session.
const (
	textStart = "Hi! I run games of Uno in group chats.\n\n" +
		"Add me to a group, then type /newgame to open a game and /join to sit down. " +
		"Type /help for the list of commands."

	textHelp = "Commands:\n\n" +
		"/newgame - open a new game in this chat\n" +
		"/join [nickname] - join the open game\n" +
		"/leave - leave the open game\n" +
		"/listplayers - list the players\n" +
		"/startgame - deal the cards and start\n" +
		"/endgame - stop the current game\n" +
		"/play <card id> - play a card from your hand\n" +
		"/draw - draw a card and end your turn\n" +
		"/wild <R|Y|G|B> - choose the color of your wild\n" +
		"/uno - call Uno\n" +
		"/seven <name> - swap hands after a 7 (advanced rules)\n" +
		"/ready, /unready - toggle readiness\n" +
		"/hand - see your hand privately\n" +
		"/state - whose turn it is and the top card\n" +
		"/rules - how to play\n" +
		"/leaderboard - the best rated players in this chat\n" +
		"/feedback <text> - tell us what you think"

	textRules = "Match the top card by color or by number, or play a wild. " +
		"Skip skips the next player, Reverse flips the direction, " +
		"Draw Two and Wild Draw Four stack until someone cannot add to the pile and draws the total. " +
		"When you are down to one card, someone has to call /uno: call it yourself before anyone " +
		"else does or you draw a card. First to empty their hand wins.\n\n" +
		"Advanced rules: playing a 0 passes every hand to the next player, " +
		"and playing a 7 lets you swap hands with anyone. " +
		"Drawing keeps going until you draw a card you can play."

	textNewGame         = "A new game has been created! Type /join [nickname] to join, then /startgame once everyone is in."
	textGameOngoing     = "A game is already in progress in this chat. Type /endgame to stop it."
	textGamePending     = "A game is already waiting for players. Type /join to join it."
	textJoinNotPending  = "There is no game waiting for players. Type /newgame to create one."
	textInvalidNickname = "That nickname is not valid. Nicknames are 3 to 15 characters long, are not numbers, and must not already be taken."
	textJoined          = "Joined with nickname %s!"
	textPlayerCount     = "Current player count: %d"
	textLeaveNotPending = "There is no game waiting for players, so there is nothing to leave."
	textNotInGame       = "You are not part of the current game."
	textLeft            = "You have left the current game."
	textStartNotPending = "There is no game waiting to start. Type /newgame to create one."
	textStartMinPlayers = "You need at least %d players to start a game."
	textStartFailure    = "I could not message every player privately. Everyone needs to start a private chat with me before the game can begin."
	textTryingToStart   = "Trying to start game!"
	textGameStarted     = "The game has started! Your hand has been sent to you privately."
	textGameEnded       = "The game has ended."
	textNoGame          = "There is no game running in this chat. Type /newgame to create one."
	textPlayUsage       = "Usage: /play card_id"
	textSevenUsage      = "Usage: /seven player_name"
	textFeedbackUsage   = "Format: /feedback [feedback]"
	textFeedbackThanks  = "Thanks for the feedback!"
	textHasUno          = "%s has Uno! Type /uno to call it!"
	textUnoCaught       = "%s didn't call Uno first! They've drawn a card."
	textUnoCalled       = "%s called Uno first!"
	textChooseColor     = "%s, choose a color with /wild R, Y, G or B."
	textChooseSwap      = "%s, choose who to swap hands with: /seven <name>."
	textReady           = "%s is ready."
	textUnready         = "%s is no longer ready."
	textNoRatings       = "Ratings are not being recorded in this chat."
	textNoRatedGames    = "No rated games yet. Finish a game to get on the board."
	textSomethingWrong  = "Something has gone horribly wrong!"
)
