// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the chat handler.
// These provide more specific reasons for closure than standard codes.
const (
	BadSubprotocolError  = 3000 // Client connected with an unsupported subprotocol.
	InvalidPlayerIDError = 3002 // player_id query parameter was malformed.
	InvalidChatIDError   = 3003 // Target chat ID in the WS URL is missing or invalid.
	ReplacedError        = 3004 // The same player opened a newer connection.
)
