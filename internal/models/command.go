package models

import "github.com/google/uuid"

// Command is a parsed chat command: canonical name plus its whitespace-separated arguments.
type Command struct {
	Name string   `json:"name"`
	Args []string `json:"args,omitempty"`
	Raw  string   `json:"raw"`
}

// Sender identifies who issued a command.
type Sender struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
