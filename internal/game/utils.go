// internal/game/utils.go
package game

import (
	"encoding/json"

	log "github.com/sirupsen/logrus"
)

// StateToBytes marshals a GameState into JSON bytes.
// Logs a warning and returns empty JSON "{}" on marshalling error.
func StateToBytes(st GameState) []byte {
	data, err := json.Marshal(st)
	if err != nil {
		log.Warnf("Failed to marshal state for game %s: %v", st.GameID, err)
		return []byte("{}")
	}
	return data
}
