// internal/game/rules.go
package game

import (
	"fmt"
	"time"
)

// HouseRules defines optional rules that modify standard play.
type HouseRules struct {
	AdvancedRules bool `json:"advancedRules"` // 0 rotates hands, 7 swaps hands, drawing continues until a playable card
	RequireReady  bool `json:"requireReady"`  // block draws and plays until every player has signaled ready
	TurnTimerSec  int  `json:"turnTimerSec"`  // hot potato: seconds before a turn is forced; 0 disables it
	MinPlayers    int  `json:"minPlayers"`    // players needed before a game can start
}

// DefaultHouseRules returns the rules a chat starts with.
func DefaultHouseRules() HouseRules {
	return HouseRules{
		MinPlayers: 2,
	}
}

// TurnDuration converts TurnTimerSec into a duration.
func (rules HouseRules) TurnDuration() time.Duration {
	return time.Duration(rules.TurnTimerSec) * time.Second
}

// Update will update the house rules with the new rules provided.
// If a rule is not set or defined, it will be ignored, and the old value will persist.
func (rules *HouseRules) Update(newRules map[string]interface{}) error {
	next := *rules

	assignBool := func(field *bool, key string) error {
		val, exists := newRules[key]
		if !exists || val == nil {
			return nil
		}
		b, ok := val.(bool)
		if !ok {
			return fmt.Errorf("invalid type for %s", key)
		}
		*field = b
		return nil
	}

	assignInt := func(field *int, key string, minVal int) error {
		val, exists := newRules[key]
		if !exists || val == nil {
			return nil
		}
		var n int
		switch v := val.(type) {
		case float64:
			n = int(v)
		case int:
			n = v
		default:
			return fmt.Errorf("invalid type for %s", key)
		}
		if n < minVal {
			return fmt.Errorf("%s must be at least %d", key, minVal)
		}
		*field = n
		return nil
	}

	if err := assignBool(&next.AdvancedRules, "advancedRules"); err != nil {
		return err
	}
	if err := assignBool(&next.RequireReady, "requireReady"); err != nil {
		return err
	}
	if err := assignInt(&next.TurnTimerSec, "turnTimerSec", 0); err != nil {
		return err
	}
	if err := assignInt(&next.MinPlayers, "minPlayers", 2); err != nil {
		return err
	}

	*rules = next
	return nil
}

// ParseRules converts a map of rules to a HouseRules struct. It will ensure the types are valid.
func ParseRules(rules map[string]interface{}, current HouseRules) (HouseRules, error) {
	houseRules := current
	err := houseRules.Update(rules)
	return houseRules, err
}
