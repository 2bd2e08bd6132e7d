package viewer

import (
	"encoding/json"

	"github.com/danielgtaylor/huma/v2"
)

// Signals provides type-safe access to Datastar signal values.
// Datastar sends all signals as a flat JSON object in the request body.
type Signals map[string]any

// ParseSignals parses Datastar signals from a raw request body.
func ParseSignals(body []byte) (Signals, error) {
	var signals Signals
	if err := json.Unmarshal(body, &signals); err != nil {
		return nil, err
	}
	return signals, nil
}

// Bool returns a bool signal value, or false if not found.
func (s Signals) Bool(key string) bool {
	if v, ok := s[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// Has returns true if the signal exists (even if empty/zero).
func (s Signals) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// MustParseSignals parses signals or returns a Huma 400 error.
func MustParseSignals(body []byte) (Signals, error) {
	signals, err := ParseSignals(body)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid request data: " + err.Error())
	}
	return signals, nil
}
