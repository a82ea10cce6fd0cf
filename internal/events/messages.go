package events

import (
	"encoding/json"
	"time"
)

// Mutation kinds carried in audit messages.
const (
	KindAdd           = "add"
	KindDelete        = "delete"
	KindProfileUpdate = "profile_update"
)

// Entities a mutation can touch.
const (
	EntityExpense = "expense"
	EntityBill    = "bill"
	EntityGoal    = "goal"
	EntityProfile = "profile"
)

// StateChangedMessage records one successful financial-state mutation.
// Index is the affected position for deletes and -1 otherwise.
type StateChangedMessage struct {
	UserID string    `json:"userId"`
	Kind   string    `json:"kind"`
	Entity string    `json:"entity"`
	Index  int       `json:"index"`
	At     time.Time `json:"at"`
}

// NewStateChangedMessage stamps a message with the current time.
func NewStateChangedMessage(userID, kind, entity string, index int) *StateChangedMessage {
	return &StateChangedMessage{
		UserID: userID,
		Kind:   kind,
		Entity: entity,
		Index:  index,
		At:     time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *StateChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// StateChangedMessageFromJSON creates a message from JSON bytes
func StateChangedMessageFromJSON(data []byte) (*StateChangedMessage, error) {
	var msg StateChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
