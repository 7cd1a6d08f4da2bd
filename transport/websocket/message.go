package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/sabotage-connect4/internal/entity"
	"github.com/rocketscienceinc/sabotage-connect4/transport/presenter"
)

const (
	ActionState  = "table:state"
	ActionMove   = "table:move"
	ActionUndo   = "table:undo"
	ActionReset  = "table:reset"
	ActionClosed = "table:closed"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Table   *presenter.Table `json:"table,omitempty"`
	TableID string           `json:"table_id,omitempty"`
	Column  *int             `json:"column,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func encodeMessage(action string, payload Payload) ([]byte, error) {
	rawPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	data, err := json.Marshal(Message{Action: action, Payload: rawPayload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}

func stateMessage(table *entity.Table) ([]byte, error) {
	view := presenter.NewTable(table)

	return encodeMessage(ActionState, Payload{Table: &view})
}
