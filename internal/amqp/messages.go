package amqp

import (
	"encoding/json"
	"time"

	"royalties/internal/notify"
)

// UpdateMessage is the wire form of a notify.Update exchanged between instances.
type UpdateMessage struct {
	Type      string    `json:"type"`
	ID        int64     `json:"id,omitempty"`
	Status    string    `json:"status,omitempty"`
	Origin    string    `json:"origin"`
	Timestamp time.Time `json:"timestamp"`
}

func NewUpdateMessage(u notify.Update) *UpdateMessage {
	ts := u.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &UpdateMessage{
		Type:      string(u.Type),
		ID:        u.ID,
		Status:    u.Status,
		Origin:    u.Origin,
		Timestamp: ts,
	}
}

// Update converts the message back for the local hub.
func (m *UpdateMessage) Update() notify.Update {
	return notify.Update{
		Type:   notify.Type(m.Type),
		ID:     m.ID,
		Status: m.Status,
		Origin: m.Origin,
		At:     m.Timestamp,
	}
}

// ToJSON converts the message to JSON bytes
func (m *UpdateMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// UpdateMessageFromJSON creates a message from JSON bytes
func UpdateMessageFromJSON(data []byte) (*UpdateMessage, error) {
	var msg UpdateMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
