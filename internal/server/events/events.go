// Package events publishes account change events for downstream systems
// such as the DHCP and firewall generators.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TypeMACChanged is emitted after a device MAC was rewritten.
const TypeMACChanged = "device.mac_changed"

// Event is the JSON envelope written to the topic.
type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	AccountID  int64             `json:"account_id"`
	Login      string            `json:"login"`
	OccurredAt time.Time         `json:"occurred_at"`
	Data       map[string]string `json:"data,omitempty"`
}

// NewEvent stamps a new event with a random id and the current time.
func NewEvent(typ string, accountID int64, login string, data map[string]string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		AccountID:  accountID,
		Login:      login,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
