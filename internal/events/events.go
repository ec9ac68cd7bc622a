package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Event names published after successful mutations.
const (
	CategoryCreated = "categoryCreated"
	CategoryUpdated = "categoryUpdated"
	CategoryDeleted = "categoryDeleted"
	ProductCreated  = "productCreated"
	ProductUpdated  = "productUpdated"
	ProductDeleted  = "productDeleted"
	DocumentCreated = "documentCreated"
	DocumentUpdated = "documentUpdated"
	DocumentDeleted = "documentDeleted"
)

// Event is the envelope sent to every sink.
type Event struct {
	Name    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	At      time.Time       `json:"at"`
}

// NewEvent marshals payload into an envelope.
func NewEvent(name string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Name: name, Payload: raw, At: time.Now().UTC()}, nil
}

// Notifier delivers events to interested parties. Delivery is best effort.
type Notifier interface {
	Publish(ctx context.Context, name string, payload interface{}) error
}

// Nop discards events.
type Nop struct{}

// Publish implements Notifier.
func (Nop) Publish(context.Context, string, interface{}) error { return nil }

// Multi fans an event out to several notifiers.
type Multi []Notifier

// Publish delivers to every notifier and joins their errors.
func (m Multi) Publish(ctx context.Context, name string, payload interface{}) error {
	var errs []error
	for _, n := range m {
		if err := n.Publish(ctx, name, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Emit publishes and logs failures. Mutations never fail because of it.
func Emit(ctx context.Context, n Notifier, log zerolog.Logger, name string, payload interface{}) {
	if n == nil {
		return
	}
	if err := n.Publish(ctx, name, payload); err != nil {
		log.Warn().Err(err).Str("event", name).Msg("event publish failed")
	}
}
