// Package notify delivers domain events to logs and to the event stream.
//
// Every notifier is fire and forget: delivery failures are logged and never
// reach the operation that raised the event.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"fundraiser/internal/domain"
)

// Envelope is the wire form of an event on the stream.
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	EmittedAt time.Time       `json:"emitted_at"`
}

func Encode(evt domain.Event, at time.Time) (Envelope, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: evt.EventType(), Data: data, EmittedAt: at.UTC()}, nil
}

// Log writes every event to the logger.
type Log struct {
	logger zerolog.Logger
}

func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger.With().Str("component", "events").Logger()}
}

func (l *Log) Notify(_ context.Context, evt domain.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		l.logger.Error().Err(err).Str("event", evt.EventType()).Msg("encode event")
		return
	}
	l.logger.Info().Str("event", evt.EventType()).RawJSON("data", data).Msg("event")
}

// Fanout delivers each event to every notifier in order.
type Fanout []domain.Notifier

func (f Fanout) Notify(ctx context.Context, evt domain.Event) {
	for _, n := range f {
		if n != nil {
			n.Notify(ctx, evt)
		}
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Notify(context.Context, domain.Event) {}

// Buffer holds events until the operation that raised them is committed.
type Buffer struct {
	events []domain.Event
}

func (b *Buffer) Notify(_ context.Context, evt domain.Event) {
	b.events = append(b.events, evt)
}

func (b *Buffer) Len() int { return len(b.events) }

// Drain returns the buffered events in the order they were raised and
// empties the buffer.
func (b *Buffer) Drain() []domain.Event {
	events := b.events
	b.events = nil
	return events
}

// Deliver passes events to target in order. A nil target drops them.
func Deliver(ctx context.Context, target domain.Notifier, events []domain.Event) {
	if target == nil {
		return
	}
	for _, evt := range events {
		target.Notify(ctx, evt)
	}
}

// Reset drops the buffered events.
func (b *Buffer) Reset() { b.events = nil }
