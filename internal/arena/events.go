package arena

import (
	"context"
	"errors"
	"time"
)

type EventType string

const (
	EventRegistered EventType = "registered"
	EventUpdated    EventType = "updated"
	EventWin        EventType = "win"
	EventLoss       EventType = "loss"
	EventMatch      EventType = "match"
)

// Event describes one registry change. Scripts are never included.
type Event struct {
	Type      EventType `json:"type"`
	FighterID string    `json:"fighterId"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	Opponents []string  `json:"opponents,omitempty"` // only for match
	At        time.Time `json:"at"`
}

// EventSink receives events after the registry lock has been released.
type EventSink interface {
	Publish(ctx context.Context, ev Event) error
}

type NopSink struct{}

func (NopSink) Publish(context.Context, Event) error { return nil }

// MultiSink fans an event out to every sink and joins their errors.
type MultiSink []EventSink

func (m MultiSink) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
