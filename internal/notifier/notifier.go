// Package notifier delivers booking events to Telegram chats and Redis
// subscribers.
package notifier

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Freeeeeet/room_booking/internal/model"
)

// Notifier delivers one booking event
type Notifier interface {
	Notify(ctx context.Context, event model.BookingEvent) error
}

// Nop drops every event
type Nop struct{}

func (Nop) Notify(context.Context, model.BookingEvent) error { return nil }

// Multi fans an event out to several notifiers. Every notifier is tried; a
// failing one is logged and does not stop the rest.
type Multi struct {
	notifiers []Notifier
	logger    *zap.Logger
}

func NewMulti(logger *zap.Logger, notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers, logger: logger}
}

func (m *Multi) Len() int {
	return len(m.notifiers)
}

func (m *Multi) Notify(ctx context.Context, event model.BookingEvent) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, event); err != nil {
			m.logger.Warn("Notifier failed",
				zap.String("event", string(event.Type)),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
