// Package nop provides a no-op eventstream publisher used for tests and
// disabled mode.
package nop

import (
	"context"

	"github.com/Aman3189/soriva-backend-sub004/pkg/eventstream"
)

// Publisher validates inputs and otherwise does nothing.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishExchangeSaved validates input and otherwise does nothing.
func (p *Publisher) PublishExchangeSaved(_ context.Context, event *eventstream.ExchangeSavedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	return nil
}

// PublishMemoryCompacted validates input and otherwise does nothing.
func (p *Publisher) PublishMemoryCompacted(_ context.Context, event *eventstream.MemoryCompactedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}

var _ eventstream.Publisher = (*Publisher)(nil)
