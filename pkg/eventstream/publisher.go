package eventstream

import "context"

// Publisher publishes memory events to an event stream backend.
type Publisher interface {
	PublishExchangeSaved(ctx context.Context, event *ExchangeSavedEvent) error
	PublishMemoryCompacted(ctx context.Context, event *MemoryCompactedEvent) error
	Close() error
}
