package session

import (
	"context"
	"iter"

	"igcourier/pkg/dispatcher"
	"igcourier/pkg/models"
)

// FeedSource walks one page of an account's feed and returns the
// extracted media references plus the next-page cursor (empty on the
// final page). The concrete implementation is instagram.Client.
type FeedSource interface {
	FetchMediaPage(ctx context.Context, account string, pageSize int, cursor string, mode models.Mode) ([]models.MediaRef, string, error)
}

// LinkSource resolves a shared post link into its direct media URLs.
// The concrete implementation is linkresolver.Resolver.
type LinkSource interface {
	Resolve(ctx context.Context, link string) (iter.Seq[string], error)
}

// Transport sends plain text to a chat. Batch delivery goes through the
// Drainer; the controller itself only needs text.
type Transport interface {
	SendText(chatID string, text string) error
}

// Drainer runs one download/batch/flush pass over a pending queue.
// The concrete implementation is dispatcher.Dispatcher.
type Drainer interface {
	Drain(ctx context.Context, chatID string, queue dispatcher.Queue, mode models.Mode, stop dispatcher.Stop) (dispatcher.Result, error)
}
