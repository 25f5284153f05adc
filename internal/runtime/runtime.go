// Package runtime defines the channel-facing contracts and the single-flight dispatcher that runs one message at a time.
package runtime

import "context"

// Message is an inbound message delivered by a channel.
type Message struct {
	Text string
}

// ResponseWriter sends handler responses back to the active channel.
type ResponseWriter interface {
	WriteMessage(ctx context.Context, text string) error
}

// Handler processes inbound messages and writes responses.
type Handler interface {
	HandleMessage(ctx context.Context, w ResponseWriter, msg *Message) error
}

// Listener receives channel input and dispatches it to a Handler.
type Listener interface {
	Listen(ctx context.Context, handler Handler) error
}
