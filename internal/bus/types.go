// Package bus defines the message types exchanged between the chat transport
// and the bot core. The transport delivers one ChatLine per inbound IRC
// message; the core replies with Outbound lines. One inbound delivery is one
// atomic unit of work for the core.
package bus

import "context"

// ChatLine is one inbound line of channel conversation.
type ChatLine struct {
	Channel   string // channel the line was seen on, e.g. "#rdf-star"
	Sender    string // nick of the sender
	Text      string // message text, with any address prefix already stripped
	Addressed bool   // true when the line was directed at the bot by name
}

// Outbound is a line the bot wants delivered to a channel.
type Outbound struct {
	Channel string
	Text    string
}

// Transport is the chat connection collaborator.
type Transport interface {
	// Lines returns the inbound delivery channel. Closed on disconnect.
	Lines() <-chan ChatLine

	// Send delivers an outbound line. Safe for concurrent use; the
	// implementation owns flood pacing and write ordering.
	Send(ctx context.Context, msg Outbound) error

	// Join and Part enter or leave a channel.
	Join(ctx context.Context, channel string) error
	Part(ctx context.Context, channel string) error
}
