package adapter

import "context"

// ChatTransport is the live bot connection. Send is best-effort:
// delivery failures are logged by the implementation and never surface
// to business logic.
type ChatTransport interface {
	Send(ctx context.Context, target int64, text string)

	// Identity returns the bot's username, empty until connected.
	Identity() string
}

// BotIdentity is the read-only slice of the transport the dispatcher
// needs for mention handling.
type BotIdentity interface {
	Identity() string
}
