package adapter

import (
	"context"

	"forum-telegram-relay/internal/domain/model"
)

// OutboundPublisher enqueues a chat send. All responses and
// announcements go through this path so delivery stays centralized in
// the process that holds the connection.
type OutboundPublisher interface {
	PublishOutbound(ctx context.Context, msg model.OutboundMessage) error
}

// EventBus is the cross-process fan-out. The connection-holding process
// subscribes to outbound messages and answers identity requests; every
// other process only publishes.
type EventBus interface {
	OutboundPublisher

	// SubscribeOutbound delivers published messages to fn until ctx is
	// canceled.
	SubscribeOutbound(ctx context.Context, fn func(model.OutboundMessage)) error

	// RequestIdentity asks the connection holder for the bot username.
	RequestIdentity(ctx context.Context) (string, error)

	// ServeIdentity answers identity requests until ctx is canceled.
	ServeIdentity(ctx context.Context, identity func() string) error

	// SubscribeForumEvents delivers forum-originated events (the
	// forum's post-save and notification-push hooks publish them)
	// until ctx is canceled.
	SubscribeForumEvents(ctx context.Context, onPost func(model.Post), onNotification func(model.Notification, []int64)) error
}
