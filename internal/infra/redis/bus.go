// File: internal/infra/redis/bus.go
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"forum-telegram-relay/internal/domain/model"
	"forum-telegram-relay/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

// Bus channels. Outbound sends fan out to the process holding the live
// bot connection; the identity pair is a request/response for the bot's
// username, used by the settings UI.
const (
	channelOutbound        = "notify:outbound"
	channelIdentityRequest = "bot:getIdentity"
	channelIdentityReply   = "bot:identity"
	channelForumPost       = "forum:post"
	channelForumNotify     = "forum:notification"
)

var _ adapter.EventBus = (*Bus)(nil)

// Bus is the Redis pub/sub event bus.
type Bus struct {
	cli *Client
	log *zerolog.Logger
}

func NewBus(c *Client, logger *zerolog.Logger) *Bus {
	l := logger.With().Str("component", "EventBus").Logger()
	return &Bus{cli: c, log: &l}
}

func (b *Bus) PublishOutbound(ctx context.Context, msg model.OutboundMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal outbound message: %w", err)
	}
	if err := b.cli.Publish(ctx, channelOutbound, payload); err != nil {
		return fmt.Errorf("publish outbound message: %w", err)
	}
	return nil
}

// SubscribeOutbound delivers outbound messages to fn, one at a time,
// until ctx is canceled.
func (b *Bus) SubscribeOutbound(ctx context.Context, fn func(model.OutboundMessage)) error {
	sub := b.cli.Subscribe(ctx, channelOutbound)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg model.OutboundMessage
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				b.log.Warn().Err(err).Msg("dropping malformed outbound payload")
				continue
			}
			fn(msg)
		}
	}
}

// notificationEnvelope is the wire shape of a notification-push event.
type notificationEnvelope struct {
	Notification model.Notification `json:"notification"`
	UIDs         []int64            `json:"uids"`
}

// SubscribeForumEvents consumes the forum's post-save and
// notification-push hooks, one event at a time, until ctx is canceled.
func (b *Bus) SubscribeForumEvents(ctx context.Context, onPost func(model.Post), onNotification func(model.Notification, []int64)) error {
	sub := b.cli.Subscribe(ctx, channelForumPost, channelForumNotify)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			switch m.Channel {
			case channelForumPost:
				var post model.Post
				if err := json.Unmarshal([]byte(m.Payload), &post); err != nil {
					b.log.Warn().Err(err).Msg("dropping malformed post event")
					continue
				}
				onPost(post)
			case channelForumNotify:
				var env notificationEnvelope
				if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
					b.log.Warn().Err(err).Msg("dropping malformed notification event")
					continue
				}
				onNotification(env.Notification, env.UIDs)
			}
		}
	}
}

// RequestIdentity asks the connection holder for the bot username and
// waits briefly for the answer.
func (b *Bus) RequestIdentity(ctx context.Context) (string, error) {
	sub := b.cli.Subscribe(ctx, channelIdentityReply)
	defer sub.Close()

	if err := b.cli.Publish(ctx, channelIdentityRequest, "1"); err != nil {
		return "", fmt.Errorf("publish identity request: %w", err)
	}

	timeout := time.NewTimer(3 * time.Second)
	defer timeout.Stop()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timeout.C:
		return "", fmt.Errorf("identity request timed out")
	case m, ok := <-sub.Channel():
		if !ok {
			return "", fmt.Errorf("identity subscription closed")
		}
		return m.Payload, nil
	}
}

// ServeIdentity answers identity requests until ctx is canceled. Only
// the connection-holding process runs this.
func (b *Bus) ServeIdentity(ctx context.Context, identity func() string) error {
	sub := b.cli.Subscribe(ctx, channelIdentityRequest)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			if err := b.cli.Publish(ctx, channelIdentityReply, identity()); err != nil {
				b.log.Warn().Err(err).Msg("failed to answer identity request")
			}
		}
	}
}
