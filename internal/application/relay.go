package application

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"forum-telegram-relay/internal/config"
	"forum-telegram-relay/internal/domain/model"
	"forum-telegram-relay/internal/domain/ports/adapter"
	"forum-telegram-relay/internal/usecase"
)

// Relay binds the dispatcher and notification relay to the transport
// and the event bus. It is the inbound handler the connection manager
// calls and the delivery loop the bus feeds.
type Relay struct {
	Dispatcher    usecase.CommandDispatcher
	Notifications usecase.NotificationRelay

	store     *config.Store
	bus       adapter.EventBus
	transport adapter.ChatTransport
	log       *zerolog.Logger
}

func NewRelay(
	dispatcher usecase.CommandDispatcher,
	notifications usecase.NotificationRelay,
	store *config.Store,
	bus adapter.EventBus,
	transport adapter.ChatTransport,
	logger *zerolog.Logger,
) *Relay {
	l := logger.With().Str("component", "Relay").Logger()
	return &Relay{
		Dispatcher:    dispatcher,
		Notifications: notifications,
		store:         store,
		bus:           bus,
		transport:     transport,
		log:           &l,
	}
}

// HandleInbound is invoked by the connection manager for every inbound
// message, in arrival order. The first message seen while no target
// room is configured binds that chat as the room (first writer wins).
func (r *Relay) HandleInbound(ctx context.Context, msg model.InboundMessage) {
	if r.store.Snapshot().RoomID == 0 {
		bound, err := r.store.BindRoom(ctx, msg.ChatID)
		if err != nil {
			r.log.Error().Err(err).Int64("chat_id", msg.ChatID).Msg("room bind failed")
		} else if bound {
			r.log.Info().Int64("chat_id", msg.ChatID).Msg("bound chat as target room")
		}
	}
	r.Dispatcher.Handle(ctx, msg)
}

// Run serves the bus sides owned by the connection-holding process:
// outbound delivery and identity requests. Blocks until ctx ends.
func (r *Relay) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		err := r.bus.SubscribeOutbound(ctx, func(msg model.OutboundMessage) {
			r.transport.Send(ctx, msg.Target, msg.Text)
		})
		if err != nil && ctx.Err() == nil {
			r.log.Error().Err(err).Msg("outbound subscription ended")
		}
	}()
	go func() {
		defer wg.Done()
		err := r.bus.SubscribeForumEvents(ctx,
			func(post model.Post) {
				r.Notifications.OnNewPost(ctx, &post)
			},
			func(notif model.Notification, uids []int64) {
				r.Notifications.OnUserNotification(ctx, &notif, uids)
			},
		)
		if err != nil && ctx.Err() == nil {
			r.log.Error().Err(err).Msg("forum event subscription ended")
		}
	}()
	go func() {
		defer wg.Done()
		err := r.bus.ServeIdentity(ctx, r.transport.Identity)
		if err != nil && ctx.Err() == nil {
			r.log.Error().Err(err).Msg("identity service ended")
		}
	}()
	wg.Wait()
	return ctx.Err()
}
