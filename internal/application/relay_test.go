//go:build !integration

package application_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"forum-telegram-relay/internal/application"
	"forum-telegram-relay/internal/config"
	"forum-telegram-relay/internal/domain/model"
)

type fakeSettingsRepo struct {
	mu     sync.Mutex
	values map[string]string
}

func (f *fakeSettingsRepo) GetAll(ctx context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out, nil
}

func (f *fakeSettingsRepo) SetAll(ctx context.Context, values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, v := range values {
		f.values[k] = v
	}
	return nil
}

func (f *fakeSettingsRepo) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value
	return true, nil
}

type fakeDispatcher struct {
	mu      sync.Mutex
	Handled []model.InboundMessage
}

func (f *fakeDispatcher) Handle(ctx context.Context, msg model.InboundMessage) {
	f.mu.Lock()
	f.Handled = append(f.Handled, msg)
	f.mu.Unlock()
}

type fakeNotifications struct {
	mu     sync.Mutex
	Posts  []model.Post
	Notifs []model.Notification
}

func (f *fakeNotifications) OnNewPost(ctx context.Context, post *model.Post) {
	f.mu.Lock()
	f.Posts = append(f.Posts, *post)
	f.mu.Unlock()
}

func (f *fakeNotifications) OnUserNotification(ctx context.Context, notif *model.Notification, uids []int64) {
	f.mu.Lock()
	f.Notifs = append(f.Notifs, *notif)
	f.mu.Unlock()
}

type fakeTransport struct {
	mu   sync.Mutex
	Sent []model.OutboundMessage
	name string
}

func (f *fakeTransport) Send(ctx context.Context, target int64, text string) {
	f.mu.Lock()
	f.Sent = append(f.Sent, model.OutboundMessage{Target: target, Text: text})
	f.mu.Unlock()
}

func (f *fakeTransport) Identity() string { return f.name }

// fakeBus feeds queued events into the subscription callbacks and then
// blocks until cancellation, like a quiet pub/sub connection would.
type fakeBus struct {
	outbound []model.OutboundMessage
	posts    []model.Post

	identityRequests int
	identityAnswer   chan string
}

func (f *fakeBus) PublishOutbound(ctx context.Context, msg model.OutboundMessage) error { return nil }

func (f *fakeBus) SubscribeOutbound(ctx context.Context, fn func(model.OutboundMessage)) error {
	for _, msg := range f.outbound {
		fn(msg)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeBus) SubscribeForumEvents(ctx context.Context, onPost func(model.Post), onNotification func(model.Notification, []int64)) error {
	for _, post := range f.posts {
		onPost(post)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeBus) RequestIdentity(ctx context.Context) (string, error) { return "", nil }

func (f *fakeBus) ServeIdentity(ctx context.Context, identity func() string) error {
	for i := 0; i < f.identityRequests; i++ {
		f.identityAnswer <- identity()
	}
	<-ctx.Done()
	return ctx.Err()
}

func newRelay(t *testing.T, bus *fakeBus, settings map[string]string) (*application.Relay, *fakeDispatcher, *fakeNotifications, *fakeTransport, *config.Store) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	if settings == nil {
		settings = map[string]string{}
	}
	store := config.NewStore(&fakeSettingsRepo{values: settings}, config.BotConfig{Token: "t"})
	if err := store.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	dispatcher := &fakeDispatcher{}
	notifications := &fakeNotifications{}
	transport := &fakeTransport{name: "testbot"}
	relay := application.NewRelay(dispatcher, notifications, store, bus, transport, &logger)
	return relay, dispatcher, notifications, transport, store
}

func TestHandleInbound(t *testing.T) {
	ctx := context.Background()

	t.Run("should bind the first chat as the target room", func(t *testing.T) {
		relay, dispatcher, _, _, store := newRelay(t, &fakeBus{}, nil)

		relay.HandleInbound(ctx, model.InboundMessage{ChatID: -100, FromID: 42, Text: "/help"})

		if got := store.Snapshot().RoomID; got != -100 {
			t.Errorf("expected room -100, got %d", got)
		}
		if len(dispatcher.Handled) != 1 {
			t.Fatal("the binding message must still be dispatched")
		}
	})

	t.Run("should not rebind once a room is set", func(t *testing.T) {
		relay, _, _, _, store := newRelay(t, &fakeBus{}, map[string]string{config.KeyRoomID: "-100"})

		relay.HandleInbound(ctx, model.InboundMessage{ChatID: -200, FromID: 42, Text: "/help"})

		if got := store.Snapshot().RoomID; got != -100 {
			t.Errorf("room must stay -100, got %d", got)
		}
	})
}

func TestRelayRun(t *testing.T) {
	waitFor := func(t *testing.T, what string, cond func() bool) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if cond() {
				return
			}
			time.Sleep(time.Millisecond)
		}
		t.Fatalf("timed out waiting for %s", what)
	}

	t.Run("should deliver bus traffic through the transport", func(t *testing.T) {
		bus := &fakeBus{
			outbound: []model.OutboundMessage{{Target: 42, Text: "hello"}},
			posts:    []model.Post{{PID: 1, TID: 31, Content: "fresh"}},
		}
		relay, _, notifications, transport, _ := newRelay(t, bus, nil)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- relay.Run(ctx) }()

		waitFor(t, "the outbound delivery", func() bool {
			transport.mu.Lock()
			defer transport.mu.Unlock()
			return len(transport.Sent) == 1
		})
		waitFor(t, "the post event", func() bool {
			notifications.mu.Lock()
			defer notifications.mu.Unlock()
			return len(notifications.Posts) == 1
		})

		transport.mu.Lock()
		if transport.Sent[0].Target != 42 || transport.Sent[0].Text != "hello" {
			t.Errorf("unexpected delivery: %+v", transport.Sent[0])
		}
		transport.mu.Unlock()

		cancel()
		if err := <-done; err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("should answer identity requests with the bot username", func(t *testing.T) {
		bus := &fakeBus{identityRequests: 1, identityAnswer: make(chan string, 1)}
		relay, _, _, _, _ := newRelay(t, bus, nil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = relay.Run(ctx) }()

		select {
		case name := <-bus.identityAnswer:
			if name != "testbot" {
				t.Errorf("expected testbot, got %q", name)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("identity request was not answered")
		}
	})
}
